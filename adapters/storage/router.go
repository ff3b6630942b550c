package storage

import (
	"context"

	"go.uber.org/zap"

	"pcbuild/core/types"
	"pcbuild/internal/config"
	"pcbuild/internal/errors"
	"pcbuild/internal/logging"
)

// Router sends saves to the account store for signed-in owners and to the
// guest store otherwise.
type Router struct {
	Account Store
	Guest   Store
}

// NewRouter builds both stores from configuration. When both backends
// resolve to the same settings a single store is shared.
func NewRouter(cfg config.StorageConfig) (*Router, error) {
	guest, err := StoreFactory(Backend(cfg.GuestBackend), backendConfig(cfg))
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "guest store", err)
	}
	if cfg.AccountBackend == cfg.GuestBackend {
		return &Router{Account: guest, Guest: guest}, nil
	}
	account, err := StoreFactory(Backend(cfg.AccountBackend), backendConfig(cfg))
	if err != nil {
		guest.Close()
		return nil, errors.Wrap(errors.TypeConfig, "account store", err)
	}
	return &Router{Account: account, Guest: guest}, nil
}

func backendConfig(cfg config.StorageConfig) map[string]string {
	return map[string]string{
		"path": cfg.Directory,
		"dsn":  cfg.PostgresDSN,
	}
}

// ForIdentity picks the account store for a signed-in owner and the guest
// store otherwise
func ForIdentity(ownerID string, account, guest Store) Store {
	if ownerID == "" || account == nil {
		return guest
	}
	return account
}

// For returns the store responsible for an owner
func (r *Router) For(ownerID string) Store {
	return ForIdentity(ownerID, r.Account, r.Guest)
}

// SaverFor returns a saver that stamps ownerID on every configuration
// before handing it to the matching store
func (r *Router) SaverFor(ownerID string) *OwnedSaver {
	return &OwnedSaver{ownerID: ownerID, store: r.For(ownerID)}
}

// Get looks in the owner's store first, then the other one
func (r *Router) Get(ctx context.Context, ownerID, id string) (*types.SavedConfiguration, error) {
	primary := r.For(ownerID)
	cfg, err := primary.Get(ctx, id)
	if err == nil || !errors.IsType(err, errors.TypeNotFound) {
		return cfg, err
	}
	other := r.Guest
	if primary == r.Guest {
		other = r.Account
	}
	if other == primary {
		return nil, err
	}
	return other.Get(ctx, id)
}

// List lists the configurations of one owner; an empty owner lists guest builds
func (r *Router) List(ctx context.Context, ownerID string, limit int) ([]*types.SavedConfiguration, error) {
	if err := ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}
	results, err := r.For(ownerID).List(ctx, &ListFilter{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	if ownerID == "" {
		guests := results[:0]
		for _, cfg := range results {
			if cfg.OwnerID == "" {
				guests = append(guests, cfg)
			}
		}
		results = guests
	}
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

// Close closes both stores
func (r *Router) Close() error {
	var first error
	if r.Account != nil {
		first = r.Account.Close()
	}
	if r.Guest != nil && r.Guest != r.Account {
		if err := r.Guest.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OwnedSaver saves configurations on behalf of one owner
type OwnedSaver struct {
	ownerID string
	store   Store
}

func (s *OwnedSaver) Save(ctx context.Context, cfg *types.SavedConfiguration) error {
	if err := ValidateOwnerID(s.ownerID); err != nil {
		return err
	}
	cfg.OwnerID = s.ownerID
	if err := s.store.Save(ctx, cfg); err != nil {
		logging.Warn("configuration store rejected save",
			zap.String("owner_id", s.ownerID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
