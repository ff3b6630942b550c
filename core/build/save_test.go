package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"pcbuild/core/catalog"
	"pcbuild/core/types"
	"pcbuild/internal/errors"
)

type recordingSaver struct {
	saved []*types.SavedConfiguration
	err   error
}

func (r *recordingSaver) Save(_ context.Context, cfg *types.SavedConfiguration) error {
	if r.err != nil {
		return r.err
	}
	cfg.ID = fmt.Sprintf("cfg-%d", len(r.saved)+1)
	cfg.CreatedAt = time.Now()
	r.saved = append(r.saved, cfg)
	return nil
}

func TestSaveSnapshotsCompleteBuild(t *testing.T) {
	s := completeSession(t)
	saver := &recordingSaver{}

	cfg, err := s.Save(context.Background(), "  Night Owl  ", saver)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if cfg.Name != "Night Owl" || cfg.ID != "cfg-1" {
		t.Errorf("unexpected saved record: %+v", cfg)
	}
	if len(cfg.Components) != types.CategoryCount() {
		t.Errorf("expected %d component ids, got %d", types.CategoryCount(), len(cfg.Components))
	}
	if cfg.Components[types.CategoryGPU] != "gpu-1" {
		t.Errorf("unexpected gpu id: %s", cfg.Components[types.CategoryGPU])
	}
	if !cfg.TotalPrice.Equal(s.State().TotalPrice) {
		t.Errorf("total mismatch: %s vs %s", cfg.TotalPrice, s.State().TotalPrice)
	}

	// later edits do not reach the saved snapshot
	_, _ = s.Reset(types.CategoryGPU)
	if cfg.Components[types.CategoryGPU] != "gpu-1" {
		t.Error("saved configuration changed after a session edit")
	}
}

func TestSaveDefaultsName(t *testing.T) {
	s := completeSession(t)
	cfg, err := s.Save(context.Background(), "", &recordingSaver{})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if cfg.Name != DefaultConfigurationName {
		t.Errorf("expected default name, got %q", cfg.Name)
	}
}

func TestSaveRejectsIncompleteBuild(t *testing.T) {
	s := NewSession()
	_, _ = s.Select(types.CategoryCPU, compatibleParts()[0])
	saver := &recordingSaver{}

	_, err := s.Save(context.Background(), "partial", saver)
	if !errors.IsType(err, errors.TypeInput) {
		t.Fatalf("expected input error, got %v", err)
	}
	if len(saver.saved) != 0 {
		t.Error("incomplete build reached the store")
	}
}

func TestSaveFailureLeavesStateUnchanged(t *testing.T) {
	s := completeSession(t)
	before := s.State()
	cause := fmt.Errorf("connection reset by peer")
	saver := &recordingSaver{err: cause}

	_, err := s.Save(context.Background(), "retry me", saver)
	if !errors.IsType(err, errors.TypeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if !stderrors.Is(err, cause) {
		t.Error("underlying failure should be surfaced")
	}

	after := s.State()
	if !reflect.DeepEqual(before.Selections, after.Selections) || before.CurrentStep != after.CurrentStep {
		t.Error("failed save modified the session")
	}

	// retry without re-selecting
	saver.err = nil
	if _, err := s.Save(context.Background(), "retry me", saver); err != nil {
		t.Errorf("retry failed: %v", err)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	cat := catalog.Seed()
	saved := &types.SavedConfiguration{
		ID: "cfg-1",
		Components: map[types.Category]string{
			types.CategoryCPU:         "cpu-r7-7800x3d",
			types.CategoryMotherboard: "mb-b650i",
			types.CategoryRAM:         "ram-ddr5-32",
		},
	}

	s, err := Restore(ctx, saved, cat)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	state := s.State()
	if state.Category != types.CategoryStorage {
		t.Errorf("expected pointer on first empty step (storage), got %s", state.Category)
	}
	if len(state.Selections.Filled()) != 3 || len(state.Issues) != 0 {
		t.Errorf("unexpected restored state: %+v", state)
	}

	saved.Components[types.CategoryGPU] = "no-such-gpu"
	if _, err := Restore(ctx, saved, cat); !errors.IsType(err, errors.TypeCatalog) {
		t.Errorf("unknown component should fail restore, got %v", err)
	}

	saved.Components[types.CategoryGPU] = "psu-850-gold"
	if _, err := Restore(ctx, saved, cat); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("category mismatch should fail restore, got %v", err)
	}
}

func TestRestoreCompleteLandsOnLastStep(t *testing.T) {
	ctx := context.Background()
	saved := &types.SavedConfiguration{
		Components: map[types.Category]string{
			types.CategoryCPU:         "cpu-i7-13700k",
			types.CategoryMotherboard: "mb-z790-a",
			types.CategoryRAM:         "ram-ddr5-32",
			types.CategoryStorage:     "ssd-990pro-2tb",
			types.CategoryGPU:         "gpu-rtx4080",
			types.CategoryPSU:         "psu-850-gold",
			types.CategoryCase:        "case-h7-flow",
		},
	}
	s, err := Restore(ctx, saved, catalog.Seed())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	state := s.State()
	if !state.IsComplete || !state.IsLastStep() || len(state.Issues) != 0 {
		t.Errorf("unexpected state: complete=%v step=%d issues=%q", state.IsComplete, state.CurrentStep, state.Issues)
	}
}
