package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavedConfiguration is a persisted snapshot of a build. It does not track
// later edits to the session it came from.
type SavedConfiguration struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	OwnerID    string              `json:"owner_id,omitempty"`
	Components map[Category]string `json:"components"`
	TotalPrice decimal.Decimal     `json:"total_price"`
	CreatedAt  time.Time           `json:"created_at"`
}

// NewSavedConfiguration snapshots the non-empty selections
func NewSavedConfiguration(name string, sel Selections, total decimal.Decimal) *SavedConfiguration {
	return &SavedConfiguration{
		Name:       name,
		Components: sel.IDs(),
		TotalPrice: total,
	}
}
