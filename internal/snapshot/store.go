package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"argus/internal/adapters/config"
	"argus/pkg/errors"
)

// Record is one persisted run snapshot. Partial runs are saved too: a record
// carries whatever the run had produced when it was captured, so an
// interrupted run leaves an auditable trail.
type Record struct {
	RunID      string          `json:"run_id"`
	Symbol     string          `json:"symbol"`
	TradeDate  string          `json:"trade_date"`
	Phase      string          `json:"phase"`
	SavedAt    time.Time       `json:"saved_at"`
	Regime     json.RawMessage `json:"regime,omitempty"`
	Ledger     json.RawMessage `json:"ledger,omitempty"`
	Transcript json.RawMessage `json:"transcript,omitempty"`
	Decision   string          `json:"decision,omitempty"`
}

// Store persists run snapshots.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Load(ctx context.Context, runID string) (*Record, error)
}

// NewStore builds the configured snapshot backend.
func NewStore(cfg config.SnapshotConfig) (Store, error) {
	switch cfg.Backend {
	case "file":
		return NewFileStore(cfg.Dir)
	case "redis":
		return NewRedisStore(cfg.RedisURL, cfg.TTL)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown snapshot backend %q", cfg.Backend)
	}
}
