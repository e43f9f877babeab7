package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/pixelpot/pixelpot-backend/internal/models"
)

// ErrDuplicateAttempt is returned by LedgerTx.RecordAttempt when a click
// attempt already exists for the (identifier, date) key. The attempt gate
// relies on this error, not on its pre-check, for correctness under races.
var ErrDuplicateAttempt = errors.New("click attempt already recorded for identifier and date")

// LedgerTx is the write surface of one mutation unit. All writes staged
// through it commit together or not at all; it must not be used outside the
// WithMutation callback that produced it.
type LedgerTx interface {
	// GetJackpot reads the jackpot state as of this mutation unit. Writers
	// that derive the new amount from the current one must read it here, not
	// outside the unit, so concurrent units never lose an update.
	GetJackpot(ctx context.Context) (*models.JackpotState, error)

	// UpdateJackpot overwrites the jackpot amount, stamps the actor and
	// timestamp, and increments the state version by one.
	UpdateJackpot(ctx context.Context, newAmount float64, actorID string, now time.Time) error

	// AppendHistory appends one audit entry to the jackpot history log.
	AppendHistory(ctx context.Context, entry *models.JackpotHistoryEntry) error

	// RotateTarget inserts the day's target at version 1 or, if one already
	// exists for the date, replaces its coordinates and increments the
	// version by one. Insert-vs-replace is a single atomic operation.
	RotateTarget(ctx context.Context, date string, x, y int) (*models.DailyTarget, error)

	// RecordAttempt claims the (identifier, date) key for this click. It
	// returns ErrDuplicateAttempt if the key is already claimed.
	RecordAttempt(ctx context.Context, attempt *models.ClickAttempt) error
}

// LedgerRepository defines the interface for the game ledger: the four shared
// record families and the atomic mutation unit all writers go through.
type LedgerRepository interface {
	// GetJackpot returns the singleton jackpot state.
	GetJackpot(ctx context.Context) (*models.JackpotState, error)

	// GetOrCreateDailyTarget returns the target for the date, persisting the
	// candidate coordinates at version 1 if no target exists yet.
	GetOrCreateDailyTarget(ctx context.Context, date string, candidateX, candidateY int) (*models.DailyTarget, error)

	// HasAttempt reports whether an attempt exists for the identifier on the
	// date. It is a best-effort pre-check; the authoritative claim happens in
	// LedgerTx.RecordAttempt.
	HasAttempt(ctx context.Context, identifier, date string) (bool, error)

	// JackpotHistory returns up to limit history entries, newest first.
	JackpotHistory(ctx context.Context, limit int64) ([]*models.JackpotHistoryEntry, error)

	// WithMutation runs fn as one atomic mutation unit. If fn returns an
	// error the unit aborts and none of its writes become visible.
	WithMutation(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}
