package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pixelpot/pixelpot-backend/internal/models"
	"github.com/pixelpot/pixelpot-backend/internal/repositories"
)

// Compile-time check to ensure LedgerRepository implements repositories.LedgerRepository
var _ repositories.LedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository implements the repositories.LedgerRepository interface in
// memory. Mutation units serialize on a single mutex and stage their writes,
// applying them only when the unit's function returns nil, so an aborted unit
// leaves no partial effects. It backs tests and the "memory" storage driver.
type LedgerRepository struct {
	mu       sync.Mutex
	jackpot  models.JackpotState
	history  []*models.JackpotHistoryEntry
	targets  map[string]models.DailyTarget
	attempts map[string]models.ClickAttempt
}

func attemptKey(identifier, date string) string {
	return identifier + "|" + date
}

// NewLedgerRepository creates a new LedgerRepository seeded with the base
// jackpot amount at version 1.
func NewLedgerRepository(baseAmount float64) *LedgerRepository {
	return &LedgerRepository{
		jackpot: models.JackpotState{
			ID:             "current",
			CurrentAmount:  baseAmount,
			LastUpdatedAt:  time.Now().UTC(),
			LastModifiedBy: models.SystemActorID,
			Version:        1,
		},
		targets:  make(map[string]models.DailyTarget),
		attempts: make(map[string]models.ClickAttempt),
	}
}

// GetJackpot returns a copy of the singleton jackpot state.
func (r *LedgerRepository) GetJackpot(ctx context.Context) (*models.JackpotState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.jackpot
	return &state, nil
}

// GetOrCreateDailyTarget returns the target for the date, storing the
// candidate coordinates at version 1 when no target exists.
func (r *LedgerRepository) GetOrCreateDailyTarget(ctx context.Context, date string, candidateX, candidateY int) (*models.DailyTarget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if target, ok := r.targets[date]; ok {
		return &target, nil
	}
	target := models.DailyTarget{Date: date, X: candidateX, Y: candidateY, Version: 1}
	r.targets[date] = target
	return &target, nil
}

// HasAttempt reports whether a click attempt exists for the identifier on the date.
func (r *LedgerRepository) HasAttempt(ctx context.Context, identifier, date string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.attempts[attemptKey(identifier, date)]
	return ok, nil
}

// JackpotHistory returns up to limit history entries, newest first.
func (r *LedgerRepository) JackpotHistory(ctx context.Context, limit int64) ([]*models.JackpotHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]*models.JackpotHistoryEntry, 0, limit)
	for i := len(r.history) - 1; i >= 0 && int64(len(entries)) < limit; i-- {
		entry := *r.history[i]
		entries = append(entries, &entry)
	}
	return entries, nil
}

// WithMutation runs fn as one serialized mutation unit. Writes are staged on
// the transaction and committed only if fn returns nil.
func (r *LedgerRepository) WithMutation(ctx context.Context, fn func(ctx context.Context, tx repositories.LedgerTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &ledgerTx{repo: r}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// ledgerTx stages the writes of one mutation unit. The repository mutex is
// held for the lifetime of the transaction, so staged reads never race with
// other units.
type ledgerTx struct {
	repo     *LedgerRepository
	jackpot  *models.JackpotState
	history  []*models.JackpotHistoryEntry
	targets  map[string]models.DailyTarget
	attempts map[string]models.ClickAttempt
}

// GetJackpot reads the jackpot state as of this unit, including its own
// staged update if one exists.
func (t *ledgerTx) GetJackpot(ctx context.Context) (*models.JackpotState, error) {
	if t.jackpot != nil {
		state := *t.jackpot
		return &state, nil
	}
	state := t.repo.jackpot
	return &state, nil
}

// UpdateJackpot stages the jackpot overwrite and version bump.
func (t *ledgerTx) UpdateJackpot(ctx context.Context, newAmount float64, actorID string, now time.Time) error {
	state, _ := t.GetJackpot(ctx)
	state.CurrentAmount = newAmount
	state.LastModifiedBy = actorID
	state.LastUpdatedAt = now.UTC()
	state.Version++
	t.jackpot = state
	return nil
}

// AppendHistory stages one audit entry.
func (t *ledgerTx) AppendHistory(ctx context.Context, entry *models.JackpotHistoryEntry) error {
	staged := *entry
	t.history = append(t.history, &staged)
	return nil
}

// RotateTarget stages an insert-or-replace of the day's target.
func (t *ledgerTx) RotateTarget(ctx context.Context, date string, x, y int) (*models.DailyTarget, error) {
	target, ok := t.stagedTarget(date)
	if ok {
		target.X = x
		target.Y = y
		target.Version++
	} else {
		target = models.DailyTarget{Date: date, X: x, Y: y, Version: 1}
	}
	if t.targets == nil {
		t.targets = make(map[string]models.DailyTarget)
	}
	t.targets[date] = target
	result := target
	return &result, nil
}

// RecordAttempt stages the (identifier, date) claim, honoring both committed
// and staged attempts for uniqueness.
func (t *ledgerTx) RecordAttempt(ctx context.Context, attempt *models.ClickAttempt) error {
	key := attemptKey(attempt.Identifier, attempt.AttemptDate)
	if _, ok := t.repo.attempts[key]; ok {
		return repositories.ErrDuplicateAttempt
	}
	if _, ok := t.attempts[key]; ok {
		return repositories.ErrDuplicateAttempt
	}
	if t.attempts == nil {
		t.attempts = make(map[string]models.ClickAttempt)
	}
	t.attempts[key] = *attempt
	return nil
}

func (t *ledgerTx) stagedTarget(date string) (models.DailyTarget, bool) {
	if target, ok := t.targets[date]; ok {
		return target, true
	}
	target, ok := t.repo.targets[date]
	return target, ok
}

// commit applies the staged writes to the repository. Called with the
// repository mutex held.
func (t *ledgerTx) commit() {
	if t.jackpot != nil {
		t.repo.jackpot = *t.jackpot
	}
	t.repo.history = append(t.repo.history, t.history...)
	for date, target := range t.targets {
		t.repo.targets[date] = target
	}
	for key, attempt := range t.attempts {
		t.repo.attempts[key] = attempt
	}
}
