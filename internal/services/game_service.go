package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pixelpot/pixelpot-backend/internal/config"
	"github.com/pixelpot/pixelpot-backend/internal/models"
	"github.com/pixelpot/pixelpot-backend/internal/repositories"
	"github.com/pixelpot/pixelpot-backend/internal/utils"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure GameServiceImpl implements GameService
var _ GameService = (*GameServiceImpl)(nil)

// GameServiceImpl orchestrates click resolution: validation, the attempt
// gate, distance scoring, and the atomic ledger mutation.
type GameServiceImpl struct {
	ledger    repositories.LedgerRepository
	targets   TargetService
	publisher EventPublisher
	cfg       config.GameConfig
}

// NewGameService creates a new GameServiceImpl
func NewGameService(ledger repositories.LedgerRepository, targets TargetService, publisher EventPublisher, cfg config.GameConfig) *GameServiceImpl {
	return &GameServiceImpl{
		ledger:    ledger,
		targets:   targets,
		publisher: publisher,
		cfg:       cfg,
	}
}

// ResolveClick resolves a single click attempt for an identifier. Every state
// change it makes happens inside one mutation unit; a unit that fails leaves
// no partial jackpot, history, target, or attempt effects behind.
func (s *GameServiceImpl) ResolveClick(ctx context.Context, x, y int, identifier string, now time.Time) (*models.ClickOutcome, error) {
	// 1. Validate input. Caller errors never touch the ledger.
	if identifier == "" || x < 0 || x >= models.GridSize || y < 0 || y >= models.GridSize {
		return &models.ClickOutcome{
			Result: models.ClickResultRejected,
			Reason: models.RejectionInvalidCoordinates,
		}, nil
	}

	day := models.DayKey(now)

	// 2. Gate pre-check. Cheap short-circuit only; the authoritative claim is
	// the attempt insert inside the mutation unit.
	claimed, err := s.ledger.HasAttempt(ctx, identifier, day)
	if err != nil {
		return nil, fmt.Errorf("failed to check attempt gate: %w", err)
	}
	if claimed {
		return &models.ClickOutcome{
			Result: models.ClickResultRejected,
			Reason: models.RejectionAttemptLimit,
		}, nil
	}

	// 3. Read the day's target and score the click.
	target, err := s.targets.GetOrCreate(ctx, day)
	if err != nil {
		return nil, err
	}
	distance := utils.Distance(x, y, target.X, target.Y)

	// 4. Apply the click as one mutation unit. The closure may re-run if the
	// store retries a write conflict, so it derives everything from the
	// in-unit jackpot read.
	var outcome *models.ClickOutcome
	var event models.GameEvent
	mutation := func(ctx context.Context, tx repositories.LedgerTx) error {
		state, err := tx.GetJackpot(ctx)
		if err != nil {
			return err
		}

		var entry models.JackpotHistoryEntry
		if distance == 0 {
			wonAmount := state.CurrentAmount
			if err := tx.UpdateJackpot(ctx, s.cfg.BaseAmount, identifier, now); err != nil {
				return err
			}
			entry = models.JackpotHistoryEntry{
				Timestamp:      now.UTC(),
				PreviousAmount: wonAmount,
				NewAmount:      s.cfg.BaseAmount,
				ActionType:     models.ActionJackpotWin,
				ActorID:        identifier,
			}
			if err := tx.AppendHistory(ctx, &entry); err != nil {
				return err
			}
			if _, err := s.targets.Rotate(ctx, tx, day); err != nil {
				return err
			}
			outcome = &models.ClickOutcome{
				Result:    models.ClickResultWin,
				Distance:  distance,
				TargetX:   target.X,
				TargetY:   target.Y,
				WonAmount: wonAmount,
				NewAmount: s.cfg.BaseAmount,
			}
		} else {
			newAmount := utils.Clamp(utils.Round3(state.CurrentAmount+s.cfg.ClickDelta), 0, s.cfg.Ceiling)
			if err := tx.UpdateJackpot(ctx, newAmount, identifier, now); err != nil {
				return err
			}
			entry = models.JackpotHistoryEntry{
				Timestamp:      now.UTC(),
				PreviousAmount: state.CurrentAmount,
				NewAmount:      newAmount,
				ActionType:     models.ActionIncrement,
				ActorID:        identifier,
			}
			if err := tx.AppendHistory(ctx, &entry); err != nil {
				return err
			}
			outcome = &models.ClickOutcome{
				Result:    models.ClickResultMiss,
				Distance:  distance,
				TargetX:   target.X,
				TargetY:   target.Y,
				NewAmount: newAmount,
			}
		}

		if err := tx.RecordAttempt(ctx, &models.ClickAttempt{
			Identifier:  identifier,
			AttemptDate: day,
			Timestamp:   now.UTC(),
		}); err != nil {
			return err
		}

		event = models.GameEvent{
			Type:           entry.ActionType,
			ActorID:        identifier,
			PreviousAmount: entry.PreviousAmount,
			NewAmount:      entry.NewAmount,
			Timestamp:      entry.Timestamp,
		}
		return nil
	}

	if err := s.ledger.WithMutation(ctx, mutation); err != nil {
		// Two near-simultaneous clicks from one identifier can both pass the
		// pre-check; the attempt insert decides the winner.
		if errors.Is(err, repositories.ErrDuplicateAttempt) {
			return &models.ClickOutcome{
				Result: models.ClickResultRejected,
				Reason: models.RejectionAttemptLimit,
			}, nil
		}
		slog.Error("Click mutation unit failed", "error", err, "identifier", identifier, "date", day)
		return nil, fmt.Errorf("failed to resolve click: %w", err)
	}

	if outcome.Result == models.ClickResultWin {
		slog.Info("Jackpot won", "identifier", identifier, "amount", outcome.WonAmount, "date", day)
	}
	s.publisher.Publish(event)
	return outcome, nil
}

// CurrentJackpot returns the current jackpot state.
func (s *GameServiceImpl) CurrentJackpot(ctx context.Context) (*models.JackpotState, error) {
	return s.ledger.GetJackpot(ctx)
}

// CurrentTarget returns the target for the day of now, creating it on the
// day's first access. The coordinates are only otherwise disclosed through a
// click outcome, so this read is for trusted collaborators.
func (s *GameServiceImpl) CurrentTarget(ctx context.Context, now time.Time) (*models.DailyTarget, error) {
	return s.targets.GetOrCreate(ctx, models.DayKey(now))
}

// JackpotHistory returns up to limit audit entries, newest first.
func (s *GameServiceImpl) JackpotHistory(ctx context.Context, limit int64) ([]*models.JackpotHistoryEntry, error) {
	return s.ledger.JackpotHistory(ctx, limit)
}
