package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pixelpot/pixelpot-backend/internal/config"
	"github.com/pixelpot/pixelpot-backend/internal/models"
	"github.com/pixelpot/pixelpot-backend/internal/repositories"
	"github.com/pixelpot/pixelpot-backend/internal/utils"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure SchedulerServiceImpl implements SchedulerService
var _ SchedulerService = (*SchedulerServiceImpl)(nil)

// SchedulerServiceImpl is the periodic incrementer: an actor independent of
// any caller that drips a fixed delta into the jackpot through the same
// mutation path the game engine uses, without passing the attempt gate.
type SchedulerServiceImpl struct {
	ledger    repositories.LedgerRepository
	publisher EventPublisher
	cfg       config.SchedulerConfig
	ceiling   float64
	stop      chan struct{}
}

// NewSchedulerService creates a new SchedulerServiceImpl
func NewSchedulerService(ledger repositories.LedgerRepository, publisher EventPublisher, cfg config.SchedulerConfig, game config.GameConfig) *SchedulerServiceImpl {
	return &SchedulerServiceImpl{
		ledger:    ledger,
		publisher: publisher,
		cfg:       cfg,
		ceiling:   game.Ceiling,
		stop:      make(chan struct{}),
	}
}

// RunIncrementTick applies one automatic increment as a mutation unit,
// attributed to the reserved system actor.
func (s *SchedulerServiceImpl) RunIncrementTick(ctx context.Context) error {
	now := time.Now().UTC()
	var event models.GameEvent
	err := s.ledger.WithMutation(ctx, func(ctx context.Context, tx repositories.LedgerTx) error {
		state, err := tx.GetJackpot(ctx)
		if err != nil {
			return err
		}
		newAmount := utils.Clamp(utils.Round3(state.CurrentAmount+s.cfg.TickDelta), 0, s.ceiling)
		if err := tx.UpdateJackpot(ctx, newAmount, models.SystemActorID, now); err != nil {
			return err
		}
		entry := models.JackpotHistoryEntry{
			Timestamp:      now,
			PreviousAmount: state.CurrentAmount,
			NewAmount:      newAmount,
			ActionType:     models.ActionAutoIncrement,
			ActorID:        models.SystemActorID,
		}
		if err := tx.AppendHistory(ctx, &entry); err != nil {
			return err
		}
		event = models.GameEvent{
			Type:           entry.ActionType,
			ActorID:        entry.ActorID,
			PreviousAmount: entry.PreviousAmount,
			NewAmount:      entry.NewAmount,
			Timestamp:      entry.Timestamp,
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply jackpot auto increment: %w", err)
	}
	s.publisher.Publish(event)
	return nil
}

// Start launches the tick loop. A failed tick is logged and isolated; the
// next tick proceeds regardless.
func (s *SchedulerServiceImpl) Start() {
	ticker := time.NewTicker(s.cfg.TickInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.RunIncrementTick(context.Background()); err != nil {
					slog.Error("Jackpot auto increment tick failed", "error", err)
				}
			case <-s.stop:
				return
			}
		}
	}()
	slog.Info("Jackpot scheduler started", "interval", s.cfg.TickInterval, "delta", s.cfg.TickDelta)
}

// Stop halts the tick loop.
func (s *SchedulerServiceImpl) Stop() {
	close(s.stop)
}
