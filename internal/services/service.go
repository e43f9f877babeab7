package services

import (
	"context"
	"time"

	"github.com/pixelpot/pixelpot-backend/internal/models"
	"github.com/pixelpot/pixelpot-backend/internal/repositories"
)

// GameService defines the interface for click resolution and jackpot reads
type GameService interface {
	// ResolveClick validates and resolves one click attempt. Expected
	// business outcomes (win, miss, rejection) come back as the outcome;
	// the error channel carries storage faults only.
	ResolveClick(ctx context.Context, x, y int, identifier string, now time.Time) (*models.ClickOutcome, error)

	// CurrentJackpot returns the current jackpot state.
	CurrentJackpot(ctx context.Context) (*models.JackpotState, error)

	// CurrentTarget returns the target for the day of now, creating it if
	// this is the day's first access.
	CurrentTarget(ctx context.Context, now time.Time) (*models.DailyTarget, error)

	// JackpotHistory returns up to limit audit entries, newest first.
	JackpotHistory(ctx context.Context, limit int64) ([]*models.JackpotHistoryEntry, error)
}

// TargetService defines the interface for daily target generation and rotation
type TargetService interface {
	// GetOrCreate returns the day's target, drawing and persisting a random
	// one on first access.
	GetOrCreate(ctx context.Context, date string) (*models.DailyTarget, error)

	// ForceRotate redraws the day's target in its own mutation unit.
	ForceRotate(ctx context.Context, date string) (*models.DailyTarget, error)

	// Rotate redraws the day's target inside an already-open mutation unit.
	Rotate(ctx context.Context, tx repositories.LedgerTx, date string) (*models.DailyTarget, error)
}

// SchedulerService defines the interface for the periodic jackpot incrementer
type SchedulerService interface {
	// RunIncrementTick applies one automatic increment as a mutation unit.
	RunIncrementTick(ctx context.Context) error

	// Start launches the tick loop; Stop halts it.
	Start()
	Stop()
}

// EventPublisher is the boundary to the external real-time fan-out. The
// engine and scheduler hand every committed mutation to it; delivery to
// subscribers is the transport layer's concern.
type EventPublisher interface {
	Publish(event models.GameEvent)
}
