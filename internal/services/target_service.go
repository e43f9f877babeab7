package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/pixelpot/pixelpot-backend/internal/models"
	"github.com/pixelpot/pixelpot-backend/internal/repositories"
)

// CoordinateSource supplies target coordinates. Tests inject deterministic
// sources to assert exact win and rotation behavior.
type CoordinateSource interface {
	Coordinate() (x, y int)
}

// randomCoordinateSource draws uniformly over the full grid. No distinctness
// guarantee across draws: a rotation may land on the previous coordinate.
type randomCoordinateSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomCoordinateSource creates a CoordinateSource seeded from the clock
func NewRandomCoordinateSource() CoordinateSource {
	return &randomCoordinateSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *randomCoordinateSource) Coordinate() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(models.GridSize), s.rng.Intn(models.GridSize)
}

// Compile-time check to ensure TargetServiceImpl implements TargetService
var _ TargetService = (*TargetServiceImpl)(nil)

// TargetServiceImpl handles daily target generation and forced rotation
type TargetServiceImpl struct {
	ledger repositories.LedgerRepository
	source CoordinateSource
}

// NewTargetService creates a new TargetServiceImpl
func NewTargetService(ledger repositories.LedgerRepository, source CoordinateSource) *TargetServiceImpl {
	return &TargetServiceImpl{
		ledger: ledger,
		source: source,
	}
}

// GetOrCreate returns the existing target for the date or persists a fresh
// random draw at version 1. The candidate coordinates are only used if this
// caller wins the creation race.
func (s *TargetServiceImpl) GetOrCreate(ctx context.Context, date string) (*models.DailyTarget, error) {
	x, y := s.source.Coordinate()
	target, err := s.ledger.GetOrCreateDailyTarget(ctx, date, x, y)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create target for %s: %w", date, err)
	}
	return target, nil
}

// ForceRotate redraws the day's target in its own mutation unit. Concurrent
// forced rotations serialize into consecutive version increments.
func (s *TargetServiceImpl) ForceRotate(ctx context.Context, date string) (*models.DailyTarget, error) {
	var rotated *models.DailyTarget
	err := s.ledger.WithMutation(ctx, func(ctx context.Context, tx repositories.LedgerTx) error {
		var err error
		rotated, err = s.Rotate(ctx, tx, date)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rotated, nil
}

// Rotate redraws the day's target inside an already-open mutation unit, used
// by the game engine when a win retires the current target.
func (s *TargetServiceImpl) Rotate(ctx context.Context, tx repositories.LedgerTx, date string) (*models.DailyTarget, error) {
	x, y := s.source.Coordinate()
	rotated, err := tx.RotateTarget(ctx, date, x, y)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate target for %s: %w", date, err)
	}
	return rotated, nil
}
