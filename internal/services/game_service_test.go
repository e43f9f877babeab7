package services

import (
	"context"
	"math"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/pixelpot/pixelpot-backend/internal/config"
	"github.com/pixelpot/pixelpot-backend/internal/models"
	"github.com/pixelpot/pixelpot-backend/internal/repositories/memory"
	"github.com/pixelpot/pixelpot-backend/internal/utils"
)

// fixedSource always returns the same coordinate, pinning the daily target.
type fixedSource struct {
	x, y int
}

func (s fixedSource) Coordinate() (int, int) {
	return s.x, s.y
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []models.GameEvent
}

func (p *capturePublisher) Publish(event models.GameEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

var testGameConfig = config.GameConfig{
	BaseAmount: 100.0,
	ClickDelta: 0.001,
	Ceiling:    10_000_000,
}

func newTestGame(source CoordinateSource) (*GameServiceImpl, *memory.LedgerRepository, *capturePublisher) {
	ledger := memory.NewLedgerRepository(testGameConfig.BaseAmount)
	publisher := &capturePublisher{}
	targets := NewTargetService(ledger, source)
	game := NewGameService(ledger, targets, publisher, testGameConfig)
	return game, ledger, publisher
}

func amountsEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestGameService_ResolveClick_Validation(t *testing.T) {
	game, ledger, publisher := newTestGame(fixedSource{x: 500, y: 500})
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		x, y       int
		identifier string
	}{
		{"x below range", -1, 10, "player-1"},
		{"x above range", 1000, 10, "player-1"},
		{"y below range", 10, -1, "player-1"},
		{"y above range", 10, 1000, "player-1"},
		{"empty identifier", 10, 10, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := game.ResolveClick(ctx, tc.x, tc.y, tc.identifier, now)
			if err != nil {
				t.Fatalf("Expected no error, but got %v", err)
			}
			if outcome.Result != models.ClickResultRejected || outcome.Reason != models.RejectionInvalidCoordinates {
				t.Errorf("Expected INVALID_COORDINATES rejection, got %+v", outcome)
			}
		})
	}

	// No rejected click may touch the ledger.
	state, err := ledger.GetJackpot(ctx)
	if err != nil {
		t.Fatalf("GetJackpot failed: %v", err)
	}
	if !amountsEqual(state.CurrentAmount, 100.0) || state.Version != 1 {
		t.Errorf("Expected untouched jackpot (100.0, version 1), got %.3f version %d", state.CurrentAmount, state.Version)
	}
	history, err := ledger.JackpotHistory(ctx, 10)
	if err != nil {
		t.Fatalf("JackpotHistory failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(history))
	}
	if publisher.count() != 0 {
		t.Errorf("Expected no published events, got %d", publisher.count())
	}
}

func TestGameService_ResolveClick_Miss(t *testing.T) {
	game, ledger, publisher := newTestGame(fixedSource{x: 500, y: 500})
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	outcome, err := game.ResolveClick(ctx, 500, 504, "player-1", now)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if outcome.Result != models.ClickResultMiss {
		t.Fatalf("Expected MISS, got %s", outcome.Result)
	}
	if !amountsEqual(outcome.Distance, 4.0) {
		t.Errorf("Expected distance 4.0, got %.3f", outcome.Distance)
	}
	if !amountsEqual(outcome.NewAmount, 100.001) {
		t.Errorf("Expected new amount 100.001, got %.3f", outcome.NewAmount)
	}

	state, _ := ledger.GetJackpot(ctx)
	if !amountsEqual(state.CurrentAmount, 100.001) {
		t.Errorf("Expected jackpot 100.001, got %.3f", state.CurrentAmount)
	}
	if state.LastModifiedBy != "player-1" {
		t.Errorf("Expected jackpot attributed to player-1, got %s", state.LastModifiedBy)
	}
	if state.Version != 2 {
		t.Errorf("Expected jackpot version 2, got %d", state.Version)
	}

	history, _ := ledger.JackpotHistory(ctx, 10)
	if len(history) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(history))
	}
	entry := history[0]
	if entry.ActionType != models.ActionIncrement || entry.ActorID != "player-1" {
		t.Errorf("Expected INCREMENT by player-1, got %s by %s", entry.ActionType, entry.ActorID)
	}
	if !amountsEqual(entry.PreviousAmount, 100.0) || !amountsEqual(entry.NewAmount, 100.001) {
		t.Errorf("Expected 100.0 -> 100.001, got %.3f -> %.3f", entry.PreviousAmount, entry.NewAmount)
	}
	if publisher.count() != 1 {
		t.Errorf("Expected 1 published event, got %d", publisher.count())
	}
}

func TestGameService_ResolveClick_Win(t *testing.T) {
	game, ledger, _ := newTestGame(fixedSource{x: 250, y: 750})
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	// Grow the pot first so the win pays more than the base amount.
	if _, err := game.ResolveClick(ctx, 0, 0, "loser", now); err != nil {
		t.Fatalf("Miss click failed: %v", err)
	}

	outcome, err := game.ResolveClick(ctx, 250, 750, "winner", now)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if outcome.Result != models.ClickResultWin {
		t.Fatalf("Expected WIN, got %s", outcome.Result)
	}
	if outcome.Distance != 0 {
		t.Errorf("Expected distance 0, got %.3f", outcome.Distance)
	}
	if !amountsEqual(outcome.WonAmount, 100.001) {
		t.Errorf("Expected won amount 100.001, got %.3f", outcome.WonAmount)
	}
	if !amountsEqual(outcome.NewAmount, 100.0) {
		t.Errorf("Expected jackpot reset to 100.0, got %.3f", outcome.NewAmount)
	}

	state, _ := ledger.GetJackpot(ctx)
	if !amountsEqual(state.CurrentAmount, 100.0) || state.LastModifiedBy != "winner" {
		t.Errorf("Expected jackpot 100.0 attributed to winner, got %.3f by %s", state.CurrentAmount, state.LastModifiedBy)
	}

	history, _ := ledger.JackpotHistory(ctx, 10)
	if len(history) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(history))
	}
	win := history[0]
	if win.ActionType != models.ActionJackpotWin || win.ActorID != "winner" {
		t.Errorf("Expected JACKPOT_WIN by winner, got %s by %s", win.ActionType, win.ActorID)
	}
	if !amountsEqual(win.PreviousAmount, 100.001) || !amountsEqual(win.NewAmount, 100.0) {
		t.Errorf("Expected 100.001 -> 100.0, got %.3f -> %.3f", win.PreviousAmount, win.NewAmount)
	}

	// The win retires the day's target: same date, version bumped.
	target, err := ledger.GetOrCreateDailyTarget(ctx, models.DayKey(now), 0, 0)
	if err != nil {
		t.Fatalf("GetOrCreateDailyTarget failed: %v", err)
	}
	if target.Version != 2 {
		t.Errorf("Expected target version 2 after win, got %d", target.Version)
	}
	if target.X < 0 || target.X >= models.GridSize || target.Y < 0 || target.Y >= models.GridSize {
		t.Errorf("Rotated target out of range: (%d, %d)", target.X, target.Y)
	}
}

func TestGameService_ResolveClick_AttemptLimit(t *testing.T) {
	game, ledger, _ := newTestGame(fixedSource{x: 500, y: 500})
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	if _, err := game.ResolveClick(ctx, 1, 1, "player-1", now); err != nil {
		t.Fatalf("First click failed: %v", err)
	}

	t.Run("second click same day is rejected", func(t *testing.T) {
		outcome, err := game.ResolveClick(ctx, 500, 500, "player-1", now.Add(time.Hour))
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if outcome.Result != models.ClickResultRejected || outcome.Reason != models.RejectionAttemptLimit {
			t.Errorf("Expected ATTEMPT_LIMIT rejection, got %+v", outcome)
		}

		state, _ := ledger.GetJackpot(ctx)
		if !amountsEqual(state.CurrentAmount, 100.001) {
			t.Errorf("Rejected click must not mutate jackpot, got %.3f", state.CurrentAmount)
		}
		history, _ := ledger.JackpotHistory(ctx, 10)
		if len(history) != 1 {
			t.Errorf("Rejected click must not append history, got %d entries", len(history))
		}
	})

	t.Run("next day is a fresh attempt", func(t *testing.T) {
		outcome, err := game.ResolveClick(ctx, 1, 1, "player-1", now.AddDate(0, 0, 1))
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if outcome.Result != models.ClickResultMiss {
			t.Errorf("Expected MISS on the next day, got %s", outcome.Result)
		}
	})
}

// TestGameService_Scenario walks the reference sequence: a miss, a repeat
// rejection, then a winning click by another caller.
func TestGameService_Scenario(t *testing.T) {
	game, ledger, _ := newTestGame(fixedSource{x: 500, y: 500})
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	outcome, err := game.ResolveClick(ctx, 0, 0, "caller-a", now)
	if err != nil || outcome.Result != models.ClickResultMiss {
		t.Fatalf("Expected MISS for caller-a, got %+v err %v", outcome, err)
	}
	if !amountsEqual(outcome.NewAmount, 100.001) {
		t.Fatalf("Expected jackpot 100.001, got %.3f", outcome.NewAmount)
	}

	outcome, err = game.ResolveClick(ctx, 500, 500, "caller-a", now)
	if err != nil || outcome.Result != models.ClickResultRejected {
		t.Fatalf("Expected rejection for caller-a repeat, got %+v err %v", outcome, err)
	}
	state, _ := ledger.GetJackpot(ctx)
	if !amountsEqual(state.CurrentAmount, 100.001) {
		t.Fatalf("Jackpot must still be 100.001, got %.3f", state.CurrentAmount)
	}

	outcome, err = game.ResolveClick(ctx, 500, 500, "caller-b", now)
	if err != nil || outcome.Result != models.ClickResultWin {
		t.Fatalf("Expected WIN for caller-b, got %+v err %v", outcome, err)
	}
	if !amountsEqual(outcome.WonAmount, 100.001) {
		t.Errorf("Expected won amount 100.001, got %.3f", outcome.WonAmount)
	}
	state, _ = ledger.GetJackpot(ctx)
	if !amountsEqual(state.CurrentAmount, 100.0) {
		t.Errorf("Expected jackpot reset to 100.0, got %.3f", state.CurrentAmount)
	}
	target, _ := ledger.GetOrCreateDailyTarget(ctx, models.DayKey(now), 0, 0)
	if target.Version != 2 {
		t.Errorf("Expected target version 2, got %d", target.Version)
	}
}

func TestGameService_ConcurrentMisses(t *testing.T) {
	game, ledger, _ := newTestGame(fixedSource{x: 500, y: 500})
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	const callers = 100
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			identifier := "caller-" + strconv.Itoa(n)
			if _, err := game.ResolveClick(ctx, 0, 0, identifier, now); err != nil {
				t.Errorf("Click %d failed: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	state, _ := ledger.GetJackpot(ctx)
	expected := 100.0
	for i := 0; i < callers; i++ {
		expected = utils.Round3(expected + testGameConfig.ClickDelta)
	}
	if !amountsEqual(state.CurrentAmount, expected) {
		t.Errorf("Expected jackpot %.3f after %d misses, got %.3f", expected, callers, state.CurrentAmount)
	}
	history, _ := ledger.JackpotHistory(ctx, callers+1)
	if len(history) != callers {
		t.Errorf("Expected %d INCREMENT entries, got %d", callers, len(history))
	}
	if state.Version != int64(callers)+1 {
		t.Errorf("Expected version %d, got %d", callers+1, state.Version)
	}
}

// TestGameService_ConcurrentSameIdentifier races one identifier; exactly one
// click may be accepted regardless of how the pre-check interleaves.
func TestGameService_ConcurrentSameIdentifier(t *testing.T) {
	game, ledger, _ := newTestGame(fixedSource{x: 500, y: 500})
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	const racers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	rejected := 0
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := game.ResolveClick(ctx, 0, 0, "racer", now)
			if err != nil {
				t.Errorf("Click failed: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch outcome.Result {
			case models.ClickResultMiss:
				accepted++
			case models.ClickResultRejected:
				if outcome.Reason != models.RejectionAttemptLimit {
					t.Errorf("Unexpected rejection reason %s", outcome.Reason)
				}
				rejected++
			default:
				t.Errorf("Unexpected result %s", outcome.Result)
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Errorf("Expected exactly 1 accepted click, got %d", accepted)
	}
	if rejected != racers-1 {
		t.Errorf("Expected %d rejections, got %d", racers-1, rejected)
	}
	state, _ := ledger.GetJackpot(ctx)
	if !amountsEqual(state.CurrentAmount, 100.001) {
		t.Errorf("Expected jackpot 100.001 after one accepted miss, got %.3f", state.CurrentAmount)
	}
}
