package services

import (
	"github.com/pixelpot/pixelpot-backend/internal/models"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure LogPublisher implements EventPublisher
var _ EventPublisher = (*LogPublisher)(nil)

// LogPublisher is the default EventPublisher. The real-time fan-out to
// subscribers lives in the external transport layer; until one is attached,
// committed mutations are surfaced on the log.
type LogPublisher struct{}

// NewLogPublisher creates a new LogPublisher
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

// Publish logs the committed mutation.
func (p *LogPublisher) Publish(event models.GameEvent) {
	slog.Info("Jackpot event",
		"type", event.Type,
		"actor", event.ActorID,
		"previousAmount", event.PreviousAmount,
		"newAmount", event.NewAmount,
	)
}
