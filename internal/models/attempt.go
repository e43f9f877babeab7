package models

import "time"

// ClickAttempt records one accepted click for an identifier on a calendar day.
// Uniqueness on (Identifier, AttemptDate) is enforced by the ledger store and
// is the load-bearing mechanism of the once-per-day gate.
type ClickAttempt struct {
	Identifier  string    `bson:"identifier" json:"identifier"`
	AttemptDate string    `bson:"attemptDate" json:"attemptDate"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}
