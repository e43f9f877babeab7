package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SystemActorID is the reserved actor recorded for mutations performed by the
// scheduler rather than a caller.
const SystemActorID = "system"

// JackpotActionType represents the kind of jackpot mutation recorded in the history log
type JackpotActionType string

const (
	ActionIncrement     JackpotActionType = "INCREMENT"
	ActionAutoIncrement JackpotActionType = "AUTO_INCREMENT"
	ActionJackpotWin    JackpotActionType = "JACKPOT_WIN"
)

// JackpotState is the singleton jackpot row. It is created once with the base
// amount and afterwards only mutated inside a ledger mutation unit; Version
// increases by exactly one on every committed mutation.
type JackpotState struct {
	ID             string    `bson:"_id" json:"-"`
	CurrentAmount  float64   `bson:"currentAmount" json:"currentAmount"`
	LastUpdatedAt  time.Time `bson:"lastUpdatedAt" json:"lastUpdatedAt"`
	LastModifiedBy string    `bson:"lastModifiedBy" json:"lastModifiedBy"`
	Version        int64     `bson:"version" json:"version"`
}

// JackpotHistoryEntry records one jackpot mutation. Entries are append-only,
// one per committed mutation, and never updated or deleted, so the log is a
// total order of all amount transitions.
type JackpotHistoryEntry struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
	PreviousAmount float64            `bson:"previousAmount" json:"previousAmount"`
	NewAmount      float64            `bson:"newAmount" json:"newAmount"`
	ActionType     JackpotActionType  `bson:"actionType" json:"actionType"`
	ActorID        string             `bson:"actorId" json:"actorId"`
}
