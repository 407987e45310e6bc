package access

import (
	"time"
)

// Action labels an access event.
type Action string

const (
	ActionSeedIssued  Action = "seed_issued"
	ActionKeyAccepted Action = "key_accepted"
	ActionKeyRejected Action = "key_rejected"
	ActionLockout     Action = "lockout"
	ActionRelock      Action = "relock"
)

// Event records one access state change.
type Event struct {
	At     time.Time
	Level  Level
	Action Action
	Seed   uint32 // Challenge in play, if any.
	Detail string
}
