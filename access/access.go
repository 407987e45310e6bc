// Package access implements UDS SecurityAccess session state:
// seed/key challenge sequencing, attempt limiting, lockout delays,
// and signed unlock grants.
package access

import (
	"time"

	"github.com/ezrec/seedkey"
	"github.com/ezrec/seedkey/entropy"
)

// Level identifies a security-access level. Odd levels request
// seeds; on the wire, level+1 submits the matching key.
type Level uint8

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 10 * time.Second
	DefaultSeedTTL     = 5 * time.Minute
)

// LevelConfig describes one security-access level.
type LevelConfig struct {
	Transform   seedkey.Transform // Key derivation for this level.
	MaxAttempts int               // Failures before lockout (default 3).
	Delay       time.Duration     // Lockout duration (default 10s).
	SeedTTL     time.Duration     // Pending seed lifetime (default 5m).
}

// Config configures a Manager.
type Config struct {
	Source entropy.Source   // Challenge source (default entropy.Crypto).
	Now    func() time.Time // Clock (default time.Now).
	Events func(Event)      // Optional hook, called outside the manager lock.
}
