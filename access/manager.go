package access

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/ezrec/seedkey/entropy"
)

type levelState struct {
	config     LevelConfig
	seed       uint32    // Pending challenge; 0 when none.
	issued     time.Time // When the pending challenge was issued.
	attempts   int       // Consecutive rejected keys.
	delayUntil time.Time
	unlocked   bool
}

// Manager tracks seed/key exchange state per level. It is safe for
// concurrent use.
type Manager struct {
	mu     sync.Mutex
	source entropy.Source
	now    func() time.Time
	events func(Event)
	levels map[Level]*levelState
}

func NewManager(config Config) *Manager {
	mgr := &Manager{
		source: config.Source,
		now:    config.Now,
		events: config.Events,
		levels: map[Level]*levelState{},
	}

	if mgr.source == nil {
		mgr.source = &entropy.Crypto{}
	}
	if mgr.now == nil {
		mgr.now = time.Now
	}

	return mgr
}

// AddLevel registers an odd request level. Even values are key
// submissions for level-1 and cannot be registered. Re-adding a
// level replaces its configuration and resets its state.
func (mgr *Manager) AddLevel(level Level, config LevelConfig) (err error) {
	if level%2 == 0 {
		return ErrLevelEven
	}
	if config.Transform == nil {
		return ErrTransformMissing
	}

	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.Delay <= 0 {
		config.Delay = DefaultDelay
	}
	if config.SeedTTL <= 0 {
		config.SeedTTL = DefaultSeedTTL
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.levels[level] = &levelState{config: config}

	return
}

// Levels returns the registered request levels, sorted.
func (mgr *Manager) Levels() (levels []Level) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	return slices.Sorted(maps.Keys(mgr.levels))
}

// RequestSeed issues a fresh challenge for a level. An unlocked
// level replies with seed 0. A re-request supersedes any pending
// challenge.
func (mgr *Manager) RequestSeed(level Level) (seed uint32, err error) {
	mgr.mu.Lock()
	seed, event, err := mgr.requestSeed(level)
	mgr.mu.Unlock()

	mgr.emit(event)

	return seed, err
}

func (mgr *Manager) requestSeed(level Level) (seed uint32, event *Event, err error) {
	state, ok := mgr.levels[level]
	if !ok {
		err = ErrLevelUnknown
		return
	}

	now := mgr.now()
	if now.Before(state.delayUntil) {
		err = ErrDelayActive
		return
	}

	if state.unlocked {
		return
	}

	seed, err = mgr.source.Seed32()
	if err != nil {
		return
	}

	state.seed = seed
	state.issued = now
	event = &Event{At: now, Level: level, Action: ActionSeedIssued, Seed: seed}

	return
}

// SubmitKey checks a key against the pending challenge for a level.
// Rejected keys count toward the level's attempt limit; reaching the
// limit clears the challenge and starts the lockout delay.
func (mgr *Manager) SubmitKey(level Level, key uint32) (err error) {
	mgr.mu.Lock()
	event, err := mgr.submitKey(level, key)
	mgr.mu.Unlock()

	mgr.emit(event)

	return err
}

func (mgr *Manager) submitKey(level Level, key uint32) (event *Event, err error) {
	state, ok := mgr.levels[level]
	if !ok {
		err = ErrLevelUnknown
		return
	}

	now := mgr.now()
	if now.Before(state.delayUntil) {
		err = ErrDelayActive
		return
	}

	if state.seed == 0 {
		err = ErrSequence
		return
	}

	seed := state.seed
	if now.Sub(state.issued) > state.config.SeedTTL {
		state.seed = 0
		err = ErrSeedExpired
		return
	}

	want, err := state.config.Transform.Derive(seed)
	if err != nil {
		return
	}

	if key != want {
		state.attempts++
		if state.attempts >= state.config.MaxAttempts {
			state.attempts = 0
			state.seed = 0
			state.delayUntil = now.Add(state.config.Delay)
			event = &Event{At: now, Level: level, Action: ActionLockout, Seed: seed}
			err = ErrAttemptsExceeded
			return
		}
		event = &Event{At: now, Level: level, Action: ActionKeyRejected, Seed: seed}
		err = ErrInvalidKey
		return
	}

	state.unlocked = true
	state.seed = 0
	state.attempts = 0
	event = &Event{At: now, Level: level, Action: ActionKeyAccepted, Seed: seed}

	return
}

// Unlocked reports whether a level has completed its key exchange.
func (mgr *Manager) Unlocked(level Level) (unlocked bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	state, ok := mgr.levels[level]
	if ok {
		unlocked = state.unlocked
	}

	return
}

// Relock drops an unlocked level back to locked.
func (mgr *Manager) Relock(level Level) {
	mgr.mu.Lock()
	state, ok := mgr.levels[level]

	var event *Event
	if ok && state.unlocked {
		state.unlocked = false
		state.seed = 0
		state.attempts = 0
		event = &Event{At: mgr.now(), Level: level, Action: ActionRelock}
	}
	mgr.mu.Unlock()

	mgr.emit(event)
}

func (mgr *Manager) emit(event *Event) {
	if event == nil || mgr.events == nil {
		return
	}

	mgr.events(*event)
}
