package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/seedkey"
)

const testMask = uint32(0x04C11DB7)

// scriptSource replays a fixed seed list, repeating the last entry.
type scriptSource struct {
	seeds []uint32
}

func (ss *scriptSource) Seed32() (seed uint32, err error) {
	seed = ss.seeds[0]
	if len(ss.seeds) > 1 {
		ss.seeds = ss.seeds[1:]
	}

	return
}

type testClock struct {
	now time.Time
}

func (tc *testClock) Now() time.Time {
	return tc.now
}

func (tc *testClock) Advance(dt time.Duration) {
	tc.now = tc.now.Add(dt)
}

func newTestManager(seeds ...uint32) (*Manager, *testClock) {
	clock := &testClock{now: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)}
	if len(seeds) == 0 {
		seeds = []uint32{0x600D5EED}
	}

	mgr := NewManager(Config{
		Source: &scriptSource{seeds: seeds},
		Now:    clock.Now,
	})

	return mgr, clock
}

func TestManager_Exchange(t *testing.T) {
	assert := assert.New(t)

	mgr, _ := newTestManager(0x600D5EED)
	assert.NoError(mgr.AddLevel(1, LevelConfig{Transform: seedkey.NewShiftXor(testMask)}))

	assert.False(mgr.Unlocked(1))

	seed, err := mgr.RequestSeed(1)
	assert.NoError(err)
	assert.Equal(uint32(0x600D5EED), seed)

	assert.NoError(mgr.SubmitKey(1, seedkey.SeedToKey(seed, testMask)))
	assert.True(mgr.Unlocked(1))

	// Unlocked levels reply with seed 0.
	seed, err = mgr.RequestSeed(1)
	assert.NoError(err)
	assert.Equal(uint32(0), seed)

	// No challenge is pending once unlocked.
	assert.ErrorIs(mgr.SubmitKey(1, 0), ErrSequence)
}

func TestManager_LevelUnknown(t *testing.T) {
	assert := assert.New(t)

	mgr, _ := newTestManager()
	assert.NoError(mgr.AddLevel(1, LevelConfig{Transform: seedkey.NewShiftXor(testMask)}))

	_, err := mgr.RequestSeed(3)
	assert.ErrorIs(err, ErrLevelUnknown)
	assert.ErrorIs(mgr.SubmitKey(3, 0), ErrLevelUnknown)
}

func TestManager_AddLevel(t *testing.T) {
	assert := assert.New(t)

	mgr, _ := newTestManager()

	assert.ErrorIs(mgr.AddLevel(2, LevelConfig{Transform: seedkey.NewShiftXor(testMask)}), ErrLevelEven)
	assert.ErrorIs(mgr.AddLevel(1, LevelConfig{}), ErrTransformMissing)

	for _, level := range []Level{5, 1, 3} {
		assert.NoError(mgr.AddLevel(level, LevelConfig{Transform: seedkey.NewShiftXor(testMask)}))
	}
	assert.Equal([]Level{1, 3, 5}, mgr.Levels())
}

func TestManager_SubmitWithoutSeed(t *testing.T) {
	assert := assert.New(t)

	mgr, _ := newTestManager()
	assert.NoError(mgr.AddLevel(1, LevelConfig{Transform: seedkey.NewShiftXor(testMask)}))

	assert.ErrorIs(mgr.SubmitKey(1, 0x12345678), ErrSequence)
}

func TestManager_Lockout(t *testing.T) {
	assert := assert.New(t)

	mgr, clock := newTestManager(0x600D5EED)
	assert.NoError(mgr.AddLevel(1, LevelConfig{Transform: seedkey.NewShiftXor(testMask)}))

	seed, err := mgr.RequestSeed(1)
	assert.NoError(err)

	bad := seedkey.SeedToKey(seed, testMask) ^ 1
	assert.ErrorIs(mgr.SubmitKey(1, bad), ErrInvalidKey)
	assert.ErrorIs(mgr.SubmitKey(1, bad), ErrInvalidKey)
	assert.ErrorIs(mgr.SubmitKey(1, bad), ErrAttemptsExceeded)

	// The delay gates both sides of the exchange.
	_, err = mgr.RequestSeed(1)
	assert.ErrorIs(err, ErrDelayActive)
	assert.ErrorIs(mgr.SubmitKey(1, bad), ErrDelayActive)

	clock.Advance(DefaultDelay)

	// Lockout cleared the pending challenge.
	assert.ErrorIs(mgr.SubmitKey(1, bad), ErrSequence)

	seed, err = mgr.RequestSeed(1)
	assert.NoError(err)
	assert.NoError(mgr.SubmitKey(1, seedkey.SeedToKey(seed, testMask)))
	assert.True(mgr.Unlocked(1))
}

func TestManager_AttemptsPersist(t *testing.T) {
	assert := assert.New(t)

	mgr, _ := newTestManager(0x11111111, 0x22222222, 0x33333333)
	assert.NoError(mgr.AddLevel(1, LevelConfig{Transform: seedkey.NewShiftXor(testMask)}))

	// Re-requesting a seed does not reset the attempt counter.
	for _, want := range []error{ErrInvalidKey, ErrInvalidKey, ErrAttemptsExceeded} {
		seed, err := mgr.RequestSeed(1)
		assert.NoError(err)
		assert.ErrorIs(mgr.SubmitKey(1, seedkey.SeedToKey(seed, testMask)^1), want)
	}
}

func TestManager_Supersede(t *testing.T) {
	assert := assert.New(t)

	mgr, _ := newTestManager(0x11111111, 0x22222222)
	assert.NoError(mgr.AddLevel(1, LevelConfig{Transform: seedkey.NewShiftXor(testMask)}))

	first, err := mgr.RequestSeed(1)
	assert.NoError(err)
	assert.Equal(uint32(0x11111111), first)

	second, err := mgr.RequestSeed(1)
	assert.NoError(err)
	assert.Equal(uint32(0x22222222), second)

	// The superseded challenge's key no longer matches.
	assert.ErrorIs(mgr.SubmitKey(1, seedkey.SeedToKey(first, testMask)), ErrInvalidKey)

	assert.NoError(mgr.SubmitKey(1, seedkey.SeedToKey(second, testMask)))
	assert.True(mgr.Unlocked(1))
}

func TestManager_SeedExpired(t *testing.T) {
	assert := assert.New(t)

	mgr, clock := newTestManager(0x600D5EED)
	assert.NoError(mgr.AddLevel(1, LevelConfig{Transform: seedkey.NewShiftXor(testMask)}))

	seed, err := mgr.RequestSeed(1)
	assert.NoError(err)

	clock.Advance(DefaultSeedTTL + time.Second)

	assert.ErrorIs(mgr.SubmitKey(1, seedkey.SeedToKey(seed, testMask)), ErrSeedExpired)

	// Expiry clears the challenge.
	assert.ErrorIs(mgr.SubmitKey(1, seedkey.SeedToKey(seed, testMask)), ErrSequence)
}

func TestManager_Relock(t *testing.T) {
	assert := assert.New(t)

	mgr, _ := newTestManager(0x11111111, 0x22222222)
	assert.NoError(mgr.AddLevel(1, LevelConfig{Transform: seedkey.NewShiftXor(testMask)}))

	seed, err := mgr.RequestSeed(1)
	assert.NoError(err)
	assert.NoError(mgr.SubmitKey(1, seedkey.SeedToKey(seed, testMask)))
	assert.True(mgr.Unlocked(1))

	mgr.Relock(1)
	assert.False(mgr.Unlocked(1))

	// A fresh exchange starts over.
	seed, err = mgr.RequestSeed(1)
	assert.NoError(err)
	assert.Equal(uint32(0x22222222), seed)
}

func TestManager_Events(t *testing.T) {
	assert := assert.New(t)

	clock := &testClock{now: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)}
	var events []Event

	mgr := NewManager(Config{
		Source: &scriptSource{seeds: []uint32{0x600D5EED}},
		Now:    clock.Now,
		Events: func(event Event) { events = append(events, event) },
	})
	assert.NoError(mgr.AddLevel(1, LevelConfig{Transform: seedkey.NewShiftXor(testMask), MaxAttempts: 2}))

	seed, err := mgr.RequestSeed(1)
	assert.NoError(err)

	key := seedkey.SeedToKey(seed, testMask)
	assert.ErrorIs(mgr.SubmitKey(1, key^1), ErrInvalidKey)
	assert.ErrorIs(mgr.SubmitKey(1, key^1), ErrAttemptsExceeded)

	clock.Advance(DefaultDelay)

	seed, err = mgr.RequestSeed(1)
	assert.NoError(err)
	assert.NoError(mgr.SubmitKey(1, seedkey.SeedToKey(seed, testMask)))
	mgr.Relock(1)

	actions := []Action{}
	for _, event := range events {
		assert.Equal(Level(1), event.Level)
		assert.False(event.At.IsZero())
		assert.False(event.At.After(clock.now))
		actions = append(actions, event.Action)
	}

	assert.Equal([]Action{
		ActionSeedIssued,
		ActionKeyRejected,
		ActionLockout,
		ActionSeedIssued,
		ActionKeyAccepted,
		ActionRelock,
	}, actions)

	assert.Equal(uint32(0x600D5EED), events[0].Seed)
	assert.Equal(uint32(0), events[5].Seed)
}
