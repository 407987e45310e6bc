// Package entropy provides challenge seed sources.
package entropy

// Source produces 32-bit challenge seeds. A Source never returns
// zero; zero marks an unlocked level on the wire.
type Source interface {
	Seed32() (seed uint32, err error)
}
