// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// seedkeyd answers UDS SecurityAccess exchanges over the framed
// diagnostic protocol. Configuration comes from SEEDKEYD_* environment
// variables; `-v` enables exchange logging on top of the environment.
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ezrec/seedkey"
	"github.com/ezrec/seedkey/access"
	"github.com/ezrec/seedkey/audit"
	"github.com/ezrec/seedkey/diag"
)

// hex32 accepts "0x"-prefixed (or decimal) 32-bit environment values.
type hex32 uint32

func (h *hex32) UnmarshalText(text []byte) (err error) {
	value, err := strconv.ParseUint(string(text), 0, 32)
	if err != nil {
		return
	}
	*h = hex32(value)

	return
}

type config struct {
	Addr          string        `env:"SEEDKEYD_ADDR" envDefault:":13400"`
	Level         uint8         `env:"SEEDKEYD_LEVEL" envDefault:"1"`
	Mask          hex32         `env:"SEEDKEYD_MASK" envDefault:"0x04C11DB7"`
	Transform     string        `env:"SEEDKEYD_TRANSFORM" envDefault:"shiftxor"`
	MaxAttempts   int           `env:"SEEDKEYD_MAX_ATTEMPTS"`
	Delay         time.Duration `env:"SEEDKEYD_DELAY"`
	SeedTTL       time.Duration `env:"SEEDKEYD_SEED_TTL"`
	AuditPath     string        `env:"SEEDKEYD_AUDIT_PATH"`
	MaxConns      int           `env:"SEEDKEYD_MAX_CONNS"`
	IdleTimeout   time.Duration `env:"SEEDKEYD_IDLE_TIMEOUT" envDefault:"5m"`
	GrantKey      string        `env:"SEEDKEYD_GRANT_KEY"` // base64 ed25519 seed
	GrantIssuer   string        `env:"SEEDKEYD_GRANT_ISSUER" envDefault:"seedkeyd"`
	GrantAudience string        `env:"SEEDKEYD_GRANT_AUDIENCE" envDefault:"diag"`
	GrantTTL      time.Duration `env:"SEEDKEYD_GRANT_TTL"`
	Verbose       bool          `env:"SEEDKEYD_VERBOSE"`
}

func granter(cfg *config) *access.Granter {
	if cfg.GrantKey == "" {
		return nil
	}

	seed, err := base64.StdEncoding.DecodeString(cfg.GrantKey)
	if err != nil {
		log.Fatalf("SEEDKEYD_GRANT_KEY: %v", err)
	}
	if len(seed) != ed25519.SeedSize {
		log.Fatalf("SEEDKEYD_GRANT_KEY: need %v key bytes, got %v", ed25519.SeedSize, len(seed))
	}

	return &access.Granter{
		Issuer:   cfg.GrantIssuer,
		Audience: cfg.GrantAudience,
		Key:      ed25519.NewKeyFromSeed(seed),
		TTL:      cfg.GrantTTL,
	}
}

// recorder forwards manager events to the audit store. Events arrive
// outside the manager lock, so Record may hit SQLite freely.
func recorder(store *audit.Store) func(access.Event) {
	return func(event access.Event) {
		err := store.Record(context.Background(), audit.Entry{
			At:     event.At,
			Level:  uint8(event.Level),
			Action: string(event.Action),
			Seed:   event.Seed,
			Detail: event.Detail,
		})
		if err != nil {
			log.Printf("seedkeyd: audit: %v", err)
		}
	}
}

func main() {
	var cfg config
	err := env.Parse(&cfg)
	if err != nil {
		log.Fatalf("seedkeyd: %v", err)
	}

	var verbose bool
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}
	cfg.Verbose = cfg.Verbose || verbose

	tr, err := seedkey.New(cfg.Transform, uint32(cfg.Mask))
	if err != nil {
		log.Fatalf("SEEDKEYD_TRANSFORM %v: %v", cfg.Transform, err)
	}

	var managerConfig access.Config
	if cfg.AuditPath != "" {
		store, err := audit.Open(cfg.AuditPath)
		if err != nil {
			log.Fatalf("%v: %v", cfg.AuditPath, err)
		}
		defer store.Close()

		managerConfig.Events = recorder(store)
	}

	manager := access.NewManager(managerConfig)
	err = manager.AddLevel(access.Level(cfg.Level), access.LevelConfig{
		Transform:   tr,
		MaxAttempts: cfg.MaxAttempts,
		Delay:       cfg.Delay,
		SeedTTL:     cfg.SeedTTL,
	})
	if err != nil {
		log.Fatalf("SEEDKEYD_LEVEL %v: %v", cfg.Level, err)
	}

	server := &diag.Server{
		Manager:     manager,
		Granter:     granter(&cfg),
		Verbose:     cfg.Verbose,
		MaxConns:    cfg.MaxConns,
		IdleTimeout: cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("seedkeyd: serving level %v (%v) on %v", cfg.Level, tr.Name(), cfg.Addr)

	err = server.ListenAndServe(ctx, cfg.Addr)
	if err != nil {
		log.Fatalf("seedkeyd: %v", err)
	}

	log.Printf("seedkeyd: shutdown")
}
