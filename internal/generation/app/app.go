// Package app assembles the generation service from configuration: tracing,
// the SQLite session store, the in-memory registry, the pipeline
// orchestrator, and the artifact assembler. A transport host embeds App and
// exposes Service however it likes.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lunagrove/landingforge/internal/assembly"
	"github.com/lunagrove/landingforge/internal/generation/collab"
	"github.com/lunagrove/landingforge/internal/generation/orchestrator"
	"github.com/lunagrove/landingforge/internal/generation/registry"
	"github.com/lunagrove/landingforge/internal/generation/service"
	"github.com/lunagrove/landingforge/internal/generation/storage"
	"github.com/lunagrove/landingforge/internal/generation/storage/sqlite"
	"github.com/lunagrove/landingforge/internal/platform/config"
	"github.com/lunagrove/landingforge/internal/platform/otel"
)

const serviceName = "landingforge"

// Config is the process configuration, loaded from LANDINGFORGE_* variables.
type Config struct {
	// DBPath locates the SQLite session database. Empty disables persistence;
	// terminal sessions are then only readable until registry eviction.
	DBPath string `env:"LANDINGFORGE_DB_PATH"`
	// StorageRoot is the directory landings are assembled under.
	StorageRoot string `env:"LANDINGFORGE_STORAGE_ROOT" envDefault:"./data/landings"`
	// SessionRetention bounds how long terminal sessions stay in memory.
	SessionRetention time.Duration `env:"LANDINGFORGE_SESSION_RETENTION" envDefault:"30m"`
	// CleanupInterval bounds how often evicted registry entries are purged.
	CleanupInterval time.Duration `env:"LANDINGFORGE_CLEANUP_INTERVAL" envDefault:"5m"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// App bundles the wired generation service and its resources.
type App struct {
	Service *service.Service

	store        *sqlite.Store
	shutdownOtel func(context.Context) error
}

// New wires an App from cfg and the caller-supplied collaborator set.
func New(ctx context.Context, cfg Config, collaborators collab.Set) (*App, error) {
	shutdownOtel, err := otel.Setup(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	var store *sqlite.Store
	if cfg.DBPath != "" {
		store, err = sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
	} else {
		log.Printf("session persistence disabled db_path=empty")
	}

	asm, err := assembly.New(assembly.Config{Root: cfg.StorageRoot})
	if err != nil {
		return nil, fmt.Errorf("create assembler: %w", err)
	}

	orch, err := orchestrator.New(collaborators, asm)
	if err != nil {
		return nil, fmt.Errorf("create orchestrator: %w", err)
	}

	reg := registry.New(cfg.SessionRetention, cfg.CleanupInterval)

	svc, err := service.New(reg, orch, storeOrNil(store))
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	return &App{
		Service:      svc,
		store:        store,
		shutdownOtel: shutdownOtel,
	}, nil
}

// storeOrNil avoids wrapping a nil *sqlite.Store in a non-nil interface.
func storeOrNil(store *sqlite.Store) storage.SessionStore {
	if store == nil {
		return nil
	}
	return store
}

// Close releases the App's resources: the session store and the tracer
// provider's pending spans.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			firstErr = err
		}
	}
	if a.shutdownOtel != nil {
		if err := a.shutdownOtel(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
