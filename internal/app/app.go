// Package app wires configuration, adapters and core services into a
// running ragcore instance.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/badgerstore"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/services"
	"github.com/custodia-labs/ragcore/internal/logger"
	"github.com/custodia-labs/ragcore/internal/normalisers"
	"github.com/custodia-labs/ragcore/internal/postprocessors"
)

// App holds all application components and dependencies.
type App struct {
	ConfigDir string
	Config    *file.ConfigStore
	Settings  *services.SettingsService
	RAG       *services.RAGService

	// Warnings are non-fatal startup issues worth showing to the user.
	Warnings []string

	ai        *ai.Services
	store     *memory.ChunkStore
	snapshots driven.SnapshotStore
	autosave  *Autosaver
}

// NewSettingsOnly opens the configuration without starting any AI service.
// Settings commands use it so a broken provider can still be reconfigured.
func NewSettingsOnly(configDir string) (*App, error) {
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config directory: %w", err)
		}
		configDir = dir
	}

	cfg, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	return &App{
		ConfigDir: configDir,
		Config:    cfg,
		Settings:  services.NewSettingsService(cfg, ai.NewConfigValidator()),
	}, nil
}

// New builds a fully wired application and restores the saved index.
func New(ctx context.Context, configDir string) (*App, error) {
	a, err := NewSettingsOnly(configDir)
	if err != nil {
		return nil, err
	}

	settings, err := a.Settings.Get()
	if err != nil {
		return nil, err
	}
	if err := a.Settings.Validate(); err != nil {
		return nil, err
	}

	if err := a.initAI(ctx, settings); err != nil {
		return nil, err
	}
	if err := a.initStorage(ctx, settings); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if err := a.initServices(settings); err != nil {
		a.Close(ctx)
		return nil, err
	}

	if err := a.RAG.LoadIndex(ctx); err != nil {
		if !errors.Is(err, domain.ErrIndexCorruption) {
			a.Close(ctx)
			return nil, err
		}
		logger.Error(err, "Saved index is unusable, starting with an empty index")
		a.Warnings = append(a.Warnings, "saved index could not be loaded: "+err.Error())
	}

	return a, nil
}

func (a *App) initAI(ctx context.Context, settings *domain.AppSettings) error {
	logger.Section("AI Services")
	res, err := ai.Initialize(ctx, settings)
	if err != nil {
		return err
	}
	a.ai = res
	a.Warnings = append(a.Warnings, res.Warnings...)
	logger.Debug("Embedding model: %s (%d dimensions)",
		res.Embedder.ModelName(), res.Embedder.Dimensions())
	return nil
}

func (a *App) initStorage(ctx context.Context, settings *domain.AppSettings) error {
	dim := a.ai.Embedder.Dimensions()
	if dim <= 0 {
		// Unknown model: ask the provider once.
		probe, err := a.ai.Embedder.Embed(ctx, "dimension probe")
		if err != nil {
			return fmt.Errorf("%w: detect embedding dimension: %w", domain.ErrEmbeddingUnavailable, err)
		}
		dim = len(probe)
	}

	store, err := memory.NewChunkStore(dim)
	if err != nil {
		return err
	}
	a.store = store

	dataDir := settings.Storage.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(a.ConfigDir, "data")
	}

	switch settings.Storage.Backend {
	case domain.StorageSQLite:
		s, err := sqlite.NewStore(dataDir)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		a.snapshots = s
	case domain.StorageBadger:
		s, err := badgerstore.NewStore(filepath.Join(dataDir, "badger"))
		if err != nil {
			return fmt.Errorf("open badger store: %w", err)
		}
		a.snapshots = s
	case domain.StorageMemory:
		logger.Debug("Memory backend: index is not persisted")
	}
	logger.Debug("Storage backend: %s, data dir: %s", settings.Storage.Backend, dataDir)
	return nil
}

func (a *App) initServices(settings *domain.AppSettings) error {
	splitter, err := postprocessors.NewDefaultPipeline(settings.Chunker)
	if err != nil {
		return err
	}

	prompts, err := file.NewPromptStore(filepath.Join(a.ConfigDir, "prompts"))
	if err != nil {
		return err
	}

	opts := []services.RAGOption{
		services.WithExtractorRegistry(normalisers.NewDefaultRegistry()),
		services.WithPrompts(prompts),
		services.WithRetrievalSettings(settings.Retrieval),
		services.WithEmbeddingBatchSize(settings.Embedding.BatchSize),
	}
	if a.snapshots != nil {
		opts = append(opts, services.WithSnapshotStore(a.snapshots, settings.Storage.SaveOnWrite))
	}

	a.RAG, err = services.NewRAGService(splitter, a.ai.Embedder, a.store, a.ai.LLM, opts...)
	if err != nil {
		return err
	}

	if spec := settings.Storage.AutosaveSchedule; spec != "" && a.snapshots != nil {
		a.autosave = NewAutosaver(a.RAG)
		if err := a.autosave.Start(spec); err != nil {
			return err
		}
	}
	return nil
}

// Close saves the index and releases every resource. It is safe to call on a
// partially built App.
func (a *App) Close(ctx context.Context) {
	if a.autosave != nil {
		a.autosave.Stop()
	}
	if a.RAG != nil {
		if err := a.RAG.SaveIndex(ctx); err != nil {
			logger.Error(err, "Saving index on shutdown")
		}
	}
	if a.snapshots != nil {
		if err := a.snapshots.Close(); err != nil {
			logger.Warn("Closing snapshot store: %v", err)
		}
	}
	if a.ai != nil {
		a.ai.Close()
	}
}
