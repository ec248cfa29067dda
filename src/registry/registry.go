package registry

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/raulisai/Gateway-IA/src/models"
)

// snapshot is never mutated after it is published.
type snapshot struct {
	ordered []models.ModelDefinition
	byID    map[string]int
	digest  [sha256.Size]byte
	version uint64
}

// Registry serves model definitions from an immutable snapshot swapped
// atomically on reload. Readers never take a lock.
type Registry struct {
	path     string
	current  atomic.Pointer[snapshot]
	reloadMu sync.Mutex
	logger   *zap.Logger

	// OnReload, when set before Watch, runs after each reload that changed
	// the snapshot.
	OnReload func(version uint64)
}

// New loads the registry file at path. The initial load must succeed.
func New(path string, logger *zap.Logger) (*Registry, error) {
	r := &Registry{path: path, logger: logger}
	if _, err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewStatic builds a registry from an in-memory list. Reload is a no-op.
func NewStatic(defs []models.ModelDefinition, logger *zap.Logger) *Registry {
	r := &Registry{logger: logger}
	r.current.Store(buildSnapshot(defs, 1, [sha256.Size]byte{}, logger))
	return r
}

func (r *Registry) Get(id string) (models.ModelDefinition, bool) {
	snap := r.current.Load()
	i, ok := snap.byID[id]
	if !ok {
		return models.ModelDefinition{}, false
	}
	return snap.ordered[i], true
}

// List returns the models for provider in registry order, or every model
// when provider is empty.
func (r *Registry) List(provider string) []models.ModelDefinition {
	snap := r.current.Load()
	out := make([]models.ModelDefinition, 0, len(snap.ordered))
	for _, def := range snap.ordered {
		if provider == "" || def.Provider == provider {
			out = append(out, def)
		}
	}
	return out
}

func (r *Registry) Version() uint64 {
	return r.current.Load().version
}

// Reload re-reads the source file and publishes a new snapshot when its
// contents changed. On error the previous snapshot stays in place.
func (r *Registry) Reload() (bool, error) {
	if r.path == "" {
		return false, nil
	}

	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		return false, fmt.Errorf("failed to read model registry: %w", err)
	}

	digest := sha256.Sum256(data)
	prev := r.current.Load()
	if prev != nil && prev.digest == digest {
		return false, nil
	}

	defs, err := decodeModels(r.path, data, r.logger)
	if err != nil {
		return false, err
	}

	var version uint64 = 1
	if prev != nil {
		version = prev.version + 1
	}
	next := buildSnapshot(defs, version, digest, r.logger)
	r.current.Store(next)

	r.logger.Info("model registry loaded",
		zap.String("path", r.path),
		zap.Int("models", len(next.ordered)),
		zap.Uint64("version", version))
	return true, nil
}

func buildSnapshot(defs []models.ModelDefinition, version uint64, digest [sha256.Size]byte, logger *zap.Logger) *snapshot {
	snap := &snapshot{
		ordered: make([]models.ModelDefinition, 0, len(defs)),
		byID:    make(map[string]int, len(defs)),
		digest:  digest,
		version: version,
	}
	for _, def := range defs {
		if err := validate(def); err != nil {
			logger.Warn("skipping invalid registry entry", zap.Error(err))
			continue
		}
		if _, dup := snap.byID[def.ID]; dup {
			logger.Warn("skipping duplicate registry entry", zap.String("model", def.ID))
			continue
		}
		if def.UpstreamModelID == "" {
			def.UpstreamModelID = def.ID
		}
		snap.byID[def.ID] = len(snap.ordered)
		snap.ordered = append(snap.ordered, def)
	}
	return snap
}
