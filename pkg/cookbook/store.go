package cookbook

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/jingkaihe/zigskill/pkg/cookbook/sqlite"
	"github.com/jingkaihe/zigskill/pkg/types/cookbook"
)

// IndexFileName is the canonical name of the generated recipe index
const IndexFileName = "recipes-index.json"

// Store defines the interface for recipe index access
type Store interface {
	// Read operations
	Recipes(ctx context.Context) ([]cookbook.Recipe, error)
	Get(ctx context.Context, id string) (cookbook.Recipe, error)
	Query(ctx context.Context, options cookbook.QueryOptions) (cookbook.QueryResult, error)
	Topics(ctx context.Context) (map[string]cookbook.TopicInfo, error)
	TagCounts(ctx context.Context) ([]cookbook.TagCount, error)

	// ReplaceAll atomically replaces the stored index with a freshly
	// built one
	ReplaceAll(ctx context.Context, index *cookbook.Index) error

	// Lifecycle methods
	Close() error
}

// Config holds configuration for the recipe store
type Config struct {
	Backend    string // "json" or "sqlite"
	RecipesDir string // Directory containing topic markdown files and the index
	DBPath     string // SQLite database path, used by the sqlite backend
}

// DefaultConfig returns the default store configuration for a skill root
func DefaultConfig(skillRoot string) *Config {
	recipesDir := filepath.Join(skillRoot, "recipes")
	return &Config{
		Backend:    "json",
		RecipesDir: recipesDir,
		DBPath:     filepath.Join(recipesDir, "recipes.db"),
	}
}

// NewStore creates the appropriate Store implementation based on the
// provided configuration
func NewStore(ctx context.Context, config *Config) (Store, error) {
	if config == nil {
		return nil, errors.New("store config is required")
	}

	switch config.Backend {
	case "", "json":
		return NewJSONStore(config.RecipesDir)
	case "sqlite":
		return sqlite.NewStore(ctx, config.DBPath)
	default:
		return nil, errors.Errorf("unsupported index backend: %s", config.Backend)
	}
}
