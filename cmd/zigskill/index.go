package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/zigskill/pkg/cookbook"
	"github.com/jingkaihe/zigskill/pkg/logger"
	"github.com/jingkaihe/zigskill/pkg/presenter"
)

// IndexBuildConfig holds configuration for the index build command
type IndexBuildConfig struct {
	RecipesDir   string
	Backend      string
	DBPath       string
	Watch        bool
	DebounceTime int
}

// NewIndexBuildConfig creates a new IndexBuildConfig with default values
func NewIndexBuildConfig() *IndexBuildConfig {
	return &IndexBuildConfig{
		Backend:      "json",
		DebounceTime: 500,
	}
}

// Validate validates the IndexBuildConfig and returns an error if invalid
func (c *IndexBuildConfig) Validate() error {
	switch c.Backend {
	case "json", "sqlite":
	default:
		return errors.Errorf("invalid backend %q, must be json or sqlite", c.Backend)
	}
	if c.DebounceTime < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	return nil
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the recipe index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the recipe index from topic markdown files",
	Long: `Scan the recipes directory for topic markdown files, parse the recipe
headings and metadata, and write the recipe index.

The json backend writes recipes-index.json next to the topic files; the
sqlite backend populates a queryable database instead. With --watch the
index is rebuilt whenever a topic file changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		config, err := getIndexBuildConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		if err := config.Validate(); err != nil {
			return err
		}

		if err := runIndexBuild(ctx, config); err != nil {
			return err
		}
		if config.Watch {
			return runIndexWatch(ctx, config)
		}
		return nil
	},
}

func init() {
	defaults := NewIndexBuildConfig()
	indexBuildCmd.Flags().StringP("output", "o", "", "Directory to write the index into (default: the recipes directory)")
	indexBuildCmd.Flags().String("backend", defaults.Backend, "Index backend (json, sqlite)")
	indexBuildCmd.Flags().Bool("watch", false, "Rebuild the index when topic files change")
	indexBuildCmd.Flags().Int("debounce", defaults.DebounceTime, "Debounce time in milliseconds for file change events")

	indexCmd.AddCommand(indexBuildCmd)
	rootCmd.AddCommand(indexCmd)
}

// getIndexBuildConfigFromFlags extracts index build configuration from
// command flags
func getIndexBuildConfigFromFlags(cmd *cobra.Command) (*IndexBuildConfig, error) {
	config := NewIndexBuildConfig()

	root, err := skillRootFromFlags(cmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to determine skill root")
	}

	storeDefaults := cookbook.DefaultConfig(root)
	config.RecipesDir = storeDefaults.RecipesDir
	config.DBPath = storeDefaults.DBPath

	if backend, err := cmd.Flags().GetString("backend"); err == nil && backend != "" {
		config.Backend = backend
	}
	if output, err := cmd.Flags().GetString("output"); err == nil && output != "" {
		config.DBPath = filepath.Join(output, "recipes.db")
	}
	if watch, err := cmd.Flags().GetBool("watch"); err == nil {
		config.Watch = watch
	}
	if debounce, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounce
	}

	return config, nil
}

func runIndexBuild(ctx context.Context, config *IndexBuildConfig) error {
	builder := cookbook.NewBuilder(config.RecipesDir)
	index, err := builder.Build(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to build recipe index")
	}

	outputDir := filepath.Dir(indexOutputPath(config))
	switch config.Backend {
	case "sqlite":
		store, err := cookbook.NewStore(ctx, &cookbook.Config{
			Backend:    "sqlite",
			RecipesDir: config.RecipesDir,
			DBPath:     config.DBPath,
		})
		if err != nil {
			return errors.Wrap(err, "failed to open sqlite index")
		}
		defer store.Close()

		if err := store.ReplaceAll(ctx, index); err != nil {
			return errors.Wrap(err, "failed to populate sqlite index")
		}
		presenter.Success(fmt.Sprintf("Indexed %d recipes across %d topics into %s",
			index.TotalRecipes, len(index.TopicInfo), config.DBPath))
	default:
		if err := cookbook.WriteIndex(outputDir, index); err != nil {
			return errors.Wrap(err, "failed to write recipe index")
		}
		presenter.Success(fmt.Sprintf("Indexed %d recipes across %d topics into %s",
			index.TotalRecipes, len(index.TopicInfo), filepath.Join(outputDir, cookbook.IndexFileName)))
	}

	return nil
}

func indexOutputPath(config *IndexBuildConfig) string {
	if config.Backend == "sqlite" {
		return config.DBPath
	}
	return filepath.Join(filepath.Dir(config.DBPath), cookbook.IndexFileName)
}

// runIndexWatch rebuilds the index whenever a topic markdown file under
// the recipes directory changes. Events are debounced so editors that
// write in bursts trigger one rebuild.
func runIndexWatch(ctx context.Context, config *IndexBuildConfig) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(config.RecipesDir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", config.RecipesDir)
	}

	presenter.Info(fmt.Sprintf("Watching %s for changes, press Ctrl+C to stop", config.RecipesDir))

	debounce := time.Duration(config.DebounceTime) * time.Millisecond
	var timer *time.Timer
	rebuild := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			// Only topic markdown feeds the index; the generated index
			// file itself must not retrigger a rebuild
			if !strings.HasSuffix(event.Name, ".md") {
				continue
			}

			logger.G(ctx).WithFields(map[string]any{
				"file":      event.Name,
				"operation": event.Op.String(),
			}).Debug("Topic file change detected")

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})
		case <-rebuild:
			presenter.Info("Change detected, rebuilding index")
			if err := runIndexBuild(ctx, config); err != nil {
				presenter.Error(err, "Index rebuild failed")
				logger.G(ctx).WithError(err).Error("Index rebuild failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			presenter.Error(err, "File watcher error")
			logger.G(ctx).WithError(err).Error("Error watching recipes directory")
		case <-ctx.Done():
			presenter.Info("Stopped watching")
			return nil
		}
	}
}
