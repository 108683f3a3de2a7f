package cookbook

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/zigskill/pkg/cookbook/sqlite"
	"github.com/jingkaihe/zigskill/pkg/types/cookbook"
)

func newTestService(t *testing.T) (*RecipeService, string) {
	t.Helper()

	recipesDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(recipesDir, "arrays-slices.md"), []byte(arraysTopicContent), 0644))
	require.NoError(t, WriteIndex(recipesDir, testIndex()))

	store, err := NewJSONStore(recipesDir)
	require.NoError(t, err)

	service := NewRecipeService(store, WithRecipesDir(recipesDir))
	t.Cleanup(func() { service.Close() })
	return service, recipesDir
}

func TestServiceListRecipes(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	resp, err := service.ListRecipes(ctx, &ListRecipesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Total)
	assert.Len(t, resp.Recipes, 4)
	assert.False(t, resp.HasMore)

	resp, err = service.ListRecipes(ctx, &ListRecipesRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Recipes, 2)
	assert.Equal(t, 4, resp.Total)
	assert.True(t, resp.HasMore)

	resp, err = service.ListRecipes(ctx, &ListRecipesRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Recipes, 2)
	assert.False(t, resp.HasMore)

	resp, err = service.ListRecipes(ctx, &ListRecipesRequest{Search: "no-such-thing"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Recipes)
	assert.Empty(t, resp.Recipes)
}

func TestServiceGetRecipe(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	resp, err := service.GetRecipe(ctx, "1.1")
	require.NoError(t, err)
	assert.Equal(t, "Initialize a fixed-size array", resp.Recipe.Title)
	assert.Contains(t, resp.Content, "## Recipe 1.1:")

	_, err = service.GetRecipe(ctx, "9.9")
	require.Error(t, err)
	assert.ErrorIs(t, err, cookbook.ErrRecipeNotFound)
}

func TestServiceGetRecipeWithoutContentDir(t *testing.T) {
	ctx := context.Background()

	recipesDir := t.TempDir()
	require.NoError(t, WriteIndex(recipesDir, testIndex()))
	store, err := NewJSONStore(recipesDir)
	require.NoError(t, err)

	service := NewRecipeService(store)
	defer service.Close()

	resp, err := service.GetRecipe(ctx, "1.1")
	require.NoError(t, err)
	assert.Empty(t, resp.Content)
}

func TestServiceGetRecipeMissingTopicFile(t *testing.T) {
	ctx := context.Background()
	service, recipesDir := newTestService(t)

	// 3.1 lives in memory-allocators.md which was never written
	_, err := os.Stat(filepath.Join(recipesDir, "memory-allocators.md"))
	require.True(t, os.IsNotExist(err))

	resp, err := service.GetRecipe(ctx, "3.1")
	require.NoError(t, err)
	assert.Empty(t, resp.Content)
}

func TestServiceTopicsAndTags(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	topics, err := service.ListTopics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, topics.Total)
	assert.Equal(t, "Arrays & Slices", topics.Topics["arrays-slices"].Name)

	tags, err := service.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, tags.Total, len(tags.Tags))
	assert.Equal(t, "arrays", tags.Tags[0].Tag)
}

func TestNewStoreBackends(t *testing.T) {
	ctx := context.Background()

	recipesDir := t.TempDir()
	require.NoError(t, WriteIndex(recipesDir, testIndex()))

	jsonStore, err := NewStore(ctx, &Config{Backend: "json", RecipesDir: recipesDir})
	require.NoError(t, err)
	defer jsonStore.Close()
	_, ok := jsonStore.(*JSONStore)
	assert.True(t, ok)

	sqliteStore, err := NewStore(ctx, &Config{Backend: "sqlite", DBPath: filepath.Join(t.TempDir(), "recipes.db")})
	require.NoError(t, err)
	defer sqliteStore.Close()
	_, ok = sqliteStore.(*sqlite.Store)
	assert.True(t, ok)

	_, err = NewStore(ctx, &Config{Backend: "bbolt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported index backend")

	_, err = NewStore(ctx, nil)
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("/skill")
	assert.Equal(t, "json", config.Backend)
	assert.Equal(t, filepath.Join("/skill", "recipes"), config.RecipesDir)
	assert.Equal(t, filepath.Join("/skill", "recipes", "recipes.db"), config.DBPath)
}
