package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cookbook "github.com/jingkaihe/zigskill/pkg/types/cookbook"
)

func testIndex() *cookbook.Index {
	return &cookbook.Index{
		GeneratedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		TotalRecipes: 4,
		Recipes: []cookbook.Recipe{
			{
				ID:         "1.1",
				Title:      "Initialize a fixed-size array",
				Topic:      "arrays-slices",
				Difficulty: "beginner",
				Tags:       []string{"arrays", "initialization"},
				CodeFile:   "code/01_01_array_init.zig",
				SeeAlso:    []string{"1.2"},
			},
			{
				ID:         "1.2",
				Title:      "Slice an array without copying",
				Topic:      "arrays-slices",
				Difficulty: "beginner",
				Tags:       []string{"slices", "arrays"},
			},
			{
				ID:         "1.10",
				Title:      "Build a sentinel-terminated slice",
				Topic:      "arrays-slices",
				Difficulty: "advanced",
				Tags:       []string{"slices", "sentinels"},
			},
			{
				ID:         "3.1",
				Title:      "Detect leaks with GeneralPurposeAllocator",
				Topic:      "memory-allocators",
				Difficulty: "intermediate",
				Tags:       []string{"allocators", "testing"},
			},
		},
		TopicInfo: map[string]cookbook.TopicInfo{
			"arrays-slices":     {Name: "Arrays & Slices", Count: 3},
			"memory-allocators": {Name: "Memory & Allocators", Count: 1},
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "test_recipes.db")
	store, err := NewStore(ctx, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.ReplaceAll(ctx, testIndex()))
	return store
}

func TestStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.validateSchema())

	recipes, err := store.Recipes(ctx)
	require.NoError(t, err)
	require.Len(t, recipes, 4)

	// Numeric ID order, so 1.2 comes before 1.10
	assert.Equal(t, "1.1", recipes[0].ID)
	assert.Equal(t, "1.2", recipes[1].ID)
	assert.Equal(t, "1.10", recipes[2].ID)
	assert.Equal(t, "3.1", recipes[3].ID)

	recipe, err := store.Get(ctx, "1.1")
	require.NoError(t, err)
	assert.Equal(t, "Initialize a fixed-size array", recipe.Title)
	assert.Equal(t, []string{"arrays", "initialization"}, recipe.Tags)
	assert.Equal(t, "code/01_01_array_init.zig", recipe.CodeFile)
	assert.Equal(t, []string{"1.2"}, recipe.SeeAlso)

	_, err = store.Get(ctx, "9.9")
	require.Error(t, err)
	assert.ErrorIs(t, err, cookbook.ErrRecipeNotFound)
}

func TestStore_Query(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	tests := []struct {
		name        string
		options     cookbook.QueryOptions
		expectedIDs []string
		total       int
	}{
		{
			name:        "no filters",
			options:     cookbook.QueryOptions{},
			expectedIDs: []string{"1.1", "1.2", "1.10", "3.1"},
			total:       4,
		},
		{
			name:        "topic filter is case-insensitive",
			options:     cookbook.QueryOptions{Topic: "Arrays-Slices"},
			expectedIDs: []string{"1.1", "1.2", "1.10"},
			total:       3,
		},
		{
			name:        "tag filter",
			options:     cookbook.QueryOptions{Tag: "slices"},
			expectedIDs: []string{"1.2", "1.10"},
			total:       2,
		},
		{
			name:        "difficulty filter",
			options:     cookbook.QueryOptions{Difficulty: "BEGINNER"},
			expectedIDs: []string{"1.1", "1.2"},
			total:       2,
		},
		{
			name:        "search matches titles",
			options:     cookbook.QueryOptions{Search: "allocator"},
			expectedIDs: []string{"3.1"},
			total:       1,
		},
		{
			name:        "search matches tags",
			options:     cookbook.QueryOptions{Search: "sentinel"},
			expectedIDs: []string{"1.10"},
			total:       1,
		},
		{
			name:        "combined filters",
			options:     cookbook.QueryOptions{Topic: "arrays-slices", Difficulty: "beginner", Tag: "arrays"},
			expectedIDs: []string{"1.1", "1.2"},
			total:       2,
		},
		{
			name:        "no matches",
			options:     cookbook.QueryOptions{Search: "does-not-exist"},
			expectedIDs: []string{},
			total:       0,
		},
		{
			name:        "limit and offset",
			options:     cookbook.QueryOptions{Limit: 2, Offset: 1},
			expectedIDs: []string{"1.2", "1.10"},
			total:       4,
		},
		{
			name:        "offset without limit",
			options:     cookbook.QueryOptions{Offset: 1},
			expectedIDs: []string{"1.2", "1.10", "3.1"},
			total:       4,
		},
		{
			name:        "offset past the end",
			options:     cookbook.QueryOptions{Offset: 10},
			expectedIDs: []string{},
			total:       4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := store.Query(ctx, tt.options)
			require.NoError(t, err)

			ids := make([]string, len(result.Recipes))
			for i, r := range result.Recipes {
				ids[i] = r.ID
			}
			assert.Equal(t, tt.expectedIDs, ids)
			assert.Equal(t, tt.total, result.Total)
		})
	}
}

func TestStore_Topics(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	topics, err := store.Topics(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, cookbook.TopicInfo{Name: "Arrays & Slices", Count: 3}, topics["arrays-slices"])
	assert.Equal(t, cookbook.TopicInfo{Name: "Memory & Allocators", Count: 1}, topics["memory-allocators"])
}

func TestStore_TagCounts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	tags, err := store.TagCounts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, tags)

	// Most used first, ties alphabetical
	assert.Equal(t, cookbook.TagCount{Tag: "arrays", Count: 2}, tags[0])
	assert.Equal(t, cookbook.TagCount{Tag: "slices", Count: 2}, tags[1])

	for i := 1; i < len(tags); i++ {
		if tags[i-1].Count == tags[i].Count {
			assert.Less(t, tags[i-1].Tag, tags[i].Tag)
		} else {
			assert.Greater(t, tags[i-1].Count, tags[i].Count)
		}
	}
}

func TestStore_ReplaceAllOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	smaller := &cookbook.Index{
		GeneratedAt:  time.Now().UTC(),
		TotalRecipes: 1,
		Recipes: []cookbook.Recipe{
			{ID: "2.1", Title: "Switch on tagged unions", Topic: "control-flow", Difficulty: "intermediate", Tags: []string{"switch"}},
		},
		TopicInfo: map[string]cookbook.TopicInfo{
			"control-flow": {Name: "Control Flow", Count: 1},
		},
	}
	require.NoError(t, store.ReplaceAll(ctx, smaller))

	recipes, err := store.Recipes(ctx)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "2.1", recipes[0].ID)

	topics, err := store.Topics(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 1)

	tags, err := store.TagCounts(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "switch", tags[0].Tag)
}

func TestStore_ReplaceAllRejectsMalformedID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	bad := &cookbook.Index{
		Recipes:   []cookbook.Recipe{{ID: "not-an-id", Title: "x", Topic: "t", Difficulty: "beginner"}},
		TopicInfo: map[string]cookbook.TopicInfo{},
	}
	err := store.ReplaceAll(ctx, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipe ID")

	// Failed replace leaves previous data intact
	recipes, err := store.Recipes(ctx)
	require.NoError(t, err)
	assert.Len(t, recipes, 4)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "recipes.db")

	store, err := NewStore(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.ReplaceAll(ctx, testIndex()))
	require.NoError(t, store.Close())

	reopened, err := NewStore(ctx, dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	recipes, err := reopened.Recipes(ctx)
	require.NoError(t, err)
	assert.Len(t, recipes, 4)
}
