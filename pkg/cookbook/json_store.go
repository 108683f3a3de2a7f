package cookbook

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"

	"github.com/jingkaihe/zigskill/pkg/types/cookbook"
)

// JSONStore serves recipe queries from the recipes-index.json file
// generated by the index builder. The index is held in memory; file
// access goes through lockedfile so concurrent rebuilds never expose a
// partially written index.
type JSONStore struct {
	recipesDir string

	mu    sync.RWMutex
	index *cookbook.Index
}

// NewJSONStore creates a JSON-file-backed recipe store rooted at recipesDir
func NewJSONStore(recipesDir string) (*JSONStore, error) {
	index, err := LoadIndex(recipesDir)
	if err != nil {
		return nil, err
	}
	return &JSONStore{
		recipesDir: recipesDir,
		index:      index,
	}, nil
}

// LoadIndex reads and parses the recipe index from recipesDir
func LoadIndex(recipesDir string) (*cookbook.Index, error) {
	path := filepath.Join(recipesDir, IndexFileName)
	data, err := lockedfile.Read(path)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Errorf("recipe index not found at %s, run 'zigskill index build' to generate it", path)
		}
		return nil, errors.Wrap(err, "failed to read recipe index")
	}

	var index cookbook.Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, errors.Wrap(err, "failed to parse recipe index")
	}
	return &index, nil
}

// Recipes returns all recipes in index order
func (s *JSONStore) Recipes(_ context.Context) ([]cookbook.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipes := make([]cookbook.Recipe, len(s.index.Recipes))
	copy(recipes, s.index.Recipes)
	return recipes, nil
}

// Get returns the recipe with the given ID
func (s *JSONStore) Get(_ context.Context, id string) (cookbook.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.index.Recipes {
		if r.ID == id {
			return r, nil
		}
	}
	return cookbook.Recipe{}, errors.Wrapf(cookbook.ErrRecipeNotFound, "recipe '%s'", id)
}

// Query filters recipes by the given options
func (s *JSONStore) Query(_ context.Context, options cookbook.QueryOptions) (cookbook.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]cookbook.Recipe, 0, len(s.index.Recipes))
	for _, r := range s.index.Recipes {
		if matchesQuery(r, options) {
			filtered = append(filtered, r)
		}
	}

	total := len(filtered)
	filtered = paginate(filtered, options.Limit, options.Offset)

	return cookbook.QueryResult{
		Recipes:      filtered,
		Total:        total,
		QueryOptions: options,
	}, nil
}

// Topics returns topic metadata keyed by topic slug
func (s *JSONStore) Topics(_ context.Context) (map[string]cookbook.TopicInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topics := make(map[string]cookbook.TopicInfo, len(s.index.TopicInfo))
	for slug, info := range s.index.TopicInfo {
		topics[slug] = info
	}
	return topics, nil
}

// TagCounts returns all tags with usage counts, most used first and ties
// broken alphabetically
func (s *JSONStore) TagCounts(_ context.Context) ([]cookbook.TagCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range s.index.Recipes {
		for _, tag := range r.Tags {
			counts[strings.ToLower(tag)]++
		}
	}

	tags := make([]cookbook.TagCount, 0, len(counts))
	for tag, count := range counts {
		tags = append(tags, cookbook.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	return tags, nil
}

// ReplaceAll writes the index to disk and swaps it into memory
func (s *JSONStore) ReplaceAll(_ context.Context, index *cookbook.Index) error {
	if index == nil {
		return errors.New("index is required")
	}

	if err := WriteIndex(s.recipesDir, index); err != nil {
		return err
	}

	s.mu.Lock()
	s.index = index
	s.mu.Unlock()
	return nil
}

// Close is a no-op for the JSON store
func (s *JSONStore) Close() error {
	return nil
}

// WriteIndex serializes the index and writes it to recipesDir under the
// canonical index file name
func WriteIndex(recipesDir string, index *cookbook.Index) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal recipe index")
	}
	data = append(data, '\n')

	if err := os.MkdirAll(recipesDir, 0755); err != nil {
		return errors.Wrap(err, "failed to create recipes directory")
	}

	path := filepath.Join(recipesDir, IndexFileName)
	if err := lockedfile.Write(path, bytes.NewReader(data), 0644); err != nil {
		return errors.Wrap(err, "failed to write recipe index")
	}
	return nil
}

// matchesQuery applies all filters from options to a single recipe
func matchesQuery(r cookbook.Recipe, options cookbook.QueryOptions) bool {
	if options.Topic != "" && !strings.EqualFold(r.Topic, options.Topic) {
		return false
	}
	if options.Tag != "" && !r.HasTag(options.Tag) {
		return false
	}
	if options.Difficulty != "" && !strings.EqualFold(r.Difficulty, options.Difficulty) {
		return false
	}
	if options.Search != "" && !matchesSearch(r, options.Search) {
		return false
	}
	return true
}

// matchesSearch reports whether the search term appears in the recipe
// title, any of its tags, or its topic slug
func matchesSearch(r cookbook.Recipe, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(r.Title), term) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(r.Topic), term)
}

func paginate(recipes []cookbook.Recipe, limit, offset int) []cookbook.Recipe {
	if offset > 0 {
		if offset >= len(recipes) {
			return []cookbook.Recipe{}
		}
		recipes = recipes[offset:]
	}
	if limit > 0 && limit < len(recipes) {
		recipes = recipes[:limit]
	}
	return recipes
}
