package cookbook

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/jingkaihe/zigskill/pkg/logger"
	"github.com/jingkaihe/zigskill/pkg/types/cookbook"
)

var (
	recipeHeadingPattern = regexp.MustCompile(`(?m)^## Recipe (\d+\.\d+):[ \t]*(.*)$`)
	firstHeadingPattern  = regexp.MustCompile(`(?m)^# (.+)$`)
	difficultyPattern    = regexp.MustCompile(`(?mi)^\*\*Difficulty\*\*:[ \t]*(.+)$`)
	tagsPattern          = regexp.MustCompile(`(?mi)^\*\*Tags\*\*:[ \t]*(.+)$`)
	codeFilePattern      = regexp.MustCompile(`(?mi)^\*\*Code\*\*:[ \t]*(.+)$`)
	seeAlsoPattern       = regexp.MustCompile(`(?mi)^\*\*See also\*\*:[ \t]*(.+)$`)
)

// topicMeta holds the optional YAML frontmatter of a topic file
type topicMeta struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// Builder scans topic markdown files and produces the recipe index.
//
// Each topic file contributes one entry to the index's topic table and
// one recipe per "## Recipe <chapter>.<number>: <title>" section. Recipe
// metadata is read from "**Difficulty**:", "**Tags**:", "**Code**:" and
// "**See also**:" lines within the section.
type Builder struct {
	recipesDir string
}

// NewBuilder creates a Builder over the given recipes directory
func NewBuilder(recipesDir string) *Builder {
	return &Builder{recipesDir: recipesDir}
}

// Build scans all topic files and assembles the recipe index
func (b *Builder) Build(ctx context.Context) (*cookbook.Index, error) {
	entries, err := os.ReadDir(b.recipesDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read recipes directory %s", b.recipesDir)
	}

	index := &cookbook.Index{
		GeneratedAt: time.Now().UTC(),
		Recipes:     []cookbook.Recipe{},
		TopicInfo:   map[string]cookbook.TopicInfo{},
	}
	seen := make(map[string]string) // recipe ID -> topic slug

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		if entry.Name() == "README.md" || strings.HasPrefix(entry.Name(), "_") {
			continue
		}

		slug := strings.TrimSuffix(entry.Name(), ".md")
		content, err := os.ReadFile(filepath.Join(b.recipesDir, entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read topic file %s", entry.Name())
		}

		name, recipes, err := b.parseTopicFile(ctx, slug, content)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse topic file %s", entry.Name())
		}

		for _, r := range recipes {
			if prev, ok := seen[r.ID]; ok {
				return nil, errors.Errorf("duplicate recipe ID %s in %s.md (already defined in %s.md)", r.ID, slug, prev)
			}
			seen[r.ID] = slug
		}

		index.Recipes = append(index.Recipes, recipes...)
		index.TopicInfo[slug] = cookbook.TopicInfo{Name: name, Count: len(recipes)}

		logger.G(ctx).WithField("topic", slug).WithField("recipes", len(recipes)).Debug("Indexed topic file")
	}

	cookbook.SortRecipes(index.Recipes)
	index.TotalRecipes = len(index.Recipes)

	if index.TotalRecipes == 0 {
		logger.G(ctx).WithField("dir", b.recipesDir).Warn("No recipes found in recipes directory")
	}

	return index, nil
}

// parseTopicFile extracts the topic display name and all recipe entries
// from one topic markdown file
func (b *Builder) parseTopicFile(ctx context.Context, slug string, content []byte) (string, []cookbook.Recipe, error) {
	name, err := topicName(slug, content)
	if err != nil {
		return "", nil, err
	}

	text := string(content)
	headings := recipeHeadingPattern.FindAllStringSubmatchIndex(text, -1)

	recipes := make([]cookbook.Recipe, 0, len(headings))
	for i, heading := range headings {
		id := text[heading[2]:heading[3]]
		title := strings.TrimSpace(text[heading[4]:heading[5]])

		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1][0]
		}
		section := text[heading[0]:end]

		recipe := cookbook.Recipe{
			ID:         id,
			Title:      title,
			Topic:      slug,
			Difficulty: parseDifficulty(ctx, id, section),
			Tags:       splitList(firstSubmatch(tagsPattern, section), true),
			CodeFile:   firstSubmatch(codeFilePattern, section),
			SeeAlso:    splitList(firstSubmatch(seeAlsoPattern, section), false),
		}
		if recipe.Tags == nil {
			recipe.Tags = []string{}
		}
		recipes = append(recipes, recipe)
	}

	return name, recipes, nil
}

// topicName resolves the display name for a topic: frontmatter name,
// then the first H1 heading, then a humanized slug
func topicName(slug string, content []byte) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(meta.Meta))
	pCtx := parser.NewContext()
	var buf bytes.Buffer
	if err := md.Convert(content, &buf, parser.WithContext(pCtx)); err != nil {
		return "", errors.Wrap(err, "failed to parse markdown")
	}

	if metaData := meta.Get(pCtx); metaData != nil {
		var tm topicMeta
		if err := mapstructure.Decode(metaData, &tm); err == nil && tm.Name != "" {
			return tm.Name, nil
		}
	}

	if m := firstHeadingPattern.FindSubmatch(content); m != nil {
		return strings.TrimSpace(string(m[1])), nil
	}

	return humanizeSlug(slug), nil
}

// parseDifficulty reads the difficulty line of a section, defaulting to
// intermediate when absent
func parseDifficulty(ctx context.Context, id, section string) string {
	difficulty := strings.ToLower(firstSubmatch(difficultyPattern, section))
	if difficulty == "" {
		return cookbook.DifficultyIntermediate
	}
	if !cookbook.ValidDifficulty(difficulty) {
		logger.G(ctx).WithField("recipe", id).WithField("difficulty", difficulty).Warn("Unrecognized difficulty level")
	}
	return difficulty
}

func firstSubmatch(pattern *regexp.Regexp, s string) string {
	if m := pattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// splitList splits a comma-separated metadata value, dropping empty and
// duplicate entries. Tags are lowercased so filter matching stays
// consistent.
func splitList(s string, lower bool) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if lower {
			p = strings.ToLower(p)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func humanizeSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
