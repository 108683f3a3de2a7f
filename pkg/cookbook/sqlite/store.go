// Package sqlite implements the recipe store on top of a SQLite
// database, for skill bundles large enough that scanning the JSON index
// on every query becomes noticeable.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/jingkaihe/zigskill/pkg/types/cookbook"
)

const recipeColumns = `id, id_major, id_minor, title, topic, difficulty, tags, code_file, see_also`

// Store implements the recipe store using a SQLite database
type Store struct {
	dbPath string
	db     *sqlx.DB
}

// NewStore creates a new SQLite-based recipe store
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	// Create directory if needed
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	// Configure database for optimal WAL mode performance
	if err := configureDatabase(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to configure database")
	}

	store := &Store{
		dbPath: dbPath,
		db:     db,
	}

	// Initialize schema and run migrations
	if err := store.initializeSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	return store, nil
}

// configureDatabase sets up SQLite pragmas for optimal WAL mode performance
func configureDatabase(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=1000",
		"PRAGMA temp_store=memory",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}

	for _, pragma := range pragmas {
		_, err := db.ExecContext(ctx, pragma)
		if err != nil {
			return errors.Wrapf(err, "failed to execute pragma: %s", pragma)
		}
	}
	db.SetMaxIdleConns(1)
	db.SetMaxOpenConns(1)

	// Verify WAL mode is enabled
	var journalMode string
	err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		return errors.Wrap(err, "failed to query journal mode")
	}

	if strings.ToLower(journalMode) != "wal" {
		return errors.Errorf("WAL mode not enabled. Current mode: %s", journalMode)
	}

	return nil
}

// initializeSchema creates the database schema and runs migrations
func (s *Store) initializeSchema() error {
	if err := s.runMigrations(); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}

	return nil
}

// Recipes returns all recipes in numeric ID order
func (s *Store) Recipes(ctx context.Context) ([]cookbook.Recipe, error) {
	var dbRecipes []dbRecipe
	query := `SELECT ` + recipeColumns + ` FROM recipes ORDER BY id_major, id_minor`
	if err := s.db.SelectContext(ctx, &dbRecipes, query); err != nil {
		return nil, errors.Wrap(err, "failed to list recipes")
	}

	recipes := make([]cookbook.Recipe, len(dbRecipes))
	for i, dbr := range dbRecipes {
		recipes[i] = dbr.ToRecipe()
	}
	return recipes, nil
}

// Get retrieves a recipe by ID
func (s *Store) Get(ctx context.Context, id string) (cookbook.Recipe, error) {
	var dbr dbRecipe
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = ?`
	err := s.db.GetContext(ctx, &dbr, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return cookbook.Recipe{}, errors.Wrapf(cookbook.ErrRecipeNotFound, "recipe '%s'", id)
		}
		return cookbook.Recipe{}, errors.Wrap(err, "failed to load recipe")
	}

	return dbr.ToRecipe(), nil
}

// Query performs filtered queries with pagination
func (s *Store) Query(ctx context.Context, options cookbook.QueryOptions) (cookbook.QueryResult, error) {
	// Build WHERE conditions
	conditions := []string{}
	args := map[string]interface{}{}

	if options.Topic != "" {
		conditions = append(conditions, "LOWER(topic) = LOWER(:topic)")
		args["topic"] = options.Topic
	}

	if options.Tag != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = recipes.id AND LOWER(rt.tag) = LOWER(:tag))")
		args["tag"] = options.Tag
	}

	if options.Difficulty != "" {
		conditions = append(conditions, "LOWER(difficulty) = LOWER(:difficulty)")
		args["difficulty"] = options.Difficulty
	}

	if options.Search != "" {
		searchPattern := "%" + strings.ToLower(options.Search) + "%"
		conditions = append(conditions, "(LOWER(title) LIKE :search_term OR LOWER(topic) LIKE :search_term OR EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = recipes.id AND LOWER(rt.tag) LIKE :search_term))")
		args["search_term"] = searchPattern
	}

	// Build main query
	baseQuery := `SELECT ` + recipeColumns + ` FROM recipes`
	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY id_major, id_minor"

	// Add pagination. SQLite only accepts OFFSET after a LIMIT clause,
	// so an offset without a limit uses LIMIT -1 (no limit).
	if options.Limit > 0 {
		baseQuery += " LIMIT :limit"
		args["limit"] = options.Limit

		if options.Offset > 0 {
			baseQuery += " OFFSET :offset"
			args["offset"] = options.Offset
		}
	} else if options.Offset > 0 {
		baseQuery += " LIMIT -1 OFFSET :offset"
		args["offset"] = options.Offset
	}

	// Execute main query
	var dbRecipes []dbRecipe
	finalQuery, argsSlice, err := sqlx.Named(baseQuery, args)
	if err != nil {
		return cookbook.QueryResult{}, errors.Wrap(err, "failed to build named query")
	}

	finalQuery = s.db.Rebind(finalQuery)
	err = s.db.SelectContext(ctx, &dbRecipes, finalQuery, argsSlice...)
	if err != nil {
		return cookbook.QueryResult{}, errors.Wrap(err, "failed to execute query")
	}

	// Convert to domain models
	recipes := make([]cookbook.Recipe, len(dbRecipes))
	for i, dbr := range dbRecipes {
		recipes[i] = dbr.ToRecipe()
	}

	// Get total count (without pagination)
	countQuery := "SELECT COUNT(*) FROM recipes"
	if len(conditions) > 0 {
		countQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Remove pagination args for count query
	countArgs := make(map[string]interface{})
	for k, v := range args {
		if k != "limit" && k != "offset" {
			countArgs[k] = v
		}
	}

	var total int
	finalCountQuery, countArgsSlice, err := sqlx.Named(countQuery, countArgs)
	if err != nil {
		return cookbook.QueryResult{}, errors.Wrap(err, "failed to build named count query")
	}

	finalCountQuery = s.db.Rebind(finalCountQuery)
	err = s.db.GetContext(ctx, &total, finalCountQuery, countArgsSlice...)
	if err != nil {
		return cookbook.QueryResult{}, errors.Wrap(err, "failed to get total count")
	}

	return cookbook.QueryResult{
		Recipes:      recipes,
		Total:        total,
		QueryOptions: options,
	}, nil
}

// Topics returns topic metadata keyed by topic slug
func (s *Store) Topics(ctx context.Context) (map[string]cookbook.TopicInfo, error) {
	var dbTopics []dbTopic
	if err := s.db.SelectContext(ctx, &dbTopics, `SELECT slug, name, recipe_count FROM topics ORDER BY slug`); err != nil {
		return nil, errors.Wrap(err, "failed to list topics")
	}

	topics := make(map[string]cookbook.TopicInfo, len(dbTopics))
	for _, t := range dbTopics {
		topics[t.Slug] = cookbook.TopicInfo{Name: t.Name, Count: t.RecipeCount}
	}
	return topics, nil
}

// TagCounts returns all tags with usage counts, most used first and ties
// broken alphabetically
func (s *Store) TagCounts(ctx context.Context) ([]cookbook.TagCount, error) {
	var tags []cookbook.TagCount
	query := `SELECT tag, COUNT(*) AS count FROM recipe_tags GROUP BY tag ORDER BY count DESC, tag ASC`
	if err := s.db.SelectContext(ctx, &tags, query); err != nil {
		return nil, errors.Wrap(err, "failed to count tags")
	}
	return tags, nil
}

// ReplaceAll atomically replaces all stored recipes, tags, and topics
// with the contents of a freshly built index
func (s *Store) ReplaceAll(ctx context.Context, index *cookbook.Index) error {
	if index == nil {
		return errors.New("index is required")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	// Clear existing data, children first
	for _, table := range []string{"recipe_tags", "recipes", "topics", "index_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "failed to clear %s table", table)
		}
	}

	recipeQuery := `
		INSERT INTO recipes (
			id, id_major, id_minor, title, topic, difficulty, tags, code_file, see_also
		) VALUES (
			:id, :id_major, :id_minor, :title, :topic, :difficulty, :tags, :code_file, :see_also
		)
	`
	for _, recipe := range index.Recipes {
		dbr, err := fromRecipe(recipe)
		if err != nil {
			return errors.Wrapf(err, "failed to convert recipe %s", recipe.ID)
		}
		if _, err := tx.NamedExecContext(ctx, recipeQuery, dbr); err != nil {
			return errors.Wrapf(err, "failed to insert recipe %s", recipe.ID)
		}

		for _, tag := range recipe.Tags {
			if _, err := tx.ExecContext(ctx, `INSERT INTO recipe_tags (recipe_id, tag) VALUES (?, ?)`, recipe.ID, strings.ToLower(tag)); err != nil {
				return errors.Wrapf(err, "failed to insert tag %s for recipe %s", tag, recipe.ID)
			}
		}
	}

	for slug, info := range index.TopicInfo {
		if _, err := tx.ExecContext(ctx, `INSERT INTO topics (slug, name, recipe_count) VALUES (?, ?, ?)`, slug, info.Name, info.Count); err != nil {
			return errors.Wrapf(err, "failed to insert topic %s", slug)
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO index_meta (id, generated_at, total_recipes) VALUES (1, ?, ?)`, index.GeneratedAt, index.TotalRecipes)
	if err != nil {
		return errors.Wrap(err, "failed to record index metadata")
	}

	return tx.Commit()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
