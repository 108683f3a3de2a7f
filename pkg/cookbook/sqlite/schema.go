package sqlite

// SQL schema definitions for the SQLite recipe store

const (
	// SchemaVersion1 represents the initial database schema version
	SchemaVersion1 = 1
	// SchemaVersion2 adds query indexes
	SchemaVersion2 = 2
	// CurrentSchemaVersion is the latest schema version
	CurrentSchemaVersion = SchemaVersion2
)

// createSchemaVersionTable creates the schema version tracking table
const createSchemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at DATETIME NOT NULL,
    description TEXT
);
`

// createRecipesTable creates the main recipes table. id_major and
// id_minor hold the parsed "chapter.number" components so SQL can order
// recipes numerically.
const createRecipesTable = `
CREATE TABLE IF NOT EXISTS recipes (
    id TEXT PRIMARY KEY,
    id_major INTEGER NOT NULL,
    id_minor INTEGER NOT NULL,
    title TEXT NOT NULL,
    topic TEXT NOT NULL,
    difficulty TEXT NOT NULL,
    tags TEXT,
    code_file TEXT,
    see_also TEXT
);
`

// createRecipeTagsTable creates the normalized tag table used for tag
// filtering and tag counts
const createRecipeTagsTable = `
CREATE TABLE IF NOT EXISTS recipe_tags (
    recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
    tag TEXT NOT NULL,
    PRIMARY KEY (recipe_id, tag)
);
`

// createTopicsTable creates the per-topic metadata table
const createTopicsTable = `
CREATE TABLE IF NOT EXISTS topics (
    slug TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    recipe_count INTEGER NOT NULL
);
`

// createIndexMetaTable creates the single-row table holding index-level
// metadata
const createIndexMetaTable = `
CREATE TABLE IF NOT EXISTS index_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    generated_at DATETIME NOT NULL,
    total_recipes INTEGER NOT NULL
);
`

// Schema version 2 indexes
const createIndexRecipesTopic = `
CREATE INDEX IF NOT EXISTS idx_recipes_topic ON recipes(topic);
`

const createIndexRecipesDifficulty = `
CREATE INDEX IF NOT EXISTS idx_recipes_difficulty ON recipes(difficulty);
`

const createIndexRecipesOrder = `
CREATE INDEX IF NOT EXISTS idx_recipes_order ON recipes(id_major, id_minor);
`

const createIndexRecipeTagsTag = `
CREATE INDEX IF NOT EXISTS idx_recipe_tags_tag ON recipe_tags(tag);
`

// Drop indexes for rollback
const (
	dropIndexRecipesTopic      = `DROP INDEX IF EXISTS idx_recipes_topic;`
	dropIndexRecipesDifficulty = `DROP INDEX IF EXISTS idx_recipes_difficulty;`
	dropIndexRecipesOrder      = `DROP INDEX IF EXISTS idx_recipes_order;`
	dropIndexRecipeTagsTag     = `DROP INDEX IF EXISTS idx_recipe_tags_tag;`
)
