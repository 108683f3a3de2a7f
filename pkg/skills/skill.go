// Package skills manages skill bundles: loading SKILL.md metadata,
// validating bundle structure, packaging bundles for distribution, and
// scaffolding new ones. A bundle is a directory containing a SKILL.md
// file with YAML frontmatter plus optional scripts/, references/,
// recipes/, and assets/ directories.
package skills

// SkillFileName is the canonical metadata file of a skill bundle
const SkillFileName = "SKILL.md"

// Metadata represents the YAML frontmatter in SKILL.md files
type Metadata struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Description string `mapstructure:"description" yaml:"description"`
	License     string `mapstructure:"license" yaml:"license"`
	Version     string `mapstructure:"version" yaml:"version"`
}

// Skill represents a loaded skill bundle
type Skill struct {
	Metadata
	Directory string // Full path to the skill directory
	Content   string // Body of SKILL.md without frontmatter
}
