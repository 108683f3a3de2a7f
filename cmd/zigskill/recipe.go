package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/zigskill/pkg/cookbook"
	"github.com/jingkaihe/zigskill/pkg/presenter"
	cookbooktypes "github.com/jingkaihe/zigskill/pkg/types/cookbook"
)

// RecipeListConfig holds configuration for the recipe list command
type RecipeListConfig struct {
	Topic      string
	Tag        string
	Difficulty string
	Limit      int
	Offset     int
	JSONOutput bool
}

// NewRecipeListConfig creates a new RecipeListConfig with default values
func NewRecipeListConfig() *RecipeListConfig {
	return &RecipeListConfig{}
}

// Validate validates the RecipeListConfig and returns an error if invalid
func (c *RecipeListConfig) Validate() error {
	if c.Difficulty != "" && !cookbooktypes.ValidDifficulty(c.Difficulty) {
		return errors.Errorf("invalid difficulty %q, must be beginner, intermediate, or advanced", c.Difficulty)
	}
	if c.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", c.Limit)
	}
	if c.Offset < 0 {
		return errors.Errorf("offset cannot be negative: %d", c.Offset)
	}
	return nil
}

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Query the recipe cookbook",
	Long:  `Query the cookbook of worked Zig recipes by topic, tag, difficulty, or keyword.`,
}

var recipeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipes, optionally filtered",
	Long:  `List recipes in the cookbook. Filters compose: --topic, --tag, and --difficulty narrow the listing together.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config := NewRecipeListConfig()
		config.Topic, _ = cmd.Flags().GetString("topic")
		config.Tag, _ = cmd.Flags().GetString("tag")
		config.Difficulty, _ = cmd.Flags().GetString("difficulty")
		config.Limit, _ = cmd.Flags().GetInt("limit")
		config.Offset, _ = cmd.Flags().GetInt("offset")
		config.JSONOutput, _ = cmd.Flags().GetBool("json")

		if err := config.Validate(); err != nil {
			return err
		}

		return runRecipeList(cmd.Context(), cmd, config, "")
	},
}

var recipeSearchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search recipes by keyword",
	Long:  `Search recipe titles, tags, and topics for a keyword, case-insensitively.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := NewRecipeListConfig()
		config.Topic, _ = cmd.Flags().GetString("topic")
		config.Difficulty, _ = cmd.Flags().GetString("difficulty")
		config.Limit, _ = cmd.Flags().GetInt("limit")
		config.JSONOutput, _ = cmd.Flags().GetBool("json")

		if err := config.Validate(); err != nil {
			return err
		}

		return runRecipeList(cmd.Context(), cmd, config, args[0])
	},
}

var recipeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recipe",
	Long:  `Show a recipe's metadata, and with --full the complete markdown section from its topic file.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		full, _ := cmd.Flags().GetBool("full")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return runRecipeShow(cmd.Context(), cmd, args[0], full, jsonOutput)
	},
}

var recipeTopicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List topics with recipe counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return runRecipeTopics(cmd.Context(), cmd, jsonOutput)
	},
}

var recipeTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags by usage frequency",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return runRecipeTags(cmd.Context(), cmd, jsonOutput)
	},
}

func init() {
	recipeCmd.AddCommand(recipeListCmd)
	recipeCmd.AddCommand(recipeSearchCmd)
	recipeCmd.AddCommand(recipeShowCmd)
	recipeCmd.AddCommand(recipeTopicsCmd)
	recipeCmd.AddCommand(recipeTagsCmd)

	recipeListCmd.Flags().StringP("topic", "t", "", "Filter by topic slug")
	recipeListCmd.Flags().String("tag", "", "Filter by tag")
	recipeListCmd.Flags().StringP("difficulty", "d", "", "Filter by difficulty (beginner, intermediate, advanced)")
	recipeListCmd.Flags().Int("limit", 0, "Maximum number of recipes to return (0 = all)")
	recipeListCmd.Flags().Int("offset", 0, "Number of recipes to skip")
	recipeListCmd.Flags().Bool("json", false, "Output in JSON format")

	recipeSearchCmd.Flags().StringP("topic", "t", "", "Restrict the search to a topic")
	recipeSearchCmd.Flags().StringP("difficulty", "d", "", "Restrict the search to a difficulty")
	recipeSearchCmd.Flags().Int("limit", 0, "Maximum number of recipes to return (0 = all)")
	recipeSearchCmd.Flags().Bool("json", false, "Output in JSON format")

	recipeShowCmd.Flags().Bool("full", false, "Include the recipe's full markdown content")
	recipeShowCmd.Flags().Bool("json", false, "Output in JSON format")

	recipeTopicsCmd.Flags().Bool("json", false, "Output in JSON format")
	recipeTagsCmd.Flags().Bool("json", false, "Output in JSON format")

	rootCmd.AddCommand(recipeCmd)
}

// openRecipeService opens the recipe store under the skill root using the
// configured backend
func openRecipeService(ctx context.Context, cmd *cobra.Command) (*cookbook.RecipeService, error) {
	root, err := skillRootFromFlags(cmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to determine skill root")
	}

	config := cookbook.DefaultConfig(root)
	if backend := viper.GetString("index.backend"); backend != "" {
		config.Backend = backend
	}

	store, err := cookbook.NewStore(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open recipe index")
	}

	return cookbook.NewRecipeService(store, cookbook.WithRecipesDir(config.RecipesDir)), nil
}

func runRecipeList(ctx context.Context, cmd *cobra.Command, config *RecipeListConfig, search string) error {
	service, err := openRecipeService(ctx, cmd)
	if err != nil {
		return err
	}
	defer service.Close()

	response, err := service.ListRecipes(ctx, &cookbook.ListRecipesRequest{
		Topic:      config.Topic,
		Tag:        config.Tag,
		Difficulty: config.Difficulty,
		Search:     search,
		Limit:      config.Limit,
		Offset:     config.Offset,
	})
	if err != nil {
		return err
	}

	if config.JSONOutput {
		return renderJSON(os.Stdout, response)
	}

	if len(response.Recipes) == 0 {
		presenter.Info("No recipes found")
		return nil
	}

	for _, recipe := range response.Recipes {
		fmt.Printf("[%s] %s (%s)\n", recipe.ID, recipe.Title, recipe.Difficulty)
	}
	if response.HasMore {
		presenter.Info(fmt.Sprintf("Showing %d of %d recipes", len(response.Recipes), response.Total))
	}

	return nil
}

func runRecipeShow(ctx context.Context, cmd *cobra.Command, id string, full, jsonOutput bool) error {
	service, err := openRecipeService(ctx, cmd)
	if err != nil {
		return err
	}
	defer service.Close()

	response, err := service.GetRecipe(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "failed to load recipe '%s'", id)
	}

	if jsonOutput {
		if !full {
			response.Content = ""
		}
		return renderJSON(os.Stdout, response)
	}

	recipe := response.Recipe
	presenter.Section(fmt.Sprintf("Recipe %s: %s", recipe.ID, recipe.Title))
	fmt.Printf("Topic:      %s\n", recipe.Topic)
	fmt.Printf("Difficulty: %s\n", recipe.Difficulty)
	if len(recipe.Tags) > 0 {
		fmt.Printf("Tags:       %s\n", strings.Join(recipe.Tags, ", "))
	}
	if recipe.CodeFile != "" {
		fmt.Printf("Code:       %s\n", recipe.CodeFile)
	}
	if len(recipe.SeeAlso) > 0 {
		fmt.Printf("See also:   %s\n", strings.Join(recipe.SeeAlso, ", "))
	}

	if full {
		if response.Content == "" {
			presenter.Warning("Full content is not available for this recipe")
		} else {
			fmt.Println()
			fmt.Print(response.Content)
		}
	}

	return nil
}

func runRecipeTopics(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	service, err := openRecipeService(ctx, cmd)
	if err != nil {
		return err
	}
	defer service.Close()

	response, err := service.ListTopics(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return renderJSON(os.Stdout, response)
	}

	if len(response.Topics) == 0 {
		presenter.Info("No topics found")
		return nil
	}

	// Topics sort by recipe count, most covered first
	type topicRow struct {
		slug string
		info cookbooktypes.TopicInfo
	}
	rows := make([]topicRow, 0, len(response.Topics))
	for slug, info := range response.Topics {
		rows = append(rows, topicRow{slug: slug, info: info})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].info.Count != rows[j].info.Count {
			return rows[i].info.Count > rows[j].info.Count
		}
		return rows[i].slug < rows[j].slug
	})

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Topic\tName\tRecipes")
	fmt.Fprintln(tw, "-----\t----\t-------")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", row.slug, row.info.Name, row.info.Count)
	}
	return tw.Flush()
}

func runRecipeTags(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	service, err := openRecipeService(ctx, cmd)
	if err != nil {
		return err
	}
	defer service.Close()

	response, err := service.ListTags(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return renderJSON(os.Stdout, response)
	}

	if len(response.Tags) == 0 {
		presenter.Info("No tags found")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Tag\tRecipes")
	fmt.Fprintln(tw, "---\t-------")
	for _, tag := range response.Tags {
		fmt.Fprintf(tw, "%s\t%d\n", tag.Tag, tag.Count)
	}
	return tw.Flush()
}

// renderJSON writes indented JSON to w
func renderJSON(w io.Writer, data any) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "error generating JSON output")
	}

	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}
