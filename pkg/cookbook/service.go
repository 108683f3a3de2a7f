// Package cookbook provides recipe management functionality for zigskill.
// It builds the recipe index from topic markdown files and offers
// high-level services for querying recipes with support for filtering,
// pagination, and full-content extraction.
package cookbook

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jingkaihe/zigskill/pkg/logger"
	"github.com/jingkaihe/zigskill/pkg/types/cookbook"
)

// RecipeServiceInterface defines the interface for recipe operations
type RecipeServiceInterface interface {
	ListRecipes(ctx context.Context, req *ListRecipesRequest) (*ListRecipesResponse, error)
	GetRecipe(ctx context.Context, id string) (*GetRecipeResponse, error)
	ListTopics(ctx context.Context) (*ListTopicsResponse, error)
	ListTags(ctx context.Context) (*ListTagsResponse, error)
	Close() error
}

// RecipeService provides high-level recipe operations
type RecipeService struct {
	store      Store
	recipesDir string // When set, GetRecipe attaches the full markdown section
}

// ServiceOption configures a RecipeService
type ServiceOption func(*RecipeService)

// WithRecipesDir enables full-content extraction from topic files in the
// given directory
func WithRecipesDir(dir string) ServiceOption {
	return func(s *RecipeService) {
		s.recipesDir = dir
	}
}

// NewRecipeService creates a new recipe service
func NewRecipeService(store Store, opts ...ServiceOption) *RecipeService {
	s := &RecipeService{
		store: store,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListRecipesRequest represents a request to list recipes
type ListRecipesRequest struct {
	Topic      string `json:"topic,omitempty"`
	Tag        string `json:"tag,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Search     string `json:"search,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// ListRecipesResponse represents the response from listing recipes
type ListRecipesResponse struct {
	Recipes []cookbook.Recipe `json:"recipes"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
	HasMore bool              `json:"has_more"`
}

// GetRecipeResponse represents the response from getting a recipe
type GetRecipeResponse struct {
	Recipe  cookbook.Recipe `json:"recipe"`
	Content string          `json:"content,omitempty"`
}

// ListTopicsResponse represents the response from listing topics
type ListTopicsResponse struct {
	Topics map[string]cookbook.TopicInfo `json:"topics"`
	Total  int                           `json:"total"`
}

// ListTagsResponse represents the response from listing tags
type ListTagsResponse struct {
	Tags  []cookbook.TagCount `json:"tags"`
	Total int                 `json:"total"`
}

// ListRecipes retrieves recipes with filtering and pagination
func (s *RecipeService) ListRecipes(ctx context.Context, req *ListRecipesRequest) (*ListRecipesResponse, error) {
	logger.G(ctx).WithField("request", req).Debug("Listing recipes")

	options := cookbook.QueryOptions{
		Topic:      req.Topic,
		Tag:        req.Tag,
		Difficulty: req.Difficulty,
		Search:     req.Search,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}

	result, err := s.store.Query(ctx, options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query recipes")
	}

	recipes := result.Recipes
	if recipes == nil {
		recipes = []cookbook.Recipe{}
	}
	hasMore := req.Offset+len(recipes) < result.Total

	response := &ListRecipesResponse{
		Recipes: recipes,
		Total:   result.Total,
		Limit:   req.Limit,
		Offset:  req.Offset,
		HasMore: hasMore,
	}

	logger.G(ctx).WithField("count", len(recipes)).Debug("Listed recipes")
	return response, nil
}

// GetRecipe retrieves a recipe with its full markdown content when a
// recipes directory is configured
func (s *RecipeService) GetRecipe(ctx context.Context, id string) (*GetRecipeResponse, error) {
	logger.G(ctx).WithField("id", id).Debug("Getting recipe")

	recipe, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	response := &GetRecipeResponse{Recipe: recipe}
	if s.recipesDir != "" {
		content, err := Content(s.recipesDir, recipe)
		if err != nil {
			logger.G(ctx).WithField("id", id).WithError(err).Debug("Recipe content unavailable")
		} else {
			response.Content = content
		}
	}

	return response, nil
}

// ListTopics retrieves all topics with their recipe counts
func (s *RecipeService) ListTopics(ctx context.Context) (*ListTopicsResponse, error) {
	topics, err := s.store.Topics(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list topics")
	}

	return &ListTopicsResponse{
		Topics: topics,
		Total:  len(topics),
	}, nil
}

// ListTags retrieves all tags with usage counts
func (s *RecipeService) ListTags(ctx context.Context) (*ListTagsResponse, error) {
	tags, err := s.store.TagCounts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tags")
	}
	if tags == nil {
		tags = []cookbook.TagCount{}
	}

	return &ListTagsResponse{
		Tags:  tags,
		Total: len(tags),
	}, nil
}

// Close closes the underlying store
func (s *RecipeService) Close() error {
	return s.store.Close()
}
