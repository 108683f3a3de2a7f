// Package webui provides a local HTTP API over a skill bundle. It exposes
// the recipe index and reference resolution read-only so editors and agent
// integrations can query the bundle without shelling out to the CLI.
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jingkaihe/zigskill/pkg/cookbook"
	"github.com/jingkaihe/zigskill/pkg/logger"
	"github.com/jingkaihe/zigskill/pkg/presenter"
	"github.com/jingkaihe/zigskill/pkg/references"
	"github.com/jingkaihe/zigskill/pkg/version"
)

// Server serves the skill bundle API
type Server struct {
	router   *mux.Router
	recipes  cookbook.RecipeServiceInterface
	resolver *references.Resolver
	config   *ServerConfig
	server   *http.Server
}

// ServerConfig holds the configuration for the API server
type ServerConfig struct {
	Host      string
	Port      int
	SkillRoot string
	Backend   string // Recipe index backend, "json" or "sqlite"
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}

	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.SkillRoot == "" {
		return errors.New("skill root cannot be empty")
	}

	return nil
}

// NewServer creates an API server backed by the recipe index and
// reference layout under the configured skill root
func NewServer(ctx context.Context, config *ServerConfig) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	storeConfig := cookbook.DefaultConfig(config.SkillRoot)
	if config.Backend != "" {
		storeConfig.Backend = config.Backend
	}

	store, err := cookbook.NewStore(ctx, storeConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open recipe index")
	}

	resolver, err := references.NewResolver(config.SkillRoot)
	if err != nil {
		store.Close()
		return nil, errors.Wrap(err, "failed to create reference resolver")
	}

	s := &Server{
		router:   mux.NewRouter(),
		recipes:  cookbook.NewRecipeService(store, cookbook.WithRecipesDir(storeConfig.RecipesDir)),
		resolver: resolver,
		config:   config,
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all the HTTP routes
func (s *Server) setupRoutes() {
	// OPTIONS is routed so the CORS middleware can answer preflight requests
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/recipes", s.handleListRecipes).Methods("GET", "OPTIONS")
	api.HandleFunc("/recipes/{id}", s.handleGetRecipe).Methods("GET", "OPTIONS")
	api.HandleFunc("/topics", s.handleListTopics).Methods("GET", "OPTIONS")
	api.HandleFunc("/tags", s.handleListTags).Methods("GET", "OPTIONS")
	api.HandleFunc("/references/resolve", s.handleResolveReferences).Methods("GET", "OPTIONS")
	api.HandleFunc("/version", s.handleVersion).Methods("GET", "OPTIONS")

	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		logger.G(r.Context()).WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    duration,
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

// corsMiddleware adds CORS headers so browser-based editor integrations
// can call the API
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// API Handlers

// handleListRecipes handles GET /api/recipes
func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	req := &cookbook.ListRecipesRequest{
		Topic:      query.Get("topic"),
		Tag:        query.Get("tag"),
		Difficulty: query.Get("difficulty"),
		Search:     query.Get("q"),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			req.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			req.Offset = offset
		}
	}

	response, err := s.recipes.ListRecipes(ctx, req)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to list recipes", err)
		return
	}

	s.writeJSONResponse(w, response)
}

// handleGetRecipe handles GET /api/recipes/{id}. The full query
// parameter includes the recipe's markdown section from its topic file.
func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]
	full, _ := strconv.ParseBool(r.URL.Query().Get("full"))

	response, err := s.recipes.GetRecipe(ctx, id)
	if err != nil {
		s.writeErrorResponse(w, http.StatusNotFound, "recipe not found", err)
		return
	}

	if !full {
		response.Content = ""
	}

	s.writeJSONResponse(w, response)
}

// handleListTopics handles GET /api/topics
func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	response, err := s.recipes.ListTopics(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to list topics", err)
		return
	}

	s.writeJSONResponse(w, response)
}

// handleListTags handles GET /api/tags
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	response, err := s.recipes.ListTags(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to list tags", err)
		return
	}

	s.writeJSONResponse(w, response)
}

// handleResolveReferences handles GET /api/references/resolve
func (s *Server) handleResolveReferences(w http.ResponseWriter, r *http.Request) {
	versionParam := r.URL.Query().Get("version")
	if versionParam == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "version query parameter is required", nil)
		return
	}

	s.writeJSONResponse(w, s.resolver.Resolve(versionParam))
}

// handleVersion handles GET /api/version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, version.Get())
}

// handleHealthz handles GET /healthz
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, map[string]string{"status": "ok"})
}

// Utility methods

// writeJSONResponse writes a JSON response
func (s *Server) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes an error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		logger.G(context.TODO()).WithError(err).Error(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode error response")
	}
}

// Start starts the API server and blocks until the context is cancelled,
// then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:    address,
		Handler: s.router,
	}

	presenter.Info(fmt.Sprintf("Starting skill API server on http://%s", address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("API server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Stop stops the API server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// Close closes the server and the underlying recipe store
func (s *Server) Close() error {
	if s.recipes != nil {
		if err := s.recipes.Close(); err != nil {
			return errors.Wrap(err, "failed to close recipe service")
		}
	}
	return s.Stop()
}
