package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/dragonfly/internal/config"
	"github.com/dgallion1/dragonfly/internal/data"
	"github.com/dgallion1/dragonfly/internal/geonames"
	"github.com/dgallion1/dragonfly/internal/hints"
	"github.com/dgallion1/dragonfly/internal/notes"
	"github.com/dgallion1/dragonfly/internal/pipeline"
	"github.com/dgallion1/dragonfly/internal/recommend"
	"github.com/dgallion1/dragonfly/internal/search"
	"github.com/dgallion1/dragonfly/internal/session"
	"github.com/dgallion1/dragonfly/internal/settings"
	"github.com/dgallion1/dragonfly/internal/store"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Sessions     *session.Manager
	Lister       *data.FileLister
	Search       *search.Local
	Store        *store.Store
	Settings     *settings.Manager
	Notes        *notes.Notepad
	Hints        *hints.Set
	Geonames     *geonames.Client
	Orchestrator *pipeline.Orchestrator
	Recommender  *recommend.Recommender
	Frequencies  *recommend.Frequencies
}

// Server is the HTTP API server for the annotation tool.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/documents", s.handleListDocuments)

		r.Post("/sessions", s.handleOpenSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleSessionState)
			r.Delete("/", s.handleCloseSession)
			r.Post("/keys", s.handleKey)
			r.Post("/clicks", s.handleClick)
			r.Post("/modifier", s.handleModifier)
			r.Post("/undo", s.handleUndo)
			r.Post("/suspend", s.handleSuspend)
			r.Post("/save", s.handleSessionSave)
			r.Get("/payload", s.handlePayload)
			r.Get("/entity/{tokenID}", s.handleEntity)
		})

		r.Post("/save", s.handleSave)

		r.Get("/settings", s.handleGetSettings)
		r.Post("/settings", s.handlePutSettings)

		r.Get("/translations/{lang}", s.handleTranslations)
		r.Post("/translations", s.handleAddTranslation)
		r.Delete("/translations/{lang}", s.handleDeleteTranslation)
		r.Get("/dictionary/{lang}", s.handleDictionary)

		r.Get("/stop_words", s.handleStopWords)
		r.Get("/search", s.handleSearch)
		r.Get("/hints", s.handleHints)

		r.Get("/notes/{doc}", s.handleGetNotes)
		r.Post("/notes/{doc}", s.handlePutNotes)

		r.Get("/markers/{doc}", s.handleMarkers)
		r.Post("/markers/{doc}/{sentence}", s.handleToggleMarker)

		r.Get("/recommendations", s.handleListRecommendations)
		r.Post("/recommendations", s.handleBuildRecommendation)
		r.Get("/recommendations/latest", s.handleLatestRecommendation)
		r.Get("/recommendations/{name}", s.handleGetRecommendation)
		r.Get("/frequencies", s.handleFrequencies)

		r.Get("/stats", s.handleStats)
		r.Get("/geonames", s.handleGeonames)

		r.Post("/import", s.handleImport)
		r.Get("/import/{jobID}/status", s.handleImportStatus)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"documents":    s.deps.Lister.Len(),
		"sessions":     s.deps.Sessions.Len(),
		"search_ready": s.deps.Search != nil && s.deps.Search.Ready(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
