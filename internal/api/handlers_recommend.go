package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/dragonfly/internal/recommend"
)

type buildRequest struct {
	Name   string           `json:"name"`
	Config recommend.Config `json:"config"`
}

func includeComplete(r *http.Request) bool {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	return all
}

func (s *Server) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	names, err := s.deps.Recommender.List()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": names})
}

func (s *Server) handleLatestRecommendation(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Recommender.Latest(includeComplete(r))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Recommender.Get(chi.URLParam(r, "name"), includeComplete(r))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleBuildRecommendation(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Config.Words) == 0 {
		jsonError(w, "words are required", http.StatusBadRequest)
		return
	}
	rec, err := s.deps.Recommender.Build(req.Name, req.Config)
	if errors.Is(err, recommend.ErrInvalidName) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.log.Error("recommendation build failed", "name", req.Name, "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// handleFrequencies reports, for each word parameter, the share of its
// saved occurrences that were tagged.
func (s *Server) handleFrequencies(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]float64)
	for _, word := range r.URL.Query()["word"] {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		p, err := s.deps.Frequencies.Percentage(word)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out[strings.ToLower(word)] = p
	}
	writeJSON(w, http.StatusOK, out)
}

// recommendedOrder lists the documents in the order of the latest
// recommendation, followed by any it does not name.
func (s *Server) recommendedOrder(files []string) ([]documentInfo, error) {
	rec, err := s.deps.Recommender.Latest(true)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(files))
	for i, f := range files {
		index[f] = i
	}
	docs := make([]documentInfo, 0, len(files))
	seen := make(map[int]bool, len(files))
	for _, it := range rec.Items {
		if i, ok := index[it.Path]; ok && !seen[i] {
			seen[i] = true
			docs = append(docs, documentInfo{Index: i, Name: filepath.Base(files[i])})
		}
	}
	for i, f := range files {
		if !seen[i] {
			docs = append(docs, documentInfo{Index: i, Name: filepath.Base(f)})
		}
	}
	return docs, nil
}
