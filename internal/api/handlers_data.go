package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/dragonfly/internal/data"
	"github.com/dgallion1/dragonfly/internal/geonames"
	"github.com/dgallion1/dragonfly/internal/notes"
	"github.com/dgallion1/dragonfly/internal/stats"
	"github.com/dgallion1/dragonfly/internal/store"
)

const dictionaryLimit = 50

// handleSave stores a client-built payload after schema validation.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	payload, err := data.ValidatePayload(raw)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	path, err := data.WriteAnnotations(s.cfg.OutputDir, payload)
	if err != nil {
		s.log.Error("save failed", "file", payload.Filename, "error", err)
		jsonError(w, "Annotations could not be saved", http.StatusInternalServerError)
		return
	}
	s.log.Info("annotations saved", "file", payload.Filename, "path", path)
	s.updateFrequencies(payload)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Annotations saved.", "path": path})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Settings.Load()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	// Start from the stored values so a partial body only changes the
	// keys it names.
	st, err := s.deps.Settings.Load()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !decodeJSON(w, r, &st) {
		return
	}
	if st.ColumnWidth <= 0 {
		jsonError(w, "Column Width must be positive", http.StatusBadRequest)
		return
	}
	if err := s.deps.Settings.Save(st); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleTranslations(w http.ResponseWriter, r *http.Request) {
	dict, err := s.deps.Store.Translations(chi.URLParam(r, "lang"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dict)
}

func (s *Server) handleAddTranslation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lang string `json:"lang"`
		store.Translation
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Lang == "" {
		req.Lang = s.cfg.Lang
	}
	if strings.TrimSpace(req.Source) == "" {
		jsonError(w, "source is required", http.StatusBadRequest)
		return
	}
	if err := s.deps.Store.AddTranslation(req.Lang, req.Translation); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"lang": req.Lang, "source": strings.ToLower(req.Source)})
}

func (s *Server) handleDeleteTranslation(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		jsonError(w, "source is required", http.StatusBadRequest)
		return
	}
	deleted, err := s.deps.Store.DeleteTranslation(chi.URLParam(r, "lang"), source)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		jsonError(w, "translation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleDictionary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		jsonError(w, "q is required", http.StatusBadRequest)
		return
	}
	entries, err := s.deps.Store.SearchTranslations(chi.URLParam(r, "lang"), q, dictionaryLimit)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleStopWords(w http.ResponseWriter, r *http.Request) {
	n := s.cfg.StopWordCount
	if v := r.URL.Query().Get("n"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ready":      s.deps.Search.Ready(),
		"stop_words": s.deps.Search.Index().StopWords(n),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		jsonError(w, "q is required", http.StatusBadRequest)
		return
	}
	wildcards, _ := strconv.ParseBool(r.URL.Query().Get("wildcards"))
	res := s.deps.Search.Retrieve(q, wildcards)
	writeJSON(w, http.StatusOK, map[string]any{
		"ready": s.deps.Search.Ready(),
		"terms": res.Terms,
		"count": res.Count,
		"refs":  res.Refs,
	})
}

func (s *Server) handleHints(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		writeJSON(w, http.StatusOK, map[string]any{"hints": s.deps.Hints.All()})
		return
	}
	h, ok := s.deps.Hints.Apply(text)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"match": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"match": h})
}

func (s *Server) handleGetNotes(w http.ResponseWriter, r *http.Request) {
	doc := chi.URLParam(r, "doc")
	if r.URL.Query().Get("format") == "html" {
		html, err := s.deps.Notes.RenderHTML(doc)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, html)
		return
	}
	text, err := s.deps.Notes.Load(doc)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"doc": noteName(doc), "text": text})
}

func (s *Server) handlePutNotes(w http.ResponseWriter, r *http.Request) {
	doc := chi.URLParam(r, "doc")
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.deps.Notes.Save(doc, req.Text); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"doc": noteName(doc)})
}

func noteName(doc string) string {
	if doc == "" {
		return notes.Global
	}
	return sanitizeFilename(doc)
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	doc := sanitizeFilename(chi.URLParam(r, "doc"))
	marked, err := s.deps.Store.Markers(doc)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc": doc, "sentences": marked})
}

func (s *Server) handleToggleMarker(w http.ResponseWriter, r *http.Request) {
	doc := sanitizeFilename(chi.URLParam(r, "doc"))
	sentence, err := strconv.Atoi(chi.URLParam(r, "sentence"))
	if err != nil || sentence < 0 {
		jsonError(w, "sentence must be a non-negative integer", http.StatusBadRequest)
		return
	}
	marked, err := s.deps.Store.ToggleMarker(doc, sentence)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc": doc, "sentence": sentence, "marked": marked})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := stats.CollectDir(s.cfg.AnnotationsPath())
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st.Summary())
}

func (s *Server) handleGeonames(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		jsonError(w, "q is required", http.StatusBadRequest)
		return
	}
	st, err := s.deps.Settings.Load()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fuzzy := geonames.DefaultFuzzy
	if v := r.URL.Query().Get("fuzzy"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			fuzzy = f
		}
	}

	resp, err := s.deps.Geonames.Search(r.Context(), geonames.Query{
		Term:      q,
		Fuzzy:     fuzzy,
		Username:  st.GeonamesUsername,
		Countries: st.CountryCodes(),
	})
	if errors.Is(err, geonames.ErrNoUsername) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.log.Warn("geonames search failed", "q", q, "error", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// updateFrequencies records a saved payload in the tagged-token counts.
func (s *Server) updateFrequencies(p data.SavePayload) {
	if s.deps.Frequencies == nil {
		return
	}
	if err := s.deps.Frequencies.Update(p); err != nil {
		s.log.Warn("tag frequencies not updated", "file", p.Filename, "error", err)
	}
}
