package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/dragonfly/internal/grid"
	"github.com/dgallion1/dragonfly/internal/session"
	"github.com/dgallion1/dragonfly/internal/tagging"
)

type documentInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	files := s.deps.Lister.Files()
	docs := make([]documentInfo, len(files))
	for i, f := range files {
		docs[i] = documentInfo{Index: i, Name: filepath.Base(f)}
	}
	if r.URL.Query().Get("order") == "recommended" && s.deps.Recommender != nil {
		ordered, err := s.recommendedOrder(files)
		if err != nil {
			s.log.Warn("recommended order unavailable", "error", err)
		} else {
			docs = ordered
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dir":       s.deps.Lister.Dir(),
		"documents": docs,
	})
}

type openRequest struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		sess *session.Session
		res  session.Result
		err  error
	)
	if req.Filename != "" {
		sess, res, err = s.deps.Sessions.OpenFile(req.Filename)
	} else {
		sess, res, err = s.deps.Sessions.Open(req.Index)
	}
	if errors.Is(err, session.ErrDocumentNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("open session failed", "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+sess.ID())
	writeJSON(w, http.StatusCreated, res)
}

// withSession resolves the session named in the URL, writing a 404 when it
// does not exist.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.deps.Sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}
	unsaved := sess.NeedsSaveWarning()
	s.deps.Sessions.Close(id)
	writeJSON(w, http.StatusOK, map[string]any{"closed": id, "unsaved": unsaved})
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Key string `json:"key"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if utf8.RuneCountInString(req.Key) != 1 {
		jsonError(w, "key must be a single character", http.StatusBadRequest)
		return
	}
	key, _ := utf8.DecodeRuneInString(req.Key)
	writeJSON(w, http.StatusOK, sess.Key(key))
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Row      int   `json:"row"`
		Col      int   `json:"col"`
		Modifier *bool `json:"modifier"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Modifier != nil {
		sess.SetModifier(*req.Modifier)
	}
	writeJSON(w, http.StatusOK, sess.Click(req.Row, req.Col))
}

func (s *Server) handleModifier(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Down bool `json:"down"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, sess.SetModifier(req.Down))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Undo())
}

func (s *Server) handleSuspend(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Suspended bool `json:"suspended"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	sess.Suspend(req.Suspended)
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleSessionSave(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}
	res, err := sess.Save()
	if err != nil {
		s.log.Error("save failed", "session_id", sess.ID(), "error", err)
		writeJSON(w, http.StatusInternalServerError, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePayload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Payload())
}

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}
	row, col, err := grid.ParseID(chi.URLParam(r, "tokenID"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	e, err := sess.Entity(row, col)
	if errors.Is(err, tagging.ErrNotEntityStart) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
