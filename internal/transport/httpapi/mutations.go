package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/diary/internal/frontend"
)

type initializeRequest struct {
	SecretPhrase string `json:"secretPhrase"`
}

type addEntryRequest struct {
	SecretPhrase string `json:"secretPhrase"`
	Title        string `json:"title"`
	Content      string `json:"content"`
}

type updateEntryRequest struct {
	SecretPhrase string  `json:"secretPhrase"`
	Title        *string `json:"title"`
	Content      *string `json:"content"`
}

type deleteEntryRequest struct {
	SecretPhrase string `json:"secretPhrase"`
}

type addEntriesRequest struct {
	SecretPhrase string                `json:"secretPhrase"`
	Entries      []frontend.BatchEntry `json:"entries"`
}

func (s *server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	ack, err := s.mutations.Initialize(r.Context(), callerFromContext(r.Context()), req.SecretPhrase)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

func (s *server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	ack, err := s.mutations.AddEntry(r.Context(), callerFromContext(r.Context()), req.SecretPhrase, req.Title, req.Content)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

func (s *server) handleAddEntries(w http.ResponseWriter, r *http.Request) {
	var req addEntriesRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	acks, err := s.mutations.AddEntries(r.Context(), callerFromContext(r.Context()), req.SecretPhrase, req.Entries)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, acks)
}

func (s *server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	var req updateEntryRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	ack, err := s.mutations.UpdateEntry(r.Context(), callerFromContext(r.Context()), req.SecretPhrase, id, req.Title, req.Content)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

func (s *server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	var req deleteEntryRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	ack, err := s.mutations.DeleteEntry(r.Context(), callerFromContext(r.Context()), req.SecretPhrase, id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}
