// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"nickandperla.net/chatvar/internal/chat"
	"nickandperla.net/chatvar/internal/render"
	"nickandperla.net/chatvar/internal/store"
)

// ProcessRequest is the body of POST /v1/process.
type ProcessRequest struct {
	Messages []*chat.Entry `json:"messages"`
	// Render applies the resulting macros to the store as well.
	Render bool `json:"render"`
}

// ProcessResponse is the reply to POST /v1/process.
type ProcessResponse struct {
	Messages  []*chat.Entry     `json:"messages"`
	Changed   []int             `json:"changed"`
	Variables map[string]string `json:"variables"`
	Writes    []render.Write    `json:"writes,omitempty"`
}

// RenderRequest is the body of POST /v1/render.
type RenderRequest struct {
	Text string `json:"text"`
}

// RenderResponse is the reply to POST /v1/render.
type RenderResponse struct {
	Text   string         `json:"text"`
	Writes []render.Write `json:"writes"`
}

// Variable is one stored variable.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	msgs := make([]chat.Message, len(req.Messages))
	for i, e := range req.Messages {
		if e == nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("message %d is null", i))
			return
		}
		msgs[i] = e
	}

	res := s.proc.ProcessChat(msgs)
	resp := ProcessResponse{
		Messages:  req.Messages,
		Changed:   res.Changed,
		Variables: res.Variables,
	}
	if resp.Messages == nil {
		resp.Messages = []*chat.Entry{}
	}
	if resp.Changed == nil {
		resp.Changed = []int{}
	}
	if req.Render {
		for _, i := range res.Changed {
			out, writes, err := s.proc.Render(msgs[i].Content())
			if err != nil {
				s.writeError(w, r, http.StatusInternalServerError, err)
				return
			}
			msgs[i].SetContent(out)
			resp.Writes = append(resp.Writes, writes...)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	out, writes, err := s.proc.Render(req.Text)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if writes == nil {
		writes = []render.Write{}
	}
	writeJSON(w, http.StatusOK, RenderResponse{Text: out, Writes: writes})
}

func (s *Server) handleListVars(w http.ResponseWriter, r *http.Request) {
	l, ok := s.proc.Store().(store.Lister)
	if !ok {
		s.writeError(w, r, http.StatusNotImplemented, errors.New("store cannot list variables"))
		return
	}
	vars, err := l.List()
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"variables": vars})
}

func (s *Server) handleGetVar(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	v, ok, err := s.proc.Store().Get(name)
	switch {
	case err != nil:
		s.writeError(w, r, http.StatusInternalServerError, err)
	case !ok:
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("variable %q not found", name))
	default:
		writeJSON(w, http.StatusOK, Variable{Name: name, Value: v})
	}
}

func (s *Server) handlePutVar(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.proc.Store().Put(name, body.Value); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, Variable{Name: name, Value: body.Value})
}

func (s *Server) handleDeleteVar(w http.ResponseWriter, r *http.Request) {
	if err := s.proc.Store().Delete(chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	vs, ok := s.proc.Store().(store.Versioned)
	if !ok {
		s.writeError(w, r, http.StatusNotImplemented, errors.New("store keeps no history"))
		return
	}
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid limit %q", q))
			return
		}
		limit = n
	}
	versions, err := vs.Versions(chi.URLParam(r, "name"), limit)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if versions == nil {
		versions = []store.Version{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}
