package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/banca-tracker/internal/banca-service/auth"
	"github.com/radieske/banca-tracker/internal/banca-service/repo"
	"github.com/radieske/banca-tracker/internal/banca-service/schema"
)

func (s *Server) listBancas(w http.ResponseWriter, r *http.Request) {
	bancas, err := s.repo.ListBancas(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	out := make([]map[string]any, 0, len(bancas))
	for _, b := range bancas {
		m := b.Banca.ToMap()
		m["metricas"] = b.Metricas
		out = append(out, m)
	}
	writeJSON(w, schema.SanitizeAll(out))
}

func (s *Server) getBanca(w http.ResponseWriter, r *http.Request) {
	b, err := s.repo.GetBanca(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeBanca(w, http.StatusOK, b)
}

func (s *Server) createBanca(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	in, err := schema.ParseCreateBanca(raw)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	b, err := s.repo.CreateBanca(r.Context(), auth.UserID(r.Context()), in)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeBanca(w, http.StatusCreated, b)
}

func (s *Server) updateBanca(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(r)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	in, err := schema.ParseUpdateBanca(raw)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	userID, id := auth.UserID(r.Context()), chi.URLParam(r, "id")

	var b repo.Banca
	if in.Empty() {
		b, err = s.repo.GetBanca(r.Context(), userID, id)
	} else {
		b, err = s.repo.UpdateBanca(r.Context(), userID, id, in)
	}
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeBanca(w, http.StatusOK, b)
}

func (s *Server) deleteBanca(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteBanca(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeBanca envia a banca já sem os campos internos (cor)
func writeBanca(w http.ResponseWriter, status int, b repo.Banca) {
	writeJSONStatus(w, status, schema.Sanitize(b.ToMap()))
}
