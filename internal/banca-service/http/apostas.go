package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/banca-tracker/internal/banca-service/auth"
	"github.com/radieske/banca-tracker/internal/banca-service/repo"
	"github.com/radieske/banca-tracker/internal/banca-service/schema"
	cevents "github.com/radieske/banca-tracker/pkg/contracts/events"
)

var errDailyLimit = &HTTPError{Status: http.StatusTooManyRequests, Message: "daily bet limit reached"}

func (s *Server) listApostas(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.ListApostas(r.Context(), auth.UserID(r.Context()), r.URL.Query().Get("bancaId"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if list == nil {
		list = []repo.Aposta{}
	}
	writeJSON(w, list)
}

func (s *Server) getAposta(w http.ResponseWriter, r *http.Request) {
	a, err := s.repo.GetAposta(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, a)
}

func (s *Server) createAposta(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserID(ctx)

	raw, err := decodeBody(r)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	in, err := schema.ParseCreateAposta(raw)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	a, err := s.repo.CreateAposta(ctx, userID, in, s.startOfDay())
	if errors.Is(err, repo.ErrDailyLimit) {
		err = errDailyLimit
	}
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	s.publish(ctx, userID, cevents.BetCreated, a)
	writeJSONStatus(w, http.StatusCreated, a)
}

func (s *Server) updateAposta(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserID(ctx)

	raw, err := decodeBody(r)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	in, err := schema.ParseUpdateAposta(raw)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	a, err := s.repo.UpdateAposta(ctx, userID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if !in.Empty() {
		s.publish(ctx, userID, cevents.BetUpdated, a)
	}
	writeJSON(w, a)
}

func (s *Server) deleteAposta(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserID(ctx)

	a, err := s.repo.DeleteAposta(ctx, userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	s.publish(ctx, userID, cevents.BetDeleted, a)
	w.WriteHeader(http.StatusNoContent)
}

// startOfDay é o início do dia corrente (UTC), base do limite diário de apostas
func (s *Server) startOfDay() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// publish notifica os ouvintes do barramento; a operação já foi persistida,
// então falhas só são logadas
func (s *Server) publish(ctx context.Context, userID string, typ cevents.BetEventType, a repo.Aposta) {
	err := s.bus.Publish(ctx, cevents.BetEvent{UserID: userID, Type: typ, Payload: a, Ts: s.now().UTC()})
	if err != nil {
		s.log.Warn("publish bet event", zap.String("type", string(typ)), zap.String("apostaId", a.ID), zap.Error(err))
	}
}
