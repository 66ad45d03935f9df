package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/banca-tracker/internal/banca-service/events"
	"github.com/radieske/banca-tracker/internal/banca-service/repo"
	"github.com/radieske/banca-tracker/internal/banca-service/schema"
	"github.com/radieske/banca-tracker/internal/shared/metrics"
)

// Repo define as operações de persistência usadas pelos handlers
type Repo interface {
	ListBancas(ctx context.Context, userID string) ([]repo.BancaComMetricas, error)
	GetBanca(ctx context.Context, userID, id string) (repo.Banca, error)
	CreateBanca(ctx context.Context, userID string, in schema.CreateBanca) (repo.Banca, error)
	UpdateBanca(ctx context.Context, userID, id string, in schema.UpdateBanca) (repo.Banca, error)
	DeleteBanca(ctx context.Context, userID, id string) error

	ListApostas(ctx context.Context, userID, bancaID string) ([]repo.Aposta, error)
	GetAposta(ctx context.Context, userID, id string) (repo.Aposta, error)
	// CreateAposta aplica o limite diário contado a partir de since (repo.ErrDailyLimit)
	CreateAposta(ctx context.Context, userID string, in schema.CreateAposta, since time.Time) (repo.Aposta, error)
	UpdateAposta(ctx context.Context, userID, id string, in schema.UpdateAposta) (repo.Aposta, error)
	DeleteAposta(ctx context.Context, userID, id string) (repo.Aposta, error)
}

// Middleware envolve o router (auth, plano, ...)
type Middleware func(http.Handler) http.Handler

// Server expõe a API de bancas e apostas
type Server struct {
	log    *zap.Logger
	repo   Repo
	bus    events.Bus
	stream Streamer
	mws    []Middleware
	now    func() time.Time
}

// Streamer atende a conexão websocket de eventos do usuário
type Streamer interface {
	HandleWS(w http.ResponseWriter, r *http.Request)
}

// NewServer instancia o servidor; middlewares são aplicados na ordem recebida
// (o primeiro é o mais externo)
func NewServer(log *zap.Logger, r Repo, bus events.Bus, mws ...Middleware) *Server {
	return &Server{log: log, repo: r, bus: bus, mws: mws, now: time.Now}
}

// WithStream habilita GET /api/apostas/stream
func (s *Server) WithStream(st Streamer) *Server {
	s.stream = st
	return s
}

// Router retorna o roteador HTTP com todas as rotas da API
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.countRequests)
	for _, mw := range s.mws {
		r.Use(mw)
	}

	r.Route("/api/bancas", func(r chi.Router) {
		r.Get("/", s.listBancas)
		r.Post("/", s.createBanca)
		r.Get("/{id}", s.getBanca)
		r.Put("/{id}", s.updateBanca)
		r.Delete("/{id}", s.deleteBanca)
	})
	r.Route("/api/apostas", func(r chi.Router) {
		r.Get("/", s.listApostas) // ?bancaId=...
		r.Post("/", s.createAposta)
		if s.stream != nil {
			r.Get("/stream", s.stream.HandleWS) // eventos do usuário em tempo real
		}
		r.Get("/{id}", s.getAposta)
		r.Put("/{id}", s.updateAposta)
		r.Delete("/{id}", s.deleteAposta)
	})
	return r
}

// countRequests conta requisições por rota/método/status
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack repassa ao writer original; necessário para o upgrade do websocket
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

// decodeBody lê o corpo JSON como mapa genérico (números como json.Number)
func decodeBody(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &HTTPError{Status: http.StatusBadRequest, Message: "bad json"}
	}
	return raw, nil
}

// writeJSON serializa e envia resposta JSON com status 200
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
