package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banca_http_requests_total",
		Help: "Requisições HTTP atendidas pela banca-api.",
	}, []string{"route", "method", "status"})

	BetEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banca_bet_events_published_total",
		Help: "Eventos de aposta publicados no bus.",
	}, []string{"type"})

	PlanFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banca_plan_fallbacks_total",
		Help: "Usuários revertidos ao plano de fallback após expirar a promoção.",
	})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banca_bet_notifications_total",
		Help: "Notificações de aposta processadas pelo worker.",
	}, []string{"result"})
)
