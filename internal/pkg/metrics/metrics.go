// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edumeal",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	TicketScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edumeal",
		Name:      "ticket_scans_total",
		Help:      "Ticket scans by outcome.",
	}, []string{"outcome"})

	TicketsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "edumeal",
		Name:      "tickets_generated_total",
		Help:      "Tickets created by daily generation.",
	})

	MealGrants = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edumeal",
		Name:      "meal_grants_total",
		Help:      "Meal-credit grants by channel and result.",
	}, []string{"channel", "result"})

	MealsGranted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "edumeal",
		Name:      "meals_granted_total",
		Help:      "Meals credited to students.",
	})

	Webhooks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edumeal",
		Name:      "webhooks_total",
		Help:      "Inbound payment webhooks by result.",
	}, []string{"source", "result"})

	ActivitySubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "edumeal",
		Name:      "activity_feed_clients",
		Help:      "Connected activity feed WebSocket clients.",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
