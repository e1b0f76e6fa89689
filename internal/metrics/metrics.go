package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Requests         *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	FollowRequests   prometheus.Counter
	Unfollows        prometheus.Counter
	RequestsResolved *prometheus.CounterVec
	MessagesSent     prometheus.Counter
	MessagesRead     prometheus.Counter
	ProjectsCreated  prometheus.Counter
	ProjectReactions *prometheus.CounterVec
	WSConnections    prometheus.Gauge
}

// New builds the collectors and registers them on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not panic.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		FollowRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "follow_requests_total",
			Help: "Total number of follow requests created",
		}),
		Unfollows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unfollows_total",
			Help: "Total number of removed follow edges or cancelled requests",
		}),
		RequestsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "follow_requests_resolved_total",
				Help: "Total number of follow requests accepted or declined",
			},
			[]string{"outcome"},
		),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Total number of direct messages sent",
		}),
		MessagesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messages_read_total",
			Help: "Total number of direct messages marked read",
		}),
		ProjectsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "projects_created_total",
			Help: "Total number of gallery projects created",
		}),
		ProjectReactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "project_reactions_total",
				Help: "Likes and saves added or removed",
			},
			[]string{"kind", "action"},
		),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Currently open websocket connections",
		}),
	}

	reg.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.FollowRequests,
		m.Unfollows,
		m.RequestsResolved,
		m.MessagesSent,
		m.MessagesRead,
		m.ProjectsCreated,
		m.ProjectReactions,
		m.WSConnections,
	)
	return m
}
