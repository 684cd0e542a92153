// Package metrics holds the Prometheus collectors exported by a
// wavebase session and its row cache.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Session collects connection-lifecycle metrics for one client session.
type Session struct {
	ReconnectsTotal  prometheus.Counter
	FramesReceived   prometheus.Counter
	FramesDropped    prometheus.Counter
	PendingCalls     prometheus.Gauge
	ActiveSubscriptions prometheus.Gauge
	ConnectionState  *prometheus.GaugeVec
}

// NewSession builds a Session metric set and registers it against reg.
// Pass a fresh prometheus.NewRegistry() per session to avoid duplicate
// registration when a process opens more than one wavebase session.
func NewSession(reg prometheus.Registerer) *Session {
	s := &Session{
		ReconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wavebase",
			Subsystem: "session",
			Name:      "reconnects_total",
			Help:      "Total number of reconnect attempts started.",
		}),
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wavebase",
			Subsystem: "session",
			Name:      "frames_received_total",
			Help:      "Total number of inbound WebSocket frames processed.",
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wavebase",
			Subsystem: "session",
			Name:      "frames_dropped_total",
			Help:      "Total number of inbound frames dropped due to decode errors.",
		}),
		PendingCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wavebase",
			Subsystem: "session",
			Name:      "pending_calls",
			Help:      "Current number of in-flight reducer/procedure calls.",
		}),
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wavebase",
			Subsystem: "session",
			Name:      "active_subscriptions",
			Help:      "Current number of active subscription handles.",
		}),
		ConnectionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wavebase",
			Subsystem: "session",
			Name:      "connection_state",
			Help:      "Current connection state (1 = active, 0 = inactive), labeled by state name.",
		}, []string{"state"}),
	}
	reg.MustRegister(
		s.ReconnectsTotal,
		s.FramesReceived,
		s.FramesDropped,
		s.PendingCalls,
		s.ActiveSubscriptions,
		s.ConnectionState,
	)
	return s
}

// SetState zeroes every known state gauge and sets only the active one,
// so dashboards can graph state as a step function.
func (s *Session) SetState(states []string, active string) {
	for _, name := range states {
		if name == active {
			s.ConnectionState.WithLabelValues(name).Set(1)
		} else {
			s.ConnectionState.WithLabelValues(name).Set(0)
		}
	}
}

// Cache collects row cache change-detection totals, mirroring the
// in-memory totalInserts/totalDeletes/totalUpdates counters rowcache
// keeps per spec.
type Cache struct {
	InsertsTotal *prometheus.CounterVec
	DeletesTotal *prometheus.CounterVec
	UpdatesTotal *prometheus.CounterVec
	RowsCurrent  *prometheus.GaugeVec
}

func NewCache(reg prometheus.Registerer) *Cache {
	c := &Cache{
		InsertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wavebase",
			Subsystem: "cache",
			Name:      "inserts_total",
			Help:      "Total number of insert events dispatched, by table.",
		}, []string{"table"}),
		DeletesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wavebase",
			Subsystem: "cache",
			Name:      "deletes_total",
			Help:      "Total number of delete events dispatched, by table.",
		}, []string{"table"}),
		UpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wavebase",
			Subsystem: "cache",
			Name:      "updates_total",
			Help:      "Total number of update events dispatched, by table.",
		}, []string{"table"}),
		RowsCurrent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wavebase",
			Subsystem: "cache",
			Name:      "rows_current",
			Help:      "Current number of rows held, by table.",
		}, []string{"table"}),
	}
	reg.MustRegister(c.InsertsTotal, c.DeletesTotal, c.UpdatesTotal, c.RowsCurrent)
	return c
}
