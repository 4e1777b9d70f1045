package protocol

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_events_total",
		Help: "Inbound events dispatched, by event name",
	}, []string{"event"})

	metricInvalidFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_invalid_frames_total",
		Help: "Frames dropped for bad JSON or unknown event names",
	})

	metricPermissionDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_permission_denied_total",
		Help: "Lock or unlock attempts by a non-admin",
	})
)
