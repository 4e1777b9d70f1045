package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricOpenRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_open_rooms",
		Help: "Rooms with at least one member",
	})

	metricConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_connected_clients",
		Help: "Connections currently joined to a room",
	})

	metricJoinsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_joins_rejected_total",
		Help: "Join attempts rejected because the room was locked",
	})
)
