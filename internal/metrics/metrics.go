// Package metrics defines the Prometheus instrumentation for the Parley
// session layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_connections_active",
			Help: "Currently open WebSocket connections",
		},
	)

	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_connections_total",
			Help: "Total WebSocket connections accepted",
		},
	)

	// Protocol metrics
	FramesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_frames_received_total",
			Help: "Inbound frames by type",
		},
		[]string{"type"},
	)

	FrameErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_frame_errors_total",
			Help: "Error frames emitted, by error kind",
		},
		[]string{"kind"},
	)

	AuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_auth_failures_total",
			Help: "Failed authenticate handshakes",
		},
	)

	// Room metrics
	RoomJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_room_joins_total",
			Help: "Successful room joins",
		},
	)

	MessagesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_messages_appended_total",
			Help: "Chat messages appended to room history",
		},
	)

	FanoutDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_fanout_deliveries_total",
			Help: "Frames enqueued to room members during fanout",
		},
	)

	FanoutDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_fanout_drops_total",
			Help: "Recipients ejected because a fanout delivery failed",
		},
	)
)
