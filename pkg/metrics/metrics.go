// Package metrics exposes prometheus instrumentation for the room hub.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the registry and the hub's instruments.
type Metrics struct {
	registry *prometheus.Registry

	connections   *prometheus.GaugeVec
	framesIn      *prometheus.CounterVec
	framesOut     *prometheus.CounterVec
	decodeFailed  prometheus.Counter
	droppedFrames prometheus.Counter
}

// New builds a registry with process/Go collectors plus the hub instruments.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "syncroom"
	}
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	connections := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "connected_clients",
	}, []string{"session"})
	framesIn := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "frames_received_total",
	}, []string{"type"})
	framesOut := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "frames_sent_total",
	}, []string{"type"})
	decodeFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "frames_undecodable_total",
	})
	droppedFrames := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "frames_dropped_total",
	})
	r.MustRegister(connections, framesIn, framesOut, decodeFailed, droppedFrames)

	return &Metrics{
		registry:      r,
		connections:   connections,
		framesIn:      framesIn,
		framesOut:     framesOut,
		decodeFailed:  decodeFailed,
		droppedFrames: droppedFrames,
	}
}

func (m *Metrics) ClientConnected(session string)    { m.connections.WithLabelValues(session).Inc() }
func (m *Metrics) ClientDisconnected(session string) { m.connections.WithLabelValues(session).Dec() }
func (m *Metrics) FrameReceived(typ string)          { m.framesIn.WithLabelValues(typ).Inc() }
func (m *Metrics) FrameSent(typ string)              { m.framesOut.WithLabelValues(typ).Inc() }
func (m *Metrics) DecodeFailed()                     { m.decodeFailed.Inc() }
func (m *Metrics) FrameDropped()                     { m.droppedFrames.Inc() }

// Handler returns the gin handler serving the registry.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
