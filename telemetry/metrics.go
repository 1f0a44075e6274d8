package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsSource supplies the values exported on each scrape.
type StatsSource interface {
	Stats() Stats
}

// Metrics exports engine telemetry as Prometheus gauges.
type Metrics struct {
	registry  *prometheus.Registry
	source    StatsSource
	fps       prometheus.Gauge
	frameTime prometheus.Gauge
	frames    prometheus.Gauge
	textures  prometheus.Gauge
	videos    prometheus.Gauge
	drawCalls prometheus.Gauge
}

// NewMetrics creates and registers the gauges, reading values from src.
func NewMetrics(src StatsSource) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		source:   src,
		fps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aether_fps",
			Help: "Frames rendered in the last one-second window",
		}),
		frameTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aether_frame_time_seconds",
			Help: "Duration of the last frame",
		}),
		frames: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aether_frames",
			Help: "Frames rendered since initialization",
		}),
		textures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aether_media_textures",
			Help: "Live media textures",
		}),
		videos: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aether_video_handles",
			Help: "Live video playback handles",
		}),
		drawCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aether_draw_calls",
			Help: "Draw calls issued by the last frame",
		}),
	}

	registry.MustRegister(
		m.fps,
		m.frameTime,
		m.frames,
		m.textures,
		m.videos,
		m.drawCalls,
	)
	return m
}

// Update copies the current stats into the gauges.
func (m *Metrics) Update() {
	s := m.source.Stats()
	m.fps.Set(float64(s.FPS))
	m.frameTime.Set(s.FrameTime.Seconds())
	m.frames.Set(float64(s.Frames))
	m.textures.Set(float64(s.Textures))
	m.videos.Set(float64(s.Videos))
	m.drawCalls.Set(float64(s.DrawCalls))
}

// Registry returns the registry holding the gauges.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns an http.Handler that refreshes the gauges and serves
// them in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Update()
		h.ServeHTTP(w, r)
	})
}
