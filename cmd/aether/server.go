package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gogpu/aether"
	"github.com/gogpu/aether/telemetry"
)

const shutdownTimeout = 5 * time.Second

// status is the body of GET /status.
type status struct {
	State       string  `json:"state"`
	FPS         int     `json:"fps"`
	FrameTimeMS float64 `json:"frame_time_ms"`
	Frames      uint64  `json:"frames"`
	Textures    int     `json:"textures"`
	Videos      int     `json:"videos"`
	DrawCalls   int     `json:"draw_calls"`
}

// newRouter serves the Prometheus metrics, a JSON status and a health
// check of eng.
func newRouter(eng *aether.Engine) http.Handler {
	met := telemetry.NewMetrics(eng.Counters())

	r := chi.NewRouter()
	r.Get("/metrics", met.Handler().ServeHTTP)
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		s := eng.Telemetry()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status{
			State:       eng.State().String(),
			FPS:         s.FPS,
			FrameTimeMS: float64(s.FrameTime) / float64(time.Millisecond),
			Frames:      s.Frames,
			Textures:    s.Textures,
			Videos:      s.Videos,
			DrawCalls:   s.DrawCalls,
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if eng.State() == aether.StateFailed {
			http.Error(w, "engine failed", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

// server is the optional metrics HTTP server.
type server struct {
	srv *http.Server
}

// startServer listens on addr in the background. An empty addr returns a
// server whose shutdown does nothing.
func startServer(addr string, eng *aether.Engine, log *slog.Logger) *server {
	if addr == "" {
		return &server{}
	}
	srv := &http.Server{Addr: addr, Handler: newRouter(eng), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logFatal(log, "metrics server error", err)
		}
	}()
	log.Info("metrics server starting", "addr", addr)
	return &server{srv: srv}
}

func (s *server) shutdown(log *slog.Logger) {
	if s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Error("metrics server shutdown", "err", err)
	}
}
