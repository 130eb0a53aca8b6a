package mockvendor

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Options tune the simulated upstreams.
type Options struct {
	// Addr is the listen address, for example ":3000".
	Addr string
	// SlowVendorDelay is applied to every vendor-c response.
	SlowVendorDelay time.Duration
	// FailureRate in [0,1] makes any vendor answer 500 with that probability.
	FailureRate float64
}

// Server serves fake vendor endpoints so the rest of the pipeline can be
// exercised without real upstreams. Routes mirror the production contract:
//
//	GET /mock/vendor-a/{sku}  price/availability/stock
//	GET /mock/vendor-b/{sku}  amount/inStock/stock
//	GET /mock/vendor-c/{sku}  cost/available/quantity (slow)
type Server struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a mock vendor server.
func New(opts Options, logger zerolog.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = ":3000"
	}
	if opts.SlowVendorDelay <= 0 {
		opts.SlowVendorDelay = 500 * time.Millisecond
	}
	return &Server{
		opts:   opts,
		logger: logger.With().Str("component", "mock_vendors").Logger(),
	}
}

// Handler returns the HTTP handler for the mock routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mock/vendor-a/", getOnly(s.vendorA))
	mux.HandleFunc("/mock/vendor-b/", getOnly(s.vendorB))
	mux.HandleFunc("/mock/vendor-c/", getOnly(s.vendorC))
	return mux
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("mock vendor server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("mock vendor server: %w", err)
		}
		return nil
	}
}

// getOnly enforces the GET-only contract that the Go 1.22+ ServeMux
// method patterns expressed; the runtime here predates that syntax.
func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func (s *Server) maybeFail(w http.ResponseWriter) bool {
	if s.opts.FailureRate > 0 && rand.Float64() < s.opts.FailureRate {
		http.Error(w, "simulated upstream failure", http.StatusInternalServerError)
		return true
	}
	return false
}

func (s *Server) vendorA(w http.ResponseWriter, r *http.Request) {
	if s.maybeFail(w) {
		return
	}
	availability := "IN_STOCK"
	if rand.Float64() <= 0.3 {
		availability = "OUT_OF_STOCK"
	}
	stock := 0
	if rand.Float64() > 0.5 {
		stock = 10
	}
	writeJSON(w, map[string]any{
		"price":        roundCents(rand.Float64() * 500),
		"availability": availability,
		"stock":        stock,
	})
}

func (s *Server) vendorB(w http.ResponseWriter, r *http.Request) {
	if s.maybeFail(w) {
		return
	}
	stock := 5
	if rand.Float64() > 0.6 {
		stock = 0
	}
	writeJSON(w, map[string]any{
		"amount":  rand.Intn(300),
		"inStock": rand.Float64() > 0.4,
		"stock":   stock,
	})
}

func (s *Server) vendorC(w http.ResponseWriter, r *http.Request) {
	if s.maybeFail(w) {
		return
	}
	select {
	case <-r.Context().Done():
		return
	case <-time.After(s.opts.SlowVendorDelay):
	}
	quantity := 7
	if rand.Float64() > 0.7 {
		quantity = 0
	}
	writeJSON(w, map[string]any{
		"cost":      rand.Intn(400) + 100,
		"available": rand.Float64() > 0.2,
		"quantity":  quantity,
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func roundCents(v float64) float64 {
	return float64(int(v*100)) / 100
}
