// Package health reports process liveness and dependency readiness over HTTP.
//
// GET /healthz answers 200 with a plain "ok" body whenever the process can
// serve requests at all. GET /readyz probes every registered dependency and
// answers 200 only when all of them pass; any failing probe turns the report
// status to "fail" and the HTTP status to 503.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// checkTimeout bounds each dependency probe.
const checkTimeout = 5 * time.Second

// Checker probes one dependency the service needs before it can answer chat
// traffic, such as the campus database or the configured model backend.
type Checker struct {
	// Name keys the probe's entry in the readiness report.
	Name string

	// Check returns nil when the dependency is usable. It must honor ctx
	// cancellation; the handler enforces a deadline per probe.
	Check func(ctx context.Context) error
}

// checkResult is one dependency's entry in the readiness report.
type checkResult struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Elapsed string `json:"elapsed"`
}

// report is the /readyz response body.
type report struct {
	Status string                 `json:"status"`
	Checks map[string]checkResult `json:"checks,omitempty"`
}

// Handler answers the probe endpoints. The checker set is fixed at
// construction, so a Handler is safe for concurrent use.
type Handler struct {
	checkers []Checker
}

// New returns a [Handler] over the given dependency probes.
func New(checkers ...Checker) *Handler {
	return &Handler{checkers: append([]Checker(nil), checkers...)}
}

// Healthz reports process liveness. Serving the request is the proof.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// Readyz runs every probe concurrently, each bounded by [checkTimeout], and
// reports 503 when any dependency fails. Probe latency is included in the
// report so a slow dependency is visible before it becomes a failing one.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	results := make([]checkResult, len(h.checkers))

	var wg sync.WaitGroup
	for i, c := range h.checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			defer cancel()

			start := time.Now()
			err := c.Check(ctx)
			res := checkResult{
				Status:  "ok",
				Elapsed: time.Since(start).Round(time.Millisecond).String(),
			}
			if err != nil {
				res.Status = "fail"
				res.Error = err.Error()
			}
			results[i] = res
		}()
	}
	wg.Wait()

	rep := report{Status: "ok", Checks: make(map[string]checkResult, len(results))}
	status := http.StatusOK
	for i, res := range results {
		rep.Checks[h.checkers[i].Name] = res
		if res.Status != "ok" {
			rep.Status = "fail"
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rep)
}

// Register mounts both probe endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}
