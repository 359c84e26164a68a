package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
)

// componentTimeout bounds each component ping.
const componentTimeout = 2 * time.Second

type readyzResponse struct {
	Ready  bool     `json:"ready"`
	Failed []string `json:"failed,omitempty"`
}

// Readyz answers 200 when every backing component responds, 503 otherwise.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var failed []string
		for name, err := range pingAll(r.Context(), d.Components) {
			if err != nil {
				failed = append(failed, name)
			}
		}
		sort.Strings(failed)

		status := http.StatusOK
		if len(failed) > 0 {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{Ready: len(failed) == 0, Failed: failed})
	}
}

// pingAll pings every component concurrently.
func pingAll(ctx context.Context, components map[string]deps.Pinger) map[string]error {
	type result struct {
		name string
		err  error
	}

	ctx, cancel := context.WithTimeout(ctx, componentTimeout)
	defer cancel()

	ch := make(chan result, len(components))
	for name, c := range components {
		go func(name string, c deps.Pinger) {
			ch <- result{name: name, err: c.Ping(ctx)}
		}(name, c)
	}

	out := make(map[string]error, len(components))
	for range components {
		res := <-ch
		out[res.name] = res.err
	}
	return out
}
