package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	Status       string                     `json:"status"`
	StoreBackend string                     `json:"store_backend"`
	LiveScreens  int                        `json:"live_screens"`
	Providers    []string                   `json:"providers"`
	Components   map[string]componentStatus `json:"components"`
}

// Infra reports the state of every backing component.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := make(map[string]componentStatus, len(d.Components))
		for name, err := range pingAll(r.Context(), d.Components) {
			components[name] = checkComponent(name, err)
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:       determineStatus(components),
			StoreBackend: d.StoreBackend,
			LiveScreens:  d.Screens.Count(),
			Providers:    d.Providers.Names(),
			Components:   components,
		})
	}
}

func checkComponent(name string, err error) componentStatus {
	if err == nil {
		return componentStatus{OK: true, Mode: "optimal"}
	}

	status := componentStatus{OK: false, Mode: "down", Error: err.Error()}
	switch name {
	case "redis":
		status.Impact = "sessions-and-live-updates-unavailable"
	case "sqlite":
		status.Impact = "bookmarks-unavailable"
	}
	return status
}

func determineStatus(components map[string]componentStatus) string {
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "ok"
}
