package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/utils"
)

type bookmarksResponse struct {
	Generation  uint64            `json:"generation"`
	Bookmarks   []domain.Bookmark `json:"bookmarks"`
	LastRefresh string            `json:"last_refresh,omitempty"`
}

// Bookmarks returns the caller's current list, most recent first.
func Bookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, ok := openScreen(w, r, d, true)
		if !ok {
			return
		}

		view := screen.View()
		writeJSON(w, http.StatusOK, listResponse(view.Generation, view.Bookmarks, screen.LastRefresh()))
	}
}

func listResponse(gen uint64, bookmarks []domain.Bookmark, last time.Time) bookmarksResponse {
	resp := bookmarksResponse{Generation: gen, Bookmarks: bookmarks}
	if !last.IsZero() {
		resp.LastRefresh = last.UTC().Format(time.RFC3339)
	}
	return resp
}

// Refresh triggers a manual refresh of the caller's list. Triggers are
// coalesced: while one is pending, further requests get 429.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, ok := openScreen(w, r, d, true)
		if !ok {
			return
		}

		remoteIP := utils.ClientIP(r, d.TrustProxy)
		if screen.RequestRefresh() {
			d.Logger.Info("manual refresh triggered via endpoint",
				logger.String("remote_ip", remoteIP))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("✅ Refresh triggered successfully\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
			return
		}

		d.Logger.Warn("refresh already pending",
			logger.String("remote_ip", remoteIP))
		w.WriteHeader(http.StatusTooManyRequests)
		if _, err := w.Write([]byte("⏳ Refresh already pending, please wait\n")); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}
