package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/dashboard"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
)

// EventsHeartbeat keeps idle proxies from closing the stream.
const EventsHeartbeat = 25 * time.Second

// Events streams the caller's list as server-sent events: one "bookmarks"
// event on connect and one after every replace. Bursts are coalesced, the
// client always receives the latest list.
func Events(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen, ok := openScreen(w, r, d, true)
		if !ok {
			return
		}

		rc := http.NewResponseController(w)
		// The stream outlives the server write timeout.
		if err := rc.SetWriteDeadline(time.Time{}); err != nil {
			d.Logger.Debug("cannot lift write deadline", logger.Error(err))
		}

		updates, cancel := screen.Watch()
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		send := func() error {
			view := screen.View()
			data, err := json.Marshal(listResponse(view.Generation, view.Bookmarks, screen.LastRefresh()))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: bookmarks\ndata: %s\n\n", data); err != nil {
				return err
			}
			return rc.Flush()
		}

		if err := send(); err != nil {
			d.Logger.Debug("event stream closed", logger.Error(err))
			return
		}

		heartbeat := time.NewTicker(EventsHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-updates:
				if err := send(); err != nil {
					d.Logger.Debug("event stream closed", logger.Error(err))
					return
				}
			case <-heartbeat.C:
				if screen.SubscriptionState() == dashboard.Released {
					// screen signed out or evicted
					return
				}
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := rc.Flush(); err != nil {
					return
				}
			}
		}
	}
}
