package server

import (
	"net/http"
	"time"

	"shiny/service/util"
)

type healthResponse struct {
	Version     string          `json:"version"`
	Uptime      string          `json:"uptime"`
	Senders     []string        `json:"senders"`
	LastRebuild *rebuildSummary `json:"last_rebuild,omitempty"`
}

type rebuildSummary struct {
	At         time.Time `json:"at"`
	Categories int       `json:"categories"`
	Error      string    `json:"error,omitempty"`
}

func (s *Server) lastRebuild() *rebuildSummary {
	ev := s.channels.LastRebuild()
	if ev == nil {
		return nil
	}
	summary := &rebuildSummary{At: ev.At, Categories: ev.Categories}
	if ev.Err != nil {
		summary.Error = ev.Err.Error()
	}
	return summary
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	util.WriteJSON(w, http.StatusOK, healthResponse{
		Version:     s.version,
		Uptime:      time.Since(s.startTime).Round(time.Second).String(),
		Senders:     s.publisher.Senders(),
		LastRebuild: s.lastRebuild(),
	})
}
