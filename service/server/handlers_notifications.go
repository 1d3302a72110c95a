package server

import (
	"net/http"

	"shiny/service/delivery"
	"shiny/service/util"
)

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var n delivery.Notification
	if err := util.DecodeJSON(r, &n); err != nil {
		util.JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.publisher.Publish(r.Context(), n)
	switch {
	case err == nil:
		util.WriteJSON(w, http.StatusAccepted, result)
	case result == nil && delivery.IsPermanent(err):
		util.JSONError(w, err.Error(), http.StatusBadRequest)
	case result == nil:
		util.LogAndError(w, s.logger, "Failed to publish notification", http.StatusInternalServerError, err)
	default:
		s.logger.Warn("Notification not delivered", "channel", result.Channel, "error", err)
		util.WriteJSON(w, http.StatusBadGateway, result)
	}
}
