package server

import (
	"errors"
	"net/http"

	"shiny/service/channel"
	"shiny/service/registry"
	"shiny/service/util"

	"github.com/go-chi/chi/v5"
)

type channelRequest struct {
	Identifier  string           `json:"identifier,omitempty"`
	Description string           `json:"description,omitempty"`
	Actions     []channel.Action `json:"actions"`
}

// writeChannelError maps channel errors onto HTTP statuses. Unsupported
// action types are checked before rebuild failures since they arrive
// wrapped in one.
func (s *Server) writeChannelError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, channel.ErrNotFound):
		status = http.StatusNotFound
	case channel.IsValidation(err):
		status = http.StatusBadRequest
	case channel.IsUnsupportedAction(err):
		status = http.StatusUnprocessableEntity
	case channel.IsRebuild(err):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "error", err)
	} else {
		s.logger.Debug(msg, "error", err)
	}
	util.JSONError(w, err.Error(), status)
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.channels.GetAll(r.Context())
	if err != nil {
		s.writeChannelError(w, "Failed to list channels", err)
		return
	}
	if channels == nil {
		channels = []channel.Channel{}
	}
	util.WriteJSON(w, http.StatusOK, channels)
}

func (s *Server) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	c, err := s.channels.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeChannelError(w, "Failed to get channel", err)
		return
	}
	util.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) handlePutChannel(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		util.JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	c := channel.Channel{
		Identifier:  chi.URLParam(r, "id"),
		Description: req.Description,
		Actions:     req.Actions,
	}
	if c.Actions == nil {
		c.Actions = []channel.Action{}
	}

	if err := s.channels.Add(r.Context(), c); err != nil {
		s.writeChannelError(w, "Failed to save channel", err)
		return
	}

	s.logger.Info("Saved channel", "channel", c.Identifier, "actions", len(c.Actions))
	util.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.channels.Remove(r.Context(), id); err != nil {
		s.writeChannelError(w, "Failed to remove channel", err)
		return
	}

	s.logger.Info("Removed channel", "channel", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearChannels(w http.ResponseWriter, r *http.Request) {
	if err := s.channels.Clear(r.Context()); err != nil {
		s.writeChannelError(w, "Failed to clear channels", err)
		return
	}

	s.logger.Info("Cleared channels")
	w.WriteHeader(http.StatusNoContent)
}

// handleListCategories serves the set last applied to the registry.
// ?computed=true returns what a rebuild would apply now instead.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("computed") == "true" {
		categories, err := s.channels.Categories(r.Context())
		if err != nil {
			s.writeChannelError(w, "Failed to compute categories", err)
			return
		}
		util.WriteJSON(w, http.StatusOK, categories)
		return
	}

	categories := s.applied.Categories()
	if categories == nil {
		categories = []registry.Category{}
	}
	util.WriteJSON(w, http.StatusOK, categories)
}

type rebuildResponse struct {
	Categories []registry.Category `json:"categories"`
	Rebuild    *rebuildSummary     `json:"rebuild"`
}

func (s *Server) handleRebuildCategories(w http.ResponseWriter, r *http.Request) {
	if err := s.channels.Rebuild(r.Context()); err != nil {
		s.writeChannelError(w, "Failed to rebuild categories", err)
		return
	}

	categories, err := s.channels.Categories(r.Context())
	if err != nil {
		s.writeChannelError(w, "Failed to compute categories", err)
		return
	}
	util.WriteJSON(w, http.StatusOK, rebuildResponse{Categories: categories, Rebuild: s.lastRebuild()})
}
