package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"shiny/service/device"
	"shiny/service/util"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

type enrollResponse struct {
	Device         *device.Device `json:"device"`
	VAPIDPublicKey string         `json:"vapid_public_key"`
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.List(r.Context())
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to list devices", http.StatusInternalServerError, err)
		return
	}
	if devices == nil {
		devices = []device.Device{}
	}
	util.WriteJSON(w, http.StatusOK, devices)
}

// handleEnrollDevice stores the subscription and pushes the current
// category set to the new device. A failed push does not undo enrollment.
func (s *Server) handleEnrollDevice(w http.ResponseWriter, r *http.Request) {
	var d device.Device
	if err := util.DecodeJSON(r, &d); err != nil {
		util.JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := d.Normalize(); err != nil {
		util.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := s.devices.Add(r.Context(), d)
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to enroll device", http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("Enrolled device", "device", saved.ID, "platform", saved.Platform)

	categories, err := s.channels.Categories(r.Context())
	if err != nil {
		s.logger.Error("Failed to compute categories for new device", "device", saved.ID, "error", err)
	} else if err := s.deviceRegistry.SetCategoriesFor(r.Context(), *saved, categories); err != nil {
		s.logger.Warn("Failed to push categories to new device", "device", saved.ID, "error", err)
	}

	util.WriteJSON(w, http.StatusCreated, enrollResponse{Device: saved, VAPIDPublicKey: s.pusher.PublicKey()})
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := s.devices.Remove(r.Context(), id)
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to remove device", http.StatusInternalServerError, err)
		return
	}
	if !removed {
		util.JSONError(w, "device not found", http.StatusNotFound)
		return
	}

	s.logger.Info("Removed device", "device", id)
	w.WriteHeader(http.StatusNoContent)
}

// EnrollmentURL is what the QR code encodes: the device endpoint of this
// service plus the VAPID key a client needs to subscribe.
func (s *Server) EnrollmentURL() string {
	q := url.Values{}
	q.Set("vapid", s.pusher.PublicKey())
	return fmt.Sprintf("%s/api/v1/devices?%s", s.cfg.PublicURL, q.Encode())
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func (s *Server) handleEnrollQR(w http.ResponseWriter, r *http.Request) {
	qrc, err := qrcode.New(s.EnrollmentURL())
	if err != nil {
		util.LogAndError(w, s.logger, "Failed to generate QR code", http.StatusInternalServerError, err)
		return
	}

	var buf bytes.Buffer
	writer := standard.NewWithWriter(nopCloser{Writer: &buf}, standard.WithBuiltinImageEncoder(standard.PNG_FORMAT))
	if err := qrc.Save(writer); err != nil {
		util.LogAndError(w, s.logger, "Failed to render QR code", http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes()) //nolint:errcheck
}
