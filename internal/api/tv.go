package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-frameart/internal/bridges/frame"
)

type tvResponse struct {
	ID    string        `json:"id"`
	State frame.TVState `json:"state"`
}

type artModeRequest struct {
	On *bool `json:"on"`
}

type brightnessRequest struct {
	Brightness *int `json:"brightness"`
}

type colorTemperatureRequest struct {
	ColorTemperature *int `json:"color_temperature"`
}

// handleGetTV returns the cached state, or polls first with ?refresh=true.
func (s *Server) handleGetTV(w http.ResponseWriter, r *http.Request) {
	var st frame.TVState
	if r.URL.Query().Get("refresh") == "true" {
		st = s.tv.Refresh(r.Context())
	} else {
		st = s.tv.State()
	}
	writeJSON(w, http.StatusOK, tvResponse{ID: s.tvID, State: st})
}

func (s *Server) handleRefreshTV(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tvResponse{ID: s.tvID, State: s.tv.Refresh(r.Context())})
}

func (s *Server) handleSetArtMode(w http.ResponseWriter, r *http.Request) {
	var req artModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.On == nil {
		writeValidationError(w, "on is required")
		return
	}
	s.applyChange(w, r, "artmode", func(ctx context.Context) error {
		return s.tv.SetArtMode(ctx, *req.On)
	})
}

func (s *Server) handleSetBrightness(w http.ResponseWriter, r *http.Request) {
	var req brightnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Brightness == nil {
		writeValidationError(w, "brightness is required")
		return
	}
	s.applyChange(w, r, "brightness", func(ctx context.Context) error {
		return s.tv.SetBrightness(ctx, *req.Brightness)
	})
}

func (s *Server) handleSetColorTemperature(w http.ResponseWriter, r *http.Request) {
	var req colorTemperatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ColorTemperature == nil {
		writeValidationError(w, "color_temperature is required")
		return
	}
	s.applyChange(w, r, "color_temperature", func(ctx context.Context) error {
		return s.tv.SetColorTemperature(ctx, *req.ColorTemperature)
	})
}

// applyChange runs a set operation and replies with the resulting state.
func (s *Server) applyChange(w http.ResponseWriter, r *http.Request, what string, set func(context.Context) error) {
	if err := set(r.Context()); err != nil {
		switch {
		case errors.Is(err, frame.ErrInvalidParameters):
			writeValidationError(w, err.Error())
		case errors.Is(err, frame.ErrTVUnavailable):
			writeError(w, http.StatusServiceUnavailable, ErrCodeTVUnavailable, "tv did not accept the request")
		default:
			s.logger.Error("tv change failed", "change", what, "error", err)
			writeInternalError(w, "failed to apply change")
		}
		return
	}
	s.logger.Info("tv changed via API", "change", what, "request_id", r.Context().Value(ctxKeyRequestID))
	writeJSON(w, http.StatusOK, tvResponse{ID: s.tvID, State: s.tv.State()})
}
