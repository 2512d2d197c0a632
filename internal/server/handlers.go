package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"

	"portfolio/internal/services"
	apperrors "portfolio/pkg/errors"
)

const internalErrorMessage = "Failed to send message. Please try again later."

// submitPayload is the JSON body accepted by both submission endpoints.
type submitPayload struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Message        string `json:"message"`
	RecaptchaToken string `json:"recaptchaToken"`
	// Timestamp may be an ISO-8601 string or Unix milliseconds.
	Timestamp json.RawMessage `json:"timestamp"`
}

type submitResponse struct {
	Success bool              `json:"success"`
	ID      string            `json:"id,omitempty"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type readyResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleSubmit(pipeline Submitter, acceptToken bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.App.MaxBodyBytes)

		var body submitPayload
		if err := goahttp.RequestDecoder(r).Decode(&body); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				s.writeJSON(ctx, w, http.StatusRequestEntityTooLarge, submitResponse{Error: "Request body too large."})
				return
			}
			s.writeError(ctx, w, apperrors.Wrap(apperrors.ErrCodeBadRequest, "Invalid request body.", err))
			return
		}

		req := services.SubmissionRequest{
			Name:      body.Name,
			Email:     body.Email,
			Message:   body.Message,
			Timestamp: rawTimestamp(body.Timestamp),
		}
		if acceptToken {
			req.VerificationToken = strings.TrimSpace(body.RecaptchaToken)
		}
		meta := services.ClientMetadata{
			UserAgent: r.UserAgent(),
			IP:        clientIP(r),
		}

		res, err := pipeline.Submit(ctx, req, meta)
		if err != nil {
			s.writeError(ctx, w, err)
			return
		}
		s.writeJSON(ctx, w, http.StatusOK, submitResponse{
			Success: true,
			ID:      res.ID,
			Message: res.Message,
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, s.health.Check())
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.health.Ready(ctx); err != nil {
		s.log.Warn("readiness check failed", zap.Error(err))
		s.writeJSON(ctx, w, http.StatusServiceUnavailable, readyResponse{Status: "not_ready", Error: "store unavailable"})
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, readyResponse{Status: "ready"})
}

// writeError maps err to a status code. Client errors carry their message
// and field reasons; anything else gets a generic message.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	resp := submitResponse{Error: internalErrorMessage}

	var appErr *apperrors.AppError
	if status < http.StatusInternalServerError && errors.As(err, &appErr) {
		resp.Error = appErr.Message
		resp.Fields = appErr.Fields
	} else {
		s.log.Error("request failed", zap.String("request_id", requestID(ctx)), zap.Error(err))
	}
	s.writeJSON(ctx, w, status, resp)
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	enc := goahttp.ResponseEncoder(ctx, w)
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	if err := enc.Encode(v); err != nil {
		s.log.Warn("failed to encode response", zap.Error(err))
	}
}

// rawTimestamp turns the JSON timestamp into the string form the validator
// parses. Strings are unquoted; numbers keep their literal text.
func rawTimestamp(raw json.RawMessage) string {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
