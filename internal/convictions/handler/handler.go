// Package handler exposes conviction checks over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"regoffice/internal/convictions"
	"regoffice/internal/query"
	"regoffice/internal/transport/http/shared"
	"regoffice/pkg/platform/sentinel"
	"regoffice/pkg/requestcontext"
)

// Service defines the check operation the handler exposes.
type Service interface {
	Check(ctx context.Context, subject convictions.Subject) (convictions.CheckResult, error)
}

// Handler serves the conviction check endpoints.
type Handler struct {
	service  Service
	entities convictions.Gateway
	logger   *slog.Logger
}

// New creates a convictions Handler. The entity gateway backs the status
// endpoint operators use to confirm the reference dataset is loaded.
func New(service Service, entities convictions.Gateway, logger *slog.Logger) *Handler {
	return &Handler{service: service, entities: entities, logger: logger}
}

// Register registers the conviction routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/convictions/check", h.handleCheck)
	r.Get("/convictions/status", h.handleStatus)
}

type checkRequest struct {
	CompanyName   string `json:"companyName,omitempty"`
	CompanyNumber string `json:"companyNumber,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	DateOfBirth   string `json:"dateOfBirth,omitempty"`
}

// subject classifies the request the way registrations are classified:
// anything carrying a person name is a person, otherwise a company.
func (req checkRequest) subject() convictions.Subject {
	subject := convictions.Subject{
		CompanyName:   req.CompanyName,
		CompanyNumber: req.CompanyNumber,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		DateOfBirth:   req.DateOfBirth,
	}
	if strings.TrimSpace(req.FirstName) != "" || strings.TrimSpace(req.LastName) != "" {
		subject.Kind = convictions.KindPerson
	} else {
		subject.Kind = convictions.KindCompany
	}
	return subject
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	result, err := h.service.Check(ctx, req.subject())
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidQuery) {
			shared.WriteError(w, http.StatusBadRequest, "bad_request", "check subject is not searchable")
			return
		}
		h.logger.ErrorContext(ctx, "conviction check failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "the reference data store is unavailable")
		return
	}

	shared.WriteJSON(w, http.StatusOK, result)
}

type statusResponse struct {
	Entities int64 `json:"entities"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := h.entities.Count(ctx, query.And())
	if err != nil {
		h.logger.ErrorContext(ctx, "reference data status check failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "the reference data store is unavailable")
		return
	}
	shared.WriteJSON(w, http.StatusOK, statusResponse{Entities: n})
}
