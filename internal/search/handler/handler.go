// Package handler exposes the report-screen searches over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"regoffice/internal/registration"
	"regoffice/internal/search"
	"regoffice/internal/transport/http/shared"
	"regoffice/pkg/dateparse"
	"regoffice/pkg/requestcontext"
)

const defaultLimit = 100

// Service defines the search operations the handler exposes.
type Service interface {
	AccountSearch(ctx context.Context, email string) ([]registration.Record, error)
	OriginalRegNumberSearch(ctx context.Context, number string) (*registration.Record, error)
	WithinSearch(ctx context.Context, params search.WithinParams) ([]registration.Record, error)
	RegistrationSearch(ctx context.Context, params search.RegistrationParams) ([]registration.Record, error)
	CopyCardSearch(ctx context.Context, params search.CopyCardParams) ([]registration.Record, error)
	PaymentSearch(ctx context.Context, params search.PaymentParams) ([]registration.Record, error)
}

// Handler serves the search endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a search Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the search routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/search/account", h.handleAccountSearch)
	r.Get("/search/original-registration", h.handleOriginalRegNumberSearch)
	r.Get("/search/within", h.handleWithinSearch)
	r.Get("/search/registrations", h.handleRegistrationSearch)
	r.Get("/search/copy-cards", h.handleCopyCardSearch)
	r.Get("/search/payments", h.handlePaymentSearch)
}

func (h *Handler) handleAccountSearch(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		shared.WriteError(w, http.StatusBadRequest, "bad_request", "email is required")
		return
	}
	records, err := h.service.AccountSearch(r.Context(), email)
	if err != nil {
		h.serverError(w, r, "account search failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleOriginalRegNumberSearch(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimSpace(r.URL.Query().Get("number"))
	if number == "" {
		shared.WriteError(w, http.StatusBadRequest, "bad_request", "number is required")
		return
	}
	record, err := h.service.OriginalRegNumberSearch(r.Context(), number)
	if err != nil {
		h.serverError(w, r, "original registration search failed", err)
		return
	}
	if record == nil {
		shared.WriteError(w, http.StatusNotFound, "not_found", "no registration carries that number")
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleWithinSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	value := strings.TrimSpace(q.Get("value"))
	if value == "" {
		shared.WriteError(w, http.StatusBadRequest, "bad_request", "value is required")
		return
	}
	scope := search.WithinAny
	if raw := q.Get("scope"); raw != "" {
		parsed, err := search.ParseWithinScope(raw)
		if err != nil {
			shared.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		scope = parsed
	}
	records, err := h.service.WithinSearch(r.Context(), search.WithinParams{
		Value: value,
		Scope: scope,
		Limit: limitParam(q.Get("limit")),
	})
	if err != nil {
		h.serverError(w, r, "within search failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleRegistrationSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, ok := dateRange(w, q.Get("from"), q.Get("to"))
	if !ok {
		return
	}
	params := search.RegistrationParams{
		From:          from,
		To:            to,
		Routes:        multiParam(q["route"]),
		Tiers:         multiParam(q["tier"]),
		Statuses:      multiParam(q["status"]),
		BusinessTypes: multiParam(q["businessType"]),
		Limit:         limitParam(q.Get("limit")),
	}
	if raw := q.Get("copyCards"); raw != "" {
		filter, err := search.ParseCopyCardFilter(raw)
		if err != nil {
			shared.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		params.CopyCards = &filter
	}
	if raw := q.Get("declaredConvictions"); raw != "" {
		declared, err := strconv.ParseBool(raw)
		if err != nil {
			shared.WriteError(w, http.StatusBadRequest, "bad_request", "declaredConvictions must be a boolean")
			return
		}
		params.DeclaredConvictions = &declared
	}
	params.ConvictionCheckMatch, _ = strconv.ParseBool(q.Get("convictionMatch"))

	records, err := h.service.RegistrationSearch(r.Context(), params)
	if err != nil {
		h.serverError(w, r, "registration search failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleCopyCardSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, ok := dateRange(w, q.Get("from"), q.Get("to"))
	if !ok {
		return
	}
	records, err := h.service.CopyCardSearch(r.Context(), search.CopyCardParams{
		From:           from,
		To:             to,
		PaymentMethods: multiParam(q["paymentMethod"]),
		Limit:          limitParam(q.Get("limit")),
	})
	if err != nil {
		h.serverError(w, r, "copy card search failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handlePaymentSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, ok := dateRange(w, q.Get("from"), q.Get("to"))
	if !ok {
		return
	}
	params := search.PaymentParams{
		From:         from,
		To:           to,
		PaymentTypes: multiParam(q["paymentType"]),
		Limit:        limitParam(q.Get("limit")),
	}
	if raw := q.Get("status"); raw != "" {
		status, err := search.ParsePaymentStatus(raw)
		if err != nil {
			shared.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		params.Status = &status
	}
	records, err := h.service.PaymentSearch(r.Context(), params)
	if err != nil {
		h.serverError(w, r, "payment search failed", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"error", err,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	shared.WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "the registration store is unavailable")
}

// dateRange parses the mandatory from/to filters. Both accept the flexible
// date formats the report screens use, and the to date is inclusive of the
// whole day, so it becomes an exclusive bound one day later.
func dateRange(w http.ResponseWriter, fromRaw, toRaw string) (time.Time, time.Time, bool) {
	from, ok := dateparse.Parse(fromRaw)
	if !ok {
		shared.WriteError(w, http.StatusBadRequest, "bad_request", "from is required and must be a date")
		return time.Time{}, time.Time{}, false
	}
	to, ok := dateparse.Parse(toRaw)
	if !ok {
		shared.WriteError(w, http.StatusBadRequest, "bad_request", "to is required and must be a date")
		return time.Time{}, time.Time{}, false
	}
	return dateparse.StartOfDay(from), dateparse.StartOfDay(to).AddDate(0, 0, 1), true
}

// multiParam accepts both repeated keys and comma-separated lists.
func multiParam(raw []string) []string {
	var values []string
	for _, entry := range raw {
		for _, v := range strings.Split(entry, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

func limitParam(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	return limit
}
