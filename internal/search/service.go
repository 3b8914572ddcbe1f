package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"regoffice/internal/query"
	"regoffice/internal/registration"
	"regoffice/internal/search/metrics"
	"regoffice/pkg/platform/audit"
	"regoffice/pkg/platform/sentinel"
	"regoffice/pkg/requestcontext"
)

// Service executes the report-screen searches. It is stateless; concurrent
// invocations share nothing beyond the gateway.
type Service struct {
	gateway   registration.Gateway
	logger    *slog.Logger
	metrics   *metrics.Metrics
	auditSink audit.Sink
	tracer    trace.Tracer
}

func NewService(gateway registration.Gateway, logger *slog.Logger, m *metrics.Metrics, auditSink audit.Sink) (*Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("registration gateway is required")
	}
	return &Service{
		gateway:   gateway,
		logger:    logger,
		metrics:   m,
		auditSink: auditSink,
		tracer:    otel.Tracer("regoffice/search"),
	}, nil
}

// AccountSearch returns every registration held by one account email.
func (s *Service) AccountSearch(ctx context.Context, email string) ([]registration.Record, error) {
	return s.run(ctx, "account", query.Eq(registration.FieldAccountEmail, email), nil, query.All)
}

// OriginalRegNumberSearch looks up the registration carried over from the
// previous scheme. Nil without error means no such registration.
func (s *Service) OriginalRegNumberSearch(ctx context.Context, number string) (*registration.Record, error) {
	records, err := s.run(ctx, "original_reg_number",
		query.Eq(registration.FieldOriginalRegNumber, number), nil, query.Limit(1))
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

// WithinSearch is the quick-find box. Phase 1 always tries the search value
// against regIdentifier; only when that yields nothing does phase 2 search
// the field selected by the scope.
func (s *Service) WithinSearch(ctx context.Context, params WithinParams) ([]registration.Record, error) {
	records, err := s.run(ctx, "within",
		query.Contains(registration.FieldRegIdentifier, params.Value),
		query.Asc(registration.FieldRegIdentifier),
		query.Limit(params.Limit))
	if err != nil || len(records) > 0 {
		return records, err
	}

	var c query.Criteria
	sort := query.Asc(registration.FieldCompanyName)
	switch params.Scope {
	case WithinCompanyName:
		c = query.Contains(registration.FieldCompanyName, params.Value)
	case WithinContactName:
		c = query.Contains(registration.FieldLastName, params.Value)
		sort = query.Asc(registration.FieldLastName)
	case WithinPostcode:
		c = query.Contains(registration.FieldPostcode, params.Value)
		sort = query.Asc(registration.FieldPostcode)
	default: // WithinAny
		c = query.Or(
			query.Contains(registration.FieldCompanyName, params.Value),
			query.Contains(registration.FieldLastName, params.Value),
			query.Contains(registration.FieldPostcode, params.Value),
		)
	}
	return s.run(ctx, "within", c, sort, query.Limit(params.Limit))
}

// RegistrationSearch is the main registrations report.
func (s *Service) RegistrationSearch(ctx context.Context, params RegistrationParams) ([]registration.Record, error) {
	b := query.NewBuilder().And(
		query.Gte(registration.FieldDateRegistered, params.From),
		query.Lt(registration.FieldDateRegistered, params.To),
	)
	if len(params.Routes) > 0 {
		b.And(query.In(registration.FieldRoute, params.Routes))
	}
	if len(params.Tiers) > 0 {
		b.And(query.In(registration.FieldTier, params.Tiers))
	}
	if len(params.Statuses) > 0 {
		b.And(query.In(registration.FieldStatus, params.Statuses))
	}
	if len(params.BusinessTypes) > 0 {
		b.And(query.In(registration.FieldBusinessType, params.BusinessTypes))
	}
	if params.CopyCards != nil {
		b.And(copyCardCriteria(*params.CopyCards))
	}
	if params.DeclaredConvictions != nil {
		b.And(query.Eq(registration.FieldDeclaredConvictions, *params.DeclaredConvictions))
	}
	if params.ConvictionCheckMatch {
		// Appended as a flat top-level OR group; see query.Builder for why
		// this is not nested under the preceding clause.
		b.Or(
			query.Eq(registration.FieldConvictionMatch, registration.MatchResultYes),
			query.Eq(registration.FieldKeyPeopleConvictionMatch, registration.MatchResultYes),
		)
	}
	return s.run(ctx, "registration", b.Build(),
		query.Asc(registration.FieldDateRegistered), query.Limit(params.Limit))
}

// CopyCardSearch reports registrations that ordered copy cards in a period.
func (s *Service) CopyCardSearch(ctx context.Context, params CopyCardParams) ([]registration.Record, error) {
	b := query.NewBuilder().And(
		query.Gte(registration.FieldOrderDateCreated, params.From),
		query.Lt(registration.FieldOrderDateCreated, params.To),
		query.Eq(registration.FieldOrderItemType, string(registration.OrderItemCopyCards)),
	)
	if len(params.PaymentMethods) > 0 {
		b.And(query.In(registration.FieldOrderPaymentMethod, params.PaymentMethods))
	}
	return s.run(ctx, "copy_cards", b.Build(),
		query.Asc(registration.FieldOrderDateCreated), query.Limit(params.Limit))
}

// PaymentSearch reports payments received in a period, optionally filtered
// to a balance state.
func (s *Service) PaymentSearch(ctx context.Context, params PaymentParams) ([]registration.Record, error) {
	b := query.NewBuilder().And(
		query.Gte(registration.FieldPaymentDateEntered, params.From),
		query.Lt(registration.FieldPaymentDateEntered, params.To),
	)
	if len(params.PaymentTypes) > 0 {
		b.And(query.In(registration.FieldPaymentType, params.PaymentTypes))
	}
	if params.Status != nil {
		switch *params.Status {
		case AwaitingPayment:
			b.And(query.Gt(registration.FieldBalance, 0.0))
		case FullyPaid:
			b.And(query.Eq(registration.FieldBalance, 0.0))
		case Overpaid:
			b.And(query.Lt(registration.FieldBalance, 0.0))
		}
	}
	return s.run(ctx, "payments", b.Build(),
		query.Asc(registration.FieldPaymentDateEntered), query.Limit(params.Limit))
}

// copyCardCriteria builds the copy-card sub-query. Co-occurrence is at
// registration level: a NEW item anywhere plus a copy-card item anywhere.
func copyCardCriteria(filter CopyCardFilter) query.Criteria {
	copyCards := string(registration.OrderItemCopyCards)
	switch filter {
	case CopyCardsNew:
		return query.And(
			query.Eq(registration.FieldOrderItemType, copyCards),
			query.Eq(registration.FieldOrderItemType, string(registration.OrderItemNew)),
		)
	case CopyCardsRenew:
		return query.And(
			query.Eq(registration.FieldOrderItemType, copyCards),
			query.Eq(registration.FieldOrderItemType, string(registration.OrderItemRenew)),
		)
	case CopyCardsNone:
		return query.And(
			query.Exists(registration.FieldOrderItemType, true),
			query.Ne(registration.FieldOrderItemType, copyCards),
		)
	default: // CopyCardsAny
		return query.Eq(registration.FieldOrderItemType, copyCards)
	}
}

// run executes one assembled criteria tree with the shared error policy:
// InvalidQuery degrades to an empty result because the filters are
// user-composed; store unavailability always surfaces.
func (s *Service) run(ctx context.Context, usecase string, c query.Criteria, sort *query.Sort, page query.Page) ([]registration.Record, error) {
	ctx, span := s.tracer.Start(ctx, "search."+usecase)
	defer span.End()
	start := time.Now()

	records, err := s.gateway.Execute(ctx, c, sort, page)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidQuery) {
			s.logger.WarnContext(ctx, "search rejected by store, returning no results",
				"usecase", usecase,
				"error", err,
			)
			s.metrics.Record(usecase, "invalid", time.Since(start))
			return []registration.Record{}, nil
		}
		s.metrics.Record(usecase, "error", time.Since(start))
		return nil, fmt.Errorf("%s search: %w", usecase, err)
	}

	span.SetAttributes(attribute.Int("search.results", len(records)))
	s.metrics.Record(usecase, "ok", time.Since(start))
	s.audit(ctx, usecase, len(records))

	if records == nil {
		records = []registration.Record{}
	}
	return records, nil
}

func (s *Service) audit(ctx context.Context, usecase string, results int) {
	if s.auditSink == nil {
		return
	}
	event := audit.Event{
		Category:  audit.CategoryOperations,
		Timestamp: requestcontext.Now(ctx).UTC(),
		Actor:     requestcontext.UserID(ctx),
		Action:    "search." + usecase,
		Outcome:   fmt.Sprintf("%d results", results),
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.auditSink.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit search audit event", "error", err)
	}
}
