package convictions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hbollon/go-edlib"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"regoffice/internal/convictions/metrics"
	"regoffice/pkg/platform/audit"
	"regoffice/pkg/platform/sentinel"
	"regoffice/pkg/requestcontext"
)

// Subject is the identity a registration supplies for checking.
type Subject struct {
	Kind          EntityKind
	CompanyName   string
	CompanyNumber string
	FirstName     string
	LastName      string
	DateOfBirth   string
}

// CheckResult is the outcome of one conviction check. Similarity is a
// diagnostic Jaro-Winkler score between the queried and matched names,
// recorded for audit on name-tier matches only; it never influences which
// candidate is selected.
type CheckResult struct {
	Matched    bool             `json:"matched"`
	Tier       MatchTier        `json:"tier,omitempty"`
	Entity     *ReferenceEntity `json:"entity,omitempty"`
	Similarity float32          `json:"similarity,omitempty"`
}

// Service fronts the matchers with caching, metrics and audit.
type Service struct {
	companies *CompanyMatcher
	people    *PersonMatcher
	cache     MatchCache
	auditSink audit.Sink
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewService(
	companies *CompanyMatcher,
	people *PersonMatcher,
	cache MatchCache,
	auditSink audit.Sink,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*Service, error) {
	if companies == nil {
		return nil, fmt.Errorf("company matcher is required")
	}
	if people == nil {
		return nil, fmt.Errorf("person matcher is required")
	}
	return &Service{
		companies: companies,
		people:    people,
		cache:     cache,
		auditSink: auditSink,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("regoffice/convictions"),
	}, nil
}

// Check resolves the subject to at most one reference entity. A miss is a
// normal outcome; only store unavailability is an error.
func (s *Service) Check(ctx context.Context, subject Subject) (CheckResult, error) {
	ctx, span := s.tracer.Start(ctx, "convictions.Check",
		trace.WithAttributes(attribute.String("subject.kind", string(subject.Kind))))
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveCheck(time.Since(start)) }()

	key := CacheKey(subject)
	if cached := s.fromCache(ctx, key); cached != nil {
		s.metrics.RecordCacheHit()
		return s.resultFrom(cached), nil
	}
	s.metrics.RecordCacheMiss()

	var (
		match *Match
		err   error
	)
	switch subject.Kind {
	case KindCompany:
		match, err = s.companies.Match(ctx, subject.CompanyName, subject.CompanyNumber)
	case KindPerson:
		match, err = s.people.Match(ctx, subject.FirstName, subject.LastName, subject.DateOfBirth)
	default:
		return CheckResult{}, fmt.Errorf("%w: unknown subject kind %q", sentinel.ErrInvalidQuery, subject.Kind)
	}
	if err != nil {
		return CheckResult{}, fmt.Errorf("conviction check: %w", err)
	}

	result := CheckResult{}
	if match != nil {
		result = CheckResult{
			Matched:    true,
			Tier:       match.Tier,
			Entity:     &match.Entity,
			Similarity: s.similarity(subject, match),
		}
	}

	s.record(ctx, subject, result)
	s.toCache(ctx, key, result)
	return result, nil
}

func (s *Service) fromCache(ctx context.Context, key string) *CachedCheck {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "match cache read failed", "error", err)
		}
		return nil
	}
	return cached
}

func (s *Service) toCache(ctx context.Context, key string, result CheckResult) {
	if s.cache == nil {
		return
	}
	check := CachedCheck{Matched: result.Matched, Tier: result.Tier, Entity: result.Entity}
	if err := s.cache.Set(ctx, key, check); err != nil {
		s.logger.WarnContext(ctx, "match cache write failed", "error", err)
	}
}

func (s *Service) resultFrom(cached *CachedCheck) CheckResult {
	return CheckResult{Matched: cached.Matched, Tier: cached.Tier, Entity: cached.Entity}
}

// similarity scores queried name against matched name on the fuzzy name
// tiers. Number-tier matches skip it; the company number already proves
// identity.
func (s *Service) similarity(subject Subject, match *Match) float32 {
	var queried string
	switch match.Tier {
	case TierCompanyName:
		queried = NormalizeCompanyName(subject.CompanyName)
	case TierPersonNameDOB, TierPersonName:
		queried = strings.ToLower(strings.TrimSpace(subject.FirstName + " " + subject.LastName))
	default:
		return 0
	}
	score, err := edlib.StringsSimilarity(queried, strings.ToLower(match.Entity.Name), edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return score
}

func (s *Service) record(ctx context.Context, subject Subject, result CheckResult) {
	tier := "none"
	outcome := "no_match"
	if result.Matched {
		tier = string(result.Tier)
		outcome = string(result.Tier)
	}
	s.metrics.RecordOutcome(strings.ToLower(string(subject.Kind)), tier)

	if s.auditSink == nil {
		return
	}
	detail := map[string]string{}
	if result.Entity != nil {
		detail["entityId"] = result.Entity.ID
		detail["matchedName"] = result.Entity.Name
	}
	if result.Similarity > 0 {
		detail["similarity"] = fmt.Sprintf("%.3f", result.Similarity)
	}
	event := audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: requestcontext.Now(ctx).UTC(),
		Actor:     requestcontext.UserID(ctx),
		Action:    "convictions.match",
		Subject:   subjectSummary(subject),
		Outcome:   outcome,
		RequestID: requestcontext.RequestID(ctx),
		Detail:    detail,
	}
	if err := s.auditSink.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit match audit event", "error", err)
	}
}

func subjectSummary(subject Subject) string {
	if subject.Kind == KindCompany {
		return strings.TrimSpace(subject.CompanyName + " #" + subject.CompanyNumber)
	}
	return strings.TrimSpace(subject.FirstName + " " + subject.LastName)
}
