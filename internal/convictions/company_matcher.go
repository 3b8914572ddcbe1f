package convictions

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"regoffice/internal/query"
	"regoffice/pkg/platform/sentinel"
)

// CompanyMatcher resolves a company identity against the reference dataset
// using ordered fallback tiers: exact company number, number with leading
// zeros stripped, then normalized name. A tier only runs when every earlier
// tier found nothing, so a more specific match always wins over a looser
// one.
type CompanyMatcher struct {
	entities Gateway
	logger   *slog.Logger
}

func NewCompanyMatcher(entities Gateway, logger *slog.Logger) *CompanyMatcher {
	return &CompanyMatcher{entities: entities, logger: logger}
}

// Match returns at most one reference entity, or nil when no tier applies
// or none produced a result. A nil result is a normal outcome, not an
// error.
func (m *CompanyMatcher) Match(ctx context.Context, rawName, rawNumber string) (*Match, error) {
	number := strings.TrimSpace(rawNumber)
	name := NormalizeCompanyName(rawName)
	if number == "" && name == "" {
		return nil, nil
	}

	if number != "" {
		entity, err := firstEntity(ctx, m.entities, m.logger, query.Eq(FieldCompanyNumber, number), nil)
		if err != nil {
			return nil, err
		}
		if entity != nil {
			return &Match{Entity: *entity, Tier: TierCompanyNumber}, nil
		}

		// Extract files sometimes record numbers without the zero padding
		// Companies House uses, so retry on the significant digits alone.
		stripped := strings.TrimLeft(number, "0")
		if stripped == "" {
			stripped = "0"
		}
		entity, err = firstEntity(ctx, m.entities, m.logger,
			query.EndsWith(FieldCompanyNumber, stripped), query.Asc(FieldCompanyNumber))
		if err != nil {
			return nil, err
		}
		if entity != nil {
			return &Match{Entity: *entity, Tier: TierCompanyNumberNoZeros}, nil
		}
	}

	if name != "" {
		// The absent date of birth distinguishes organisations from
		// individuals in the shared reference collection.
		c := query.And(
			query.Exists(FieldDateOfBirth, false),
			query.Contains(FieldName, name),
		)
		entity, err := firstEntity(ctx, m.entities, m.logger, c, nil)
		if err != nil {
			return nil, err
		}
		if entity != nil {
			return &Match{Entity: *entity, Tier: TierCompanyName}, nil
		}
	}

	return nil, nil
}

// firstEntity runs one tier query capped at a single result. InvalidQuery
// is absorbed as "no match for this tier" because match input is untrusted;
// store unavailability propagates.
func firstEntity(ctx context.Context, entities Gateway, logger *slog.Logger, c query.Criteria, sort *query.Sort) (*ReferenceEntity, error) {
	found, err := entities.Execute(ctx, c, sort, query.Limit(1))
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidQuery) {
			logger.WarnContext(ctx, "match tier query rejected, treating as no match", "error", err)
			return nil, nil
		}
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}
