package convictions

import (
	"context"
	"log/slog"
	"strings"

	"regoffice/internal/query"
	"regoffice/pkg/dateparse"
)

// PersonMatcher resolves an individual's identity against the reference
// dataset: name plus date-of-birth range first, then name alone.
type PersonMatcher struct {
	entities Gateway
	logger   *slog.Logger
}

func NewPersonMatcher(entities Gateway, logger *slog.Logger) *PersonMatcher {
	return &PersonMatcher{entities: entities, logger: logger}
}

// Match returns at most one reference entity, or nil when neither tier
// produced a result. The date of birth is optional free text; anything
// unparseable simply drops the date-constrained tier.
func (m *PersonMatcher) Match(ctx context.Context, rawFirstName, rawLastName, rawDateOfBirth string) (*Match, error) {
	firstName := strings.TrimSpace(rawFirstName)
	lastName := strings.TrimSpace(rawLastName)
	if firstName == "" && lastName == "" {
		return nil, nil
	}

	var nameLeaves []query.Criteria
	if firstName != "" {
		nameLeaves = append(nameLeaves, query.Contains(FieldName, firstName))
	}
	if lastName != "" {
		nameLeaves = append(nameLeaves, query.Contains(FieldName, lastName))
	}

	if dob, ok := dateparse.Parse(rawDateOfBirth); ok {
		// Stored dates of birth carry time-of-day and timezone noise from
		// the import, so match a half-open one-day range instead of exact
		// equality.
		start := dateparse.StartOfDay(dob)
		clauses := append([]query.Criteria{
			query.Gte(FieldDateOfBirth, start),
			query.Lt(FieldDateOfBirth, start.AddDate(0, 0, 1)),
		}, nameLeaves...)

		entity, err := firstEntity(ctx, m.entities, m.logger, query.And(clauses...), nil)
		if err != nil {
			return nil, err
		}
		if entity != nil {
			return &Match{Entity: *entity, Tier: TierPersonNameDOB}, nil
		}
	}

	entity, err := firstEntity(ctx, m.entities, m.logger, query.And(nameLeaves...), nil)
	if err != nil {
		return nil, err
	}
	if entity != nil {
		return &Match{Entity: *entity, Tier: TierPersonName}, nil
	}
	return nil, nil
}
