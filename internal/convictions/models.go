// Package convictions reconciles applicant-supplied company and person
// identities against the conviction reference dataset imported from
// government extracts.
package convictions

import (
	"encoding/json"
	"fmt"
	"time"

	"regoffice/internal/query"
)

// Dotted field paths on the reference entity collection.
const (
	FieldName          = "name"
	FieldCompanyNumber = "companyNumber"
	FieldDateOfBirth   = "dateOfBirth"
)

// EntityKind distinguishes organisations from individuals in the shared
// reference collection.
type EntityKind string

const (
	KindCompany EntityKind = "COMPANY"
	KindPerson  EntityKind = "PERSON"
)

// ReferenceEntity is one row of the conviction reference dataset. Entities
// are immutable once stored; imports replace the collection wholesale.
type ReferenceEntity struct {
	ID             string     `json:"id,omitempty"`
	Kind           EntityKind `json:"kind,omitempty"`
	Name           string     `json:"name,omitempty"`
	CompanyNumber  *string    `json:"companyNumber,omitempty"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	SystemFlag     string     `json:"systemFlag,omitempty"`
	IncidentNumber string     `json:"incidentNumber,omitempty"`
}

// Document renders the entity as the schemaless shape collections store.
func (e ReferenceEntity) Document() (query.Document, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	var doc query.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode entity document: %w", err)
	}
	return doc, nil
}

// EntityFromDocument rebuilds a typed entity from a stored document.
func EntityFromDocument(doc query.Document) (ReferenceEntity, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return ReferenceEntity{}, fmt.Errorf("encode entity document: %w", err)
	}
	var e ReferenceEntity
	if err := json.Unmarshal(raw, &e); err != nil {
		return ReferenceEntity{}, fmt.Errorf("decode entity: %w", err)
	}
	return e, nil
}

// MatchTier names which fallback strategy produced a match. Later tiers are
// looser; an earlier tier's match always wins.
type MatchTier string

const (
	TierCompanyNumber        MatchTier = "company_number"
	TierCompanyNumberNoZeros MatchTier = "company_number_no_zeros"
	TierCompanyName          MatchTier = "company_name"
	TierPersonNameDOB        MatchTier = "person_name_dob"
	TierPersonName           MatchTier = "person_name"
)

// Match is a successful reconciliation against the reference dataset.
type Match struct {
	Entity ReferenceEntity
	Tier   MatchTier
}
