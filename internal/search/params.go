// Package search implements the back-office report screens: each use-case
// assembles one criteria tree from typed filters, executes it through the
// registration gateway and returns the matched records.
package search

import (
	"fmt"
	"time"
)

// WithinScope selects which field the fallback phase of WithinSearch
// constrains.
type WithinScope string

const (
	WithinAny         WithinScope = "any"
	WithinCompanyName WithinScope = "companyName"
	WithinContactName WithinScope = "contactName"
	WithinPostcode    WithinScope = "postcode"
)

// ParseWithinScope validates a user-supplied scope selector.
func ParseWithinScope(raw string) (WithinScope, error) {
	switch WithinScope(raw) {
	case WithinAny, WithinCompanyName, WithinContactName, WithinPostcode:
		return WithinScope(raw), nil
	}
	return "", fmt.Errorf("unknown within scope %q", raw)
}

// CopyCardFilter narrows RegistrationSearch by copy-card order activity.
type CopyCardFilter string

const (
	// CopyCardsNew matches registrations with a copy-card order item
	// alongside a NEW order item.
	CopyCardsNew CopyCardFilter = "NEW"
	// CopyCardsAny matches any registration with a copy-card order item.
	CopyCardsAny CopyCardFilter = "ANY"
	// CopyCardsRenew matches copy-card items alongside a RENEW item.
	CopyCardsRenew CopyCardFilter = "RENEW"
	// CopyCardsNone matches registrations that have order items, none of
	// which are copy cards.
	CopyCardsNone CopyCardFilter = "NONE"
)

// ParseCopyCardFilter validates a user-supplied copy-card mode.
func ParseCopyCardFilter(raw string) (CopyCardFilter, error) {
	switch CopyCardFilter(raw) {
	case CopyCardsNew, CopyCardsAny, CopyCardsRenew, CopyCardsNone:
		return CopyCardFilter(raw), nil
	}
	return "", fmt.Errorf("unknown copy card filter %q", raw)
}

// PaymentStatus discriminates registrations by their finance balance.
type PaymentStatus string

const (
	AwaitingPayment PaymentStatus = "AWAITING_PAYMENT" // balance > 0
	FullyPaid       PaymentStatus = "FULLY_PAID"       // balance = 0
	Overpaid        PaymentStatus = "OVERPAID"         // balance < 0
)

// ParsePaymentStatus validates a user-supplied payment status.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch PaymentStatus(raw) {
	case AwaitingPayment, FullyPaid, Overpaid:
		return PaymentStatus(raw), nil
	}
	return "", fmt.Errorf("unknown payment status %q", raw)
}

// WithinParams drives the two-phase WithinSearch.
type WithinParams struct {
	Value string
	Scope WithinScope
	Limit int
}

// RegistrationParams drives the main registrations report. From/To bound
// metaData.dateRegistered as a half-open [From, To) range and are
// mandatory; every other filter is optional.
type RegistrationParams struct {
	From                 time.Time
	To                   time.Time
	Routes               []string
	Tiers                []string
	Statuses             []string
	BusinessTypes        []string
	CopyCards            *CopyCardFilter
	DeclaredConvictions  *bool
	ConvictionCheckMatch bool
	Limit                int
}

// CopyCardParams drives the copy-card orders report over
// financeDetails.orders.
type CopyCardParams struct {
	From           time.Time
	To             time.Time
	PaymentMethods []string
	Limit          int
}

// PaymentParams drives the payments report over financeDetails.payments.
type PaymentParams struct {
	From         time.Time
	To           time.Time
	PaymentTypes []string
	Status       *PaymentStatus
	Limit        int
}
