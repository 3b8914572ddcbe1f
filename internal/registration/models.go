// Package registration models the registration documents the back office
// searches over, and the gateway used to query their collection.
package registration

import (
	"encoding/json"
	"fmt"
	"time"

	"regoffice/internal/query"
)

// Dotted field paths used when composing criteria. These are the only
// strings the search core knows about the document schema.
const (
	FieldRegIdentifier       = "regIdentifier"
	FieldCompanyName         = "companyName"
	FieldLastName            = "lastName"
	FieldPostcode            = "addresses.postcode"
	FieldAccountEmail        = "accountEmail"
	FieldOriginalRegNumber   = "originalRegistrationNumber"
	FieldDeclaredConvictions = "declaredConvictions"
	FieldTier                = "tier"
	FieldBusinessType        = "businessType"

	FieldStatus         = "metaData.status"
	FieldRoute          = "metaData.route"
	FieldDateRegistered = "metaData.dateRegistered"

	FieldConvictionMatch          = "convictionSearchResult.matchResult"
	FieldKeyPeopleConvictionMatch = "keyPeople.convictionSearchResult.matchResult"

	FieldBalance            = "financeDetails.balance"
	FieldOrderDateCreated   = "financeDetails.orders.dateCreated"
	FieldOrderItemType      = "financeDetails.orders.orderItems.type"
	FieldOrderPaymentMethod = "financeDetails.orders.paymentMethod"
	FieldPaymentDateEntered = "financeDetails.payments.dateEntered"
	FieldPaymentType        = "financeDetails.payments.paymentType"
)

// OrderItemType labels what an order line paid for.
type OrderItemType string

const (
	OrderItemNew       OrderItemType = "NEW"
	OrderItemRenew     OrderItemType = "RENEW"
	OrderItemCopyCards OrderItemType = "COPY_CARDS"
	OrderItemEdit      OrderItemType = "EDIT"
	OrderItemCharge    OrderItemType = "CHARGE_ADJUST"
)

// MatchResultYes is the stored flag value for a confirmed conviction match.
const MatchResultYes = "YES"

// Address is one of a registration's addresses.
type Address struct {
	AddressType string `json:"addressType,omitempty"`
	HouseNumber string `json:"houseNumber,omitempty"`
	AddressLine string `json:"addressLine,omitempty"`
	TownCity    string `json:"townCity,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
}

// ConvictionSearchResult records the outcome of a reference-data match run
// against the registration's own identity or one of its key people.
type ConvictionSearchResult struct {
	MatchResult string     `json:"matchResult,omitempty"`
	MatchedName string     `json:"matchedName,omitempty"`
	SearchedAt  *time.Time `json:"searchedAt,omitempty"`
	Confirmed   bool       `json:"confirmed,omitempty"`
}

// KeyPerson is a director, partner or other relevant person on the
// registration.
type KeyPerson struct {
	FirstName              string                  `json:"firstName,omitempty"`
	LastName               string                  `json:"lastName,omitempty"`
	Position               string                  `json:"position,omitempty"`
	DateOfBirth            *time.Time              `json:"dateOfBirth,omitempty"`
	ConvictionSearchResult *ConvictionSearchResult `json:"convictionSearchResult,omitempty"`
}

// OrderItem is one chargeable line inside an order.
type OrderItem struct {
	Type   OrderItemType `json:"type,omitempty"`
	Amount float64       `json:"amount,omitempty"`
}

// Order groups the items bought in one transaction.
type Order struct {
	OrderCode     string      `json:"orderCode,omitempty"`
	OrderItems    []OrderItem `json:"orderItems,omitempty"`
	DateCreated   *time.Time  `json:"dateCreated,omitempty"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	GovpayStatus  string      `json:"govpayStatus,omitempty"`
}

// Payment records money received against a registration.
type Payment struct {
	OrderKey    string     `json:"orderKey,omitempty"`
	PaymentType string     `json:"paymentType,omitempty"`
	Amount      float64    `json:"amount,omitempty"`
	DateEntered *time.Time `json:"dateEntered,omitempty"`
	Comment     string     `json:"comment,omitempty"`
}

// FinanceDetails aggregates a registration's orders, payments and running
// balance. Balance > 0 means money is owed; < 0 means overpayment.
type FinanceDetails struct {
	Balance  float64   `json:"balance"`
	Orders   []Order   `json:"orders,omitempty"`
	Payments []Payment `json:"payments,omitempty"`
}

// MetaData carries workflow state stamped by the registration lifecycle.
type MetaData struct {
	Status         string     `json:"status,omitempty"`
	Route          string     `json:"route,omitempty"`
	DateRegistered *time.Time `json:"dateRegistered,omitempty"`
	DateActivated  *time.Time `json:"dateActivated,omitempty"`
	RevokedReason  string     `json:"revokedReason,omitempty"`
}

// Record is one registration document.
type Record struct {
	ID                         string                  `json:"id,omitempty"`
	RegIdentifier              string                  `json:"regIdentifier,omitempty"`
	OriginalRegistrationNumber string                  `json:"originalRegistrationNumber,omitempty"`
	CompanyName                string                  `json:"companyName,omitempty"`
	TradingName                string                  `json:"tradingName,omitempty"`
	CompanyNumber              string                  `json:"companyNumber,omitempty"`
	BusinessType               string                  `json:"businessType,omitempty"`
	Tier                       string                  `json:"tier,omitempty"`
	FirstName                  string                  `json:"firstName,omitempty"`
	LastName                   string                  `json:"lastName,omitempty"`
	PhoneNumber                string                  `json:"phoneNumber,omitempty"`
	ContactEmail               string                  `json:"contactEmail,omitempty"`
	AccountEmail               string                  `json:"accountEmail,omitempty"`
	DeclaredConvictions        bool                    `json:"declaredConvictions"`
	Addresses                  []Address               `json:"addresses,omitempty"`
	KeyPeople                  []KeyPerson             `json:"keyPeople,omitempty"`
	ConvictionSearchResult     *ConvictionSearchResult `json:"convictionSearchResult,omitempty"`
	MetaData                   *MetaData               `json:"metaData,omitempty"`
	FinanceDetails             *FinanceDetails         `json:"financeDetails,omitempty"`
}

// Document renders the record as the schemaless shape collections store.
func (r Record) Document() (query.Document, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode registration: %w", err)
	}
	var doc query.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode registration document: %w", err)
	}
	return doc, nil
}

// FromDocument rebuilds a typed record from a stored document.
func FromDocument(doc query.Document) (Record, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return Record{}, fmt.Errorf("encode registration document: %w", err)
	}
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Record{}, fmt.Errorf("decode registration: %w", err)
	}
	return r, nil
}
