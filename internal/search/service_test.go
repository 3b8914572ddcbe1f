package search_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"regoffice/internal/docstore"
	"regoffice/internal/registration"
	"regoffice/internal/registration/mocks"
	"regoffice/internal/search"
	"regoffice/pkg/platform/sentinel"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
	return &t
}

func newSearchService(t *testing.T, records ...registration.Record) *search.Service {
	t.Helper()
	store := docstore.NewMemory()
	for _, r := range records {
		doc, err := r.Document()
		require.NoError(t, err)
		require.NoError(t, store.Insert(context.Background(), doc))
	}
	service, err := search.NewService(registration.NewGateway(store), discardLogger(), nil, nil)
	require.NoError(t, err)
	return service
}

func identifiers(records []registration.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.RegIdentifier
	}
	return ids
}

func TestAccountSearch(t *testing.T) {
	service := newSearchService(t,
		registration.Record{RegIdentifier: "CBDU1", AccountEmail: "ops@acme.example"},
		registration.Record{RegIdentifier: "CBDU2", AccountEmail: "ops@acme.example"},
		registration.Record{RegIdentifier: "CBDU3", AccountEmail: "other@example.com"},
	)

	records, err := service.AccountSearch(context.Background(), "ops@acme.example")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CBDU1", "CBDU2"}, identifiers(records))

	records, err = service.AccountSearch(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.NotNil(t, records, "no matches must be an empty slice, not nil")
	assert.Empty(t, records)
}

func TestOriginalRegNumberSearch(t *testing.T) {
	service := newSearchService(t,
		registration.Record{RegIdentifier: "CBDU1", OriginalRegistrationNumber: "CB/AN5555"},
	)

	record, err := service.OriginalRegNumberSearch(context.Background(), "CB/AN5555")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "CBDU1", record.RegIdentifier)

	record, err = service.OriginalRegNumberSearch(context.Background(), "CB/MISSING")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestWithinSearch(t *testing.T) {
	records := []registration.Record{
		{RegIdentifier: "CBDU200", CompanyName: "Smith Skips", LastName: "Jones"},
		{RegIdentifier: "CBDU100", CompanyName: "Acme Waste", LastName: "Smith"},
		{
			RegIdentifier: "CBDU300",
			CompanyName:   "Bristol Clearance",
			LastName:      "Baker",
			Addresses:     []registration.Address{{Postcode: "BS1 5AH"}, {Postcode: "SW1A 1AA"}},
		},
	}

	t.Run("identifier hits short-circuit the scoped phase", func(t *testing.T) {
		service := newSearchService(t, records...)
		// "smith" appears in company and contact names, but CBDU matches
		// identifiers, so only phase one runs.
		found, err := service.WithinSearch(context.Background(), search.WithinParams{Value: "CBDU", Scope: search.WithinAny, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"CBDU100", "CBDU200", "CBDU300"}, identifiers(found), "phase one sorts by identifier")
	})

	t.Run("company name scope", func(t *testing.T) {
		service := newSearchService(t, records...)
		found, err := service.WithinSearch(context.Background(), search.WithinParams{Value: "smith", Scope: search.WithinCompanyName, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"CBDU200"}, identifiers(found))
	})

	t.Run("contact name scope", func(t *testing.T) {
		service := newSearchService(t, records...)
		found, err := service.WithinSearch(context.Background(), search.WithinParams{Value: "smith", Scope: search.WithinContactName, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"CBDU100"}, identifiers(found))
	})

	t.Run("postcode scope matches any address", func(t *testing.T) {
		service := newSearchService(t, records...)
		found, err := service.WithinSearch(context.Background(), search.WithinParams{Value: "sw1a", Scope: search.WithinPostcode, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"CBDU300"}, identifiers(found))
	})

	t.Run("any scope unions the three fields, sorted by company name", func(t *testing.T) {
		service := newSearchService(t, records...)
		found, err := service.WithinSearch(context.Background(), search.WithinParams{Value: "smith", Scope: search.WithinAny, Limit: 10})
		require.NoError(t, err)
		// "Acme Waste" before "Smith Skips".
		assert.Equal(t, []string{"CBDU100", "CBDU200"}, identifiers(found))
	})

	t.Run("phase two sort field follows the scope", func(t *testing.T) {
		// Every record matches "smith" on company and contact name, in an
		// insertion order that agrees with none of the expected sorts.
		scoped := []registration.Record{
			{
				RegIdentifier: "REG1",
				CompanyName:   "Smith Waste",
				LastName:      "Smith",
				Addresses:     []registration.Address{{Postcode: "M1 7AH"}},
			},
			{
				RegIdentifier: "REG2",
				CompanyName:   "Ace Smith Skips",
				LastName:      "Blacksmith",
				Addresses:     []registration.Address{{Postcode: "GU14 0AH"}},
			},
			{
				RegIdentifier: "REG3",
				CompanyName:   "Smithfield Clearance",
				LastName:      "Arrowsmith",
				Addresses:     []registration.Address{{Postcode: "BS1 5AH"}},
			},
		}
		service := newSearchService(t, scoped...)
		within := func(t *testing.T, value string, scope search.WithinScope) []string {
			t.Helper()
			found, err := service.WithinSearch(context.Background(), search.WithinParams{Value: value, Scope: scope, Limit: 10})
			require.NoError(t, err)
			return identifiers(found)
		}

		assert.Equal(t, []string{"REG2", "REG1", "REG3"}, within(t, "smith", search.WithinCompanyName),
			"company scope sorts by company name ascending")
		assert.Equal(t, []string{"REG3", "REG2", "REG1"}, within(t, "smith", search.WithinContactName),
			"contact scope sorts by last name ascending")
		assert.Equal(t, []string{"REG3", "REG2", "REG1"}, within(t, "ah", search.WithinPostcode),
			"postcode scope sorts by postcode ascending")
		assert.Equal(t, []string{"REG2", "REG1", "REG3"}, within(t, "smith", search.WithinAny),
			"any scope sorts by company name ascending")
	})

	t.Run("limit caps results", func(t *testing.T) {
		service := newSearchService(t, records...)
		found, err := service.WithinSearch(context.Background(), search.WithinParams{Value: "CBDU", Scope: search.WithinAny, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})
}

func registered(id string, day int, more func(*registration.Record)) registration.Record {
	r := registration.Record{
		RegIdentifier: id,
		MetaData:      &registration.MetaData{DateRegistered: date(2026, 3, day), Status: "ACTIVE", Route: "DIGITAL"},
	}
	if more != nil {
		more(&r)
	}
	return r
}

func TestRegistrationSearch(t *testing.T) {
	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	t.Run("date range is half-open", func(t *testing.T) {
		service := newSearchService(t,
			registered("before", 9, nil),
			registered("on-from", 10, nil),
			registered("inside", 15, nil),
			registered("on-to", 20, nil),
		)
		found, err := service.RegistrationSearch(context.Background(), search.RegistrationParams{From: from, To: to, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"on-from", "inside"}, identifiers(found))
	})

	t.Run("optional list filters narrow the range", func(t *testing.T) {
		service := newSearchService(t,
			registered("digital", 15, nil),
			registered("assisted", 15, func(r *registration.Record) { r.MetaData.Route = "ASSISTED_DIGITAL" }),
			registered("revoked", 15, func(r *registration.Record) { r.MetaData.Status = "REVOKED" }),
		)
		found, err := service.RegistrationSearch(context.Background(), search.RegistrationParams{
			From: from, To: to,
			Routes:   []string{"DIGITAL"},
			Statuses: []string{"ACTIVE"},
			Limit:    10,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"digital"}, identifiers(found))
	})

	t.Run("declared convictions filter", func(t *testing.T) {
		service := newSearchService(t,
			registered("declared", 15, func(r *registration.Record) { r.DeclaredConvictions = true }),
			registered("undeclared", 15, nil),
		)
		declared := true
		found, err := service.RegistrationSearch(context.Background(), search.RegistrationParams{
			From: from, To: to, DeclaredConvictions: &declared, Limit: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"declared"}, identifiers(found))

		declared = false
		found, err = service.RegistrationSearch(context.Background(), search.RegistrationParams{
			From: from, To: to, DeclaredConvictions: &declared, Limit: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"undeclared"}, identifiers(found))
	})

	t.Run("conviction match flag unions registration and key people results", func(t *testing.T) {
		service := newSearchService(t,
			registered("self-match", 15, func(r *registration.Record) {
				r.ConvictionSearchResult = &registration.ConvictionSearchResult{MatchResult: "YES"}
			}),
			registered("person-match", 16, func(r *registration.Record) {
				r.KeyPeople = []registration.KeyPerson{
					{LastName: "Clean", ConvictionSearchResult: &registration.ConvictionSearchResult{MatchResult: "NO"}},
					{LastName: "Flagged", ConvictionSearchResult: &registration.ConvictionSearchResult{MatchResult: "YES"}},
				}
			}),
			registered("clean", 17, nil),
			// A match outside the date range must stay excluded.
			registered("out-of-range", 25, func(r *registration.Record) {
				r.ConvictionSearchResult = &registration.ConvictionSearchResult{MatchResult: "YES"}
			}),
		)
		found, err := service.RegistrationSearch(context.Background(), search.RegistrationParams{
			From: from, To: to, ConvictionCheckMatch: true, Limit: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"self-match", "person-match"}, identifiers(found))
	})
}

func withOrders(id string, day int, types ...registration.OrderItemType) registration.Record {
	items := make([]registration.OrderItem, len(types))
	for i, typ := range types {
		items[i] = registration.OrderItem{Type: typ}
	}
	return registered(id, day, func(r *registration.Record) {
		r.FinanceDetails = &registration.FinanceDetails{
			Orders: []registration.Order{{OrderItems: items, DateCreated: date(2026, 3, day), PaymentMethod: "WORLDPAY"}},
		}
	})
}

func TestRegistrationSearchCopyCardFilters(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	newService := func(t *testing.T) *search.Service {
		return newSearchService(t,
			withOrders("new-with-cards", 10, registration.OrderItemNew, registration.OrderItemCopyCards),
			withOrders("renew-with-cards", 11, registration.OrderItemRenew, registration.OrderItemCopyCards),
			withOrders("cards-only", 12, registration.OrderItemCopyCards),
			withOrders("new-only", 13, registration.OrderItemNew),
			registered("no-orders", 14, nil),
		)
	}
	run := func(t *testing.T, filter search.CopyCardFilter) []string {
		t.Helper()
		found, err := newService(t).RegistrationSearch(context.Background(), search.RegistrationParams{
			From: from, To: to, CopyCards: &filter, Limit: 10,
		})
		require.NoError(t, err)
		return identifiers(found)
	}

	assert.ElementsMatch(t, []string{"new-with-cards", "renew-with-cards", "cards-only"}, run(t, search.CopyCardsAny))
	assert.ElementsMatch(t, []string{"new-with-cards"}, run(t, search.CopyCardsNew))
	assert.ElementsMatch(t, []string{"renew-with-cards"}, run(t, search.CopyCardsRenew))
	// NONE means "ordered something, none of it copy cards": registrations
	// with no order items at all stay excluded.
	assert.ElementsMatch(t, []string{"new-only"}, run(t, search.CopyCardsNone))
}

func TestCopyCardSearch(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	service := newSearchService(t,
		withOrders("in-range", 10, registration.OrderItemCopyCards),
		withOrders("out-of-range", 20, registration.OrderItemCopyCards),
		withOrders("not-cards", 10, registration.OrderItemNew),
	)

	found, err := service.CopyCardSearch(context.Background(), search.CopyCardParams{From: from, To: to, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"in-range"}, identifiers(found))

	found, err = service.CopyCardSearch(context.Background(), search.CopyCardParams{
		From: from, To: to, PaymentMethods: []string{"GOVPAY"}, Limit: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func withPayment(id string, day int, balance float64) registration.Record {
	return registered(id, day, func(r *registration.Record) {
		r.FinanceDetails = &registration.FinanceDetails{
			Balance:  balance,
			Payments: []registration.Payment{{PaymentType: "WORLDPAY", Amount: 154, DateEntered: date(2026, 3, day)}},
		}
	})
}

func TestPaymentSearch(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	service := newSearchService(t,
		withPayment("owing", 10, 154),
		withPayment("settled", 11, 0),
		withPayment("overpaid", 12, -20),
	)

	all, err := service.PaymentSearch(context.Background(), search.PaymentParams{From: from, To: to, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	status := search.AwaitingPayment
	found, err := service.PaymentSearch(context.Background(), search.PaymentParams{From: from, To: to, Status: &status, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"owing"}, identifiers(found))

	status = search.FullyPaid
	found, err = service.PaymentSearch(context.Background(), search.PaymentParams{From: from, To: to, Status: &status, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"settled"}, identifiers(found))

	status = search.Overpaid
	found, err = service.PaymentSearch(context.Background(), search.PaymentParams{From: from, To: to, Status: &status, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"overpaid"}, identifiers(found))

	found, err = service.PaymentSearch(context.Background(), search.PaymentParams{
		From: from, To: to, PaymentTypes: []string{"CASH"}, Limit: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSearchErrorPolicy(t *testing.T) {
	t.Run("invalid query degrades to an empty result", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gateway := mocks.NewMockGateway(ctrl)
		gateway.EXPECT().
			Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, sentinel.ErrInvalidQuery)

		service, err := search.NewService(gateway, discardLogger(), nil, nil)
		require.NoError(t, err)

		records, err := service.AccountSearch(context.Background(), "ops@acme.example")
		require.NoError(t, err)
		require.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("store unavailability surfaces", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gateway := mocks.NewMockGateway(ctrl)
		gateway.EXPECT().
			Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, sentinel.ErrUnavailable)

		service, err := search.NewService(gateway, discardLogger(), nil, nil)
		require.NoError(t, err)

		_, err = service.AccountSearch(context.Background(), "ops@acme.example")
		require.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("a gateway is required", func(t *testing.T) {
		_, err := search.NewService(nil, discardLogger(), nil, nil)
		require.Error(t, err)
	})
}
