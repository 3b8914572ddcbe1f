package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regoffice/internal/registration"
	"regoffice/internal/search"
	"regoffice/internal/search/handler"
	"regoffice/pkg/platform/sentinel"
	"regoffice/pkg/testutil"
)

// stubService records the parameters each endpoint forwarded and returns
// canned results.
type stubService struct {
	records []registration.Record
	err     error

	accountEmail       string
	originalNumber     string
	withinParams       *search.WithinParams
	registrationParams *search.RegistrationParams
	copyCardParams     *search.CopyCardParams
	paymentParams      *search.PaymentParams
}

func (s *stubService) AccountSearch(_ context.Context, email string) ([]registration.Record, error) {
	s.accountEmail = email
	return s.records, s.err
}

func (s *stubService) OriginalRegNumberSearch(_ context.Context, number string) (*registration.Record, error) {
	s.originalNumber = number
	if s.err != nil || len(s.records) == 0 {
		return nil, s.err
	}
	return &s.records[0], nil
}

func (s *stubService) WithinSearch(_ context.Context, params search.WithinParams) ([]registration.Record, error) {
	s.withinParams = &params
	return s.records, s.err
}

func (s *stubService) RegistrationSearch(_ context.Context, params search.RegistrationParams) ([]registration.Record, error) {
	s.registrationParams = &params
	return s.records, s.err
}

func (s *stubService) CopyCardSearch(_ context.Context, params search.CopyCardParams) ([]registration.Record, error) {
	s.copyCardParams = &params
	return s.records, s.err
}

func (s *stubService) PaymentSearch(_ context.Context, params search.PaymentParams) ([]registration.Record, error) {
	s.paymentParams = &params
	return s.records, s.err
}

func newRouter(service handler.Service) http.Handler {
	r := chi.NewRouter()
	handler.New(service, slog.New(slog.DiscardHandler)).Register(r)
	return r
}

func TestAccountSearchEndpoint(t *testing.T) {
	t.Run("forwards the email and renders records", func(t *testing.T) {
		stub := &stubService{records: []registration.Record{{RegIdentifier: "CBDU1"}}}
		rr := testutil.DoRequest(newRouter(stub), testutil.NewRequest(t, http.MethodGet, "/search/account?email=ops%40acme.example"))

		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, "ops@acme.example", stub.accountEmail)
		records := testutil.UnmarshalResponse[[]registration.Record](t, rr)
		require.Len(t, *records, 1)
	})

	t.Run("missing email is a bad request", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(&stubService{}), testutil.NewRequest(t, http.MethodGet, "/search/account"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("store unavailability is a 503", func(t *testing.T) {
		stub := &stubService{err: sentinel.ErrUnavailable}
		rr := testutil.DoRequest(newRouter(stub), testutil.NewRequest(t, http.MethodGet, "/search/account?email=x%40y.z"))
		testutil.AssertStatusAndError(t, rr, http.StatusServiceUnavailable, "store_unavailable")
	})
}

func TestOriginalRegNumberEndpoint(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		stub := &stubService{records: []registration.Record{{RegIdentifier: "CBDU1"}}}
		rr := testutil.DoRequest(newRouter(stub), testutil.NewRequest(t, http.MethodGet, "/search/original-registration?number=CB%2FAN5555"))

		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, "CB/AN5555", stub.originalNumber)
	})

	t.Run("a miss is a 404, not an error", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(&stubService{}), testutil.NewRequest(t, http.MethodGet, "/search/original-registration?number=CB%2FNOPE"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}

func TestWithinEndpoint(t *testing.T) {
	t.Run("defaults to the any scope and default limit", func(t *testing.T) {
		stub := &stubService{}
		rr := testutil.DoRequest(newRouter(stub), testutil.NewRequest(t, http.MethodGet, "/search/within?value=smith"))

		testutil.AssertStatusOK(t, rr)
		require.NotNil(t, stub.withinParams)
		assert.Equal(t, search.WithinAny, stub.withinParams.Scope)
		assert.Equal(t, 100, stub.withinParams.Limit)
	})

	t.Run("unknown scope is rejected", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(&stubService{}), testutil.NewRequest(t, http.MethodGet, "/search/within?value=x&scope=telepathy"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestRegistrationEndpoint(t *testing.T) {
	t.Run("parses the full filter set", func(t *testing.T) {
		stub := &stubService{}
		rr := testutil.DoRequest(newRouter(stub), testutil.NewRequest(t, http.MethodGet,
			"/search/registrations?from=01/03/2026&to=31/03/2026&route=DIGITAL,ASSISTED_DIGITAL&tier=UPPER&copyCards=NONE&declaredConvictions=true&convictionMatch=true&limit=25"))

		testutil.AssertStatusOK(t, rr)
		params := stub.registrationParams
		require.NotNil(t, params)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), params.From)
		assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), params.To, "to is inclusive of the whole day")
		assert.Equal(t, []string{"DIGITAL", "ASSISTED_DIGITAL"}, params.Routes)
		assert.Equal(t, []string{"UPPER"}, params.Tiers)
		require.NotNil(t, params.CopyCards)
		assert.Equal(t, search.CopyCardsNone, *params.CopyCards)
		require.NotNil(t, params.DeclaredConvictions)
		assert.True(t, *params.DeclaredConvictions)
		assert.True(t, params.ConvictionCheckMatch)
		assert.Equal(t, 25, params.Limit)
	})

	t.Run("dates are mandatory", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(&stubService{}), testutil.NewRequest(t, http.MethodGet, "/search/registrations?from=01/03/2026"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("unknown copy card filter is rejected", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(&stubService{}), testutil.NewRequest(t, http.MethodGet,
			"/search/registrations?from=01/03/2026&to=31/03/2026&copyCards=SOMETIMES"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestPaymentEndpoint(t *testing.T) {
	stub := &stubService{}
	rr := testutil.DoRequest(newRouter(stub), testutil.NewRequest(t, http.MethodGet,
		"/search/payments?from=2026-03-01&to=2026-03-31&status=OVERPAID&paymentType=WORLDPAY"))

	testutil.AssertStatusOK(t, rr)
	params := stub.paymentParams
	require.NotNil(t, params)
	require.NotNil(t, params.Status)
	assert.Equal(t, search.Overpaid, *params.Status)
	assert.Equal(t, []string{"WORLDPAY"}, params.PaymentTypes)
}

func TestCopyCardEndpoint(t *testing.T) {
	stub := &stubService{}
	rr := testutil.DoRequest(newRouter(stub), testutil.NewRequest(t, http.MethodGet,
		"/search/copy-cards?from=01-03-2026&to=15-03-2026&paymentMethod=WORLDPAY&paymentMethod=BANKTRANSFER"))

	testutil.AssertStatusOK(t, rr)
	params := stub.copyCardParams
	require.NotNil(t, params)
	assert.Equal(t, []string{"WORLDPAY", "BANKTRANSFER"}, params.PaymentMethods)
}
