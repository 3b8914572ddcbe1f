package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regoffice/internal/convictions"
	"regoffice/internal/convictions/handler"
	"regoffice/internal/docstore"
	"regoffice/pkg/platform/sentinel"
	"regoffice/pkg/testutil"
)

type stubService struct {
	subject convictions.Subject
	result  convictions.CheckResult
	err     error
}

func (s *stubService) Check(_ context.Context, subject convictions.Subject) (convictions.CheckResult, error) {
	s.subject = subject
	return s.result, s.err
}

func newRouter(service handler.Service) http.Handler {
	return newRouterWith(service, convictions.NewGateway(docstore.NewMemory()))
}

func newRouterWith(service handler.Service, entities convictions.Gateway) http.Handler {
	r := chi.NewRouter()
	handler.New(service, entities, slog.New(slog.DiscardHandler)).Register(r)
	return r
}

func TestCheckEndpoint(t *testing.T) {
	t.Run("company request classifies as a company subject", func(t *testing.T) {
		stub := &stubService{result: convictions.CheckResult{Matched: true, Tier: convictions.TierCompanyNumber}}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/convictions/check", map[string]string{
			"companyName":   "Acme Ltd",
			"companyNumber": "00123456",
		})
		rr := testutil.DoRequest(newRouter(stub), req)

		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, convictions.KindCompany, stub.subject.Kind)
		assert.Equal(t, "00123456", stub.subject.CompanyNumber)

		result := testutil.UnmarshalResponse[convictions.CheckResult](t, rr)
		assert.True(t, result.Matched)
		assert.Equal(t, convictions.TierCompanyNumber, result.Tier)
	})

	t.Run("a person name routes the subject to the person matcher", func(t *testing.T) {
		stub := &stubService{}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/convictions/check", map[string]string{
			"firstName":   "Fred",
			"lastName":    "Smith",
			"dateOfBirth": "01/05/1990",
		})
		rr := testutil.DoRequest(newRouter(stub), req)

		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, convictions.KindPerson, stub.subject.Kind)
		assert.Equal(t, "01/05/1990", stub.subject.DateOfBirth)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/convictions/check", "{not json")
		rr := testutil.DoRequest(newRouter(&stubService{}), req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("unsearchable subject is a bad request", func(t *testing.T) {
		stub := &stubService{err: sentinel.ErrInvalidQuery}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/convictions/check", map[string]string{})
		rr := testutil.DoRequest(newRouter(stub), req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("store unavailability is a 503", func(t *testing.T) {
		stub := &stubService{err: sentinel.ErrUnavailable}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/convictions/check", map[string]string{"companyNumber": "1"})
		rr := testutil.DoRequest(newRouter(stub), req)
		testutil.AssertStatusAndError(t, rr, http.StatusServiceUnavailable, "store_unavailable")
	})
}

func TestStatusEndpoint(t *testing.T) {
	store := docstore.NewMemory()
	for _, name := range []string{"ACME WASTE", "SMITH HAULAGE"} {
		doc, err := convictions.ReferenceEntity{Kind: convictions.KindCompany, Name: name}.Document()
		require.NoError(t, err)
		require.NoError(t, store.Insert(context.Background(), doc))
	}

	router := newRouterWith(&stubService{}, convictions.NewGateway(store))
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/convictions/status"))

	testutil.AssertStatusOK(t, rr)
	body := testutil.UnmarshalResponse[map[string]int64](t, rr)
	assert.Equal(t, int64(2), (*body)["entities"])
}
