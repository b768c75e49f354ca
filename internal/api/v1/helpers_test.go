package v1_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	v1 "github.com/stacklok/phone-registry-server/internal/api/v1"
	jobmocks "github.com/stacklok/phone-registry-server/internal/jobs/mocks"
	providermocks "github.com/stacklok/phone-registry-server/internal/provider/mocks"
	"github.com/stacklok/phone-registry-server/internal/service/mocks"
	coordmocks "github.com/stacklok/phone-registry-server/internal/sync/coordinator/mocks"
)

type fixture struct {
	svc         *mocks.MockQueryService
	tracker     *jobmocks.MockTracker
	coordinator *coordmocks.MockCoordinator
	provider    *providermocks.MockClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	return &fixture{
		svc:         mocks.NewMockQueryService(ctrl),
		tracker:     jobmocks.NewMockTracker(ctrl),
		coordinator: coordmocks.NewMockCoordinator(ctrl),
		provider:    providermocks.NewMockClient(ctrl),
	}
}

// router returns the v1 router with every dependency configured
func (f *fixture) router() http.Handler {
	return v1.Router(v1.Dependencies{
		Service:     f.svc,
		Tracker:     f.tracker,
		Coordinator: f.coordinator,
		Provider:    f.provider,
	})
}

// unconfigured returns the v1 router as served without provider credentials
func (f *fixture) unconfigured() http.Handler {
	return v1.Router(v1.Dependencies{
		Service: f.svc,
		Tracker: f.tracker,
	})
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func strPtr(s string) *string { return &s }
