package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/ripple/internal/logging"
	ripplehttp "github.com/aretw0/ripple/pkg/adapters/http"
	"github.com/aretw0/ripple/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct {
	published []domain.Event
	err       error
}

func (p *stubPublisher) Publish(ctx context.Context, ev domain.Event) error {
	p.published = append(p.published, ev)
	return p.err
}

func newTestServer(t *testing.T, pub *stubPublisher) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(ripplehttp.NewHandler(pub, logging.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, &stubPublisher{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestServer_IngestAccepted(t *testing.T) {
	pub := &stubPublisher{}
	srv := newTestServer(t, pub)

	body := `{"id":"e1","type":"order.placed","payload":{"sku":"A-1"}}`
	resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "order.placed", pub.published[0].Type)
	assert.Equal(t, "A-1", pub.published[0].Payload["sku"])
}

func TestServer_IngestInvalidBody(t *testing.T) {
	pub := &stubPublisher{}
	srv := newTestServer(t, pub)

	resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, pub.published)
}

func TestServer_IngestValidation(t *testing.T) {
	pub := &stubPublisher{}
	srv := newTestServer(t, pub)

	// Missing event type fails validation before anything is published.
	resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(`{"id":"e1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Empty(t, pub.published)
}

func TestServer_IngestPublishFailure(t *testing.T) {
	t.Run("argument errors map to 422", func(t *testing.T) {
		pub := &stubPublisher{err: domain.ErrMissingSagaVersion}
		srv := newTestServer(t, pub)

		body := `{"id":"e1","type":"order.placed"}`
		resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("other errors map to 502", func(t *testing.T) {
		pub := &stubPublisher{err: errors.New("redis down")}
		srv := newTestServer(t, pub)

		body := `{"id":"e1","type":"order.placed"}`
		resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}

func TestServer_CORSPreflight(t *testing.T) {
	srv := newTestServer(t, &stubPublisher{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
