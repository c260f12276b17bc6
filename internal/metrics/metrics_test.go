package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(nil)

	m.OffersCreated.Inc()
	m.OffersRejected.WithLabelValues(ReasonOverfunding).Inc()
	m.OffersRejected.WithLabelValues(ReasonOverfunding).Inc()
	m.ObserveRequest(http.MethodGet, http.StatusOK, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OffersCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OffersRejected.WithLabelValues(ReasonOverfunding)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OffersRejected.WithLabelValues(ReasonSelfFunding)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "200")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(nil)
	m.WishesCopied.Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "wishfund_wishes_copied_total 1")
}
