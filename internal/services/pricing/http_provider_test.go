package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"FXRisk/internal/domain/models"
	"FXRisk/pkg/config"
	xhttp "FXRisk/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHTTPProvider(t *testing.T, h http.HandlerFunc) *HTTPPricingProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.Pricing.ServiceURL = srv.URL
	cfg.Pricing.Timeout = 2 * time.Second
	cfg.Pricing.Retries = 2
	return NewHTTPPricingProvider(cfg)
}

func TestHTTPProviderStrikeRequest(t *testing.T) {
	var got strikeReq
	p := newHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/binary/strike", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(priceResp{Price: 1.1234})
	})

	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	k, err := p.GetPercentileStrike(context.Background(), d, d.AddDate(0, 3, 0), 0.95,
		models.InstrumentSpec{Pair: "EURUSD", Expiry: d.AddDate(0, 3, 0)})
	require.NoError(t, err)
	assert.Equal(t, 1.1234, k)

	assert.Equal(t, "EURUSD", got.Pair)
	assert.Equal(t, "2024-01-02", got.PricingDate)
	assert.Equal(t, "2024-04-02", got.Expiry)
	assert.Equal(t, models.SideCall, got.Side)
	assert.InDelta(t, 0.05, got.Probability, 1e-12)
}

func TestHTTPProviderRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	p := newHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(priceResp{Price: 1.1})
	})

	spot, err := p.GetSpot(context.Background(), time.Now(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 1.1, spot)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPProviderDoesNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	p := newHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown pair", http.StatusBadRequest)
	})

	_, err := p.GetForward(context.Background(), time.Now(), models.InstrumentSpec{Pair: "XXXYYY", Expiry: time.Now()})
	require.Error(t, err)
	var se *xhttp.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, int32(1), calls.Load())
}
