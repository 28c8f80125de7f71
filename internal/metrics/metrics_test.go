package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rustyeddy/tradedash/feed"
	"github.com/stretchr/testify/assert"
)

func TestGetIsShared(t *testing.T) {
	assert.Same(t, Get(), Get())
}

func TestObserveFetch(t *testing.T) {
	r := Get()
	okBefore := testutil.ToFloat64(fetchTotal.WithLabelValues("getLiveStats", "ok"))
	httpBefore := testutil.ToFloat64(fetchTotal.WithLabelValues("getLiveStats", "http"))

	r.ObserveFetch("getLiveStats", 20*time.Millisecond, nil)
	r.ObserveFetch("getLiveStats", 20*time.Millisecond, &feed.NetworkError{Status: 500})

	assert.Equal(t, okBefore+1, testutil.ToFloat64(fetchTotal.WithLabelValues("getLiveStats", "ok")))
	assert.Equal(t, httpBefore+1, testutil.ToFloat64(fetchTotal.WithLabelValues("getLiveStats", "http")))
}

func TestObserveFetchOtherError(t *testing.T) {
	before := testutil.ToFloat64(fetchTotal.WithLabelValues("flat", "error"))
	Get().ObserveFetch("flat", time.Millisecond, errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(fetchTotal.WithLabelValues("flat", "error")))
}

func TestGauges(t *testing.T) {
	r := Get()

	r.Connected(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(connected))
	r.Connected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(connected))

	r.SetViewers(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(viewers))

	before := testutil.ToFloat64(ticksTotal)
	r.Tick()
	assert.Equal(t, before+1, testutil.ToFloat64(ticksTotal))
}
