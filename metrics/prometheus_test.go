// Copyright (c) 2025 The Drip developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopByDefault(t *testing.T) {
	_, ok := metrics.(*noopMetrics)
	require.True(t, ok)

	// meters on the noop service are inert
	Counter("noop_counter").Add(1)
	Gauge("noop_gauge").Set(5)
	assert.Nil(t, HTTPHandler())
}

func TestPrometheusMeters(t *testing.T) {
	InitializePrometheusMetrics()
	defer func() { metrics = defaultNoopMetrics() }()

	Counter("deposits_total").Add(2)
	CounterVec("claims_total", []string{"result"}).AddWithLabel(1, map[string]string{"result": "ok"})
	Gauge("pool_total").Set(100)
	GaugeVec("epoch_pool", []string{"epoch"}).SetWithLabel(42, map[string]string{"epoch": "1"})

	// same name yields the same meter
	assert.Equal(t, Counter("deposits_total"), Counter("deposits_total"))

	rec := httptest.NewRecorder()
	HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "drip_metrics_deposits_total"))
	assert.True(t, strings.Contains(body, "drip_metrics_pool_total"))
}
