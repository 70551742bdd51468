// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/api/apitest"
	"github.com/vechain/stakeledger/api/subscriptions"
	"github.com/vechain/stakeledger/api/validators"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/thor"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func scrape(t *testing.T, metricsURL string) map[string]*dto.MetricFamily {
	_, body := apitest.Get(t, metricsURL)
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)
	return families
}

func labelMap(m *dto.Metric) map[string]string {
	out := make(map[string]string)
	for _, l := range m.GetLabel() {
		out[l.GetName()] = l.GetValue()
	}
	return out
}

func TestMetricsMiddleware(t *testing.T) {
	router := mux.NewRouter()
	validators.New(apitest.NewLedger(t)).Mount(router, "/validators")
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer ts.Close()

	apitest.Get(t, ts.URL+"/validators/"+apitest.Val1.String())
	apitest.Get(t, ts.URL+"/validators/0x")
	apitest.Get(t, ts.URL+"/validators/"+thor.BytesToAddress([]byte("nobody")).String())
	apitest.Get(t, ts.URL+"/validators/"+apitest.Val2.String()+"/voting-power")

	families := scrape(t, ts.URL+"/metrics")
	m := families["stakeledger_api_request_count"].GetMetric()
	require.Len(t, m, 4)

	codes := make(map[string]string)
	for _, metric := range m {
		assert.Equal(t, float64(1), metric.GetCounter().GetValue())
		labels := labelMap(metric)
		assert.Equal(t, "GET", labels["method"])
		codes[labels["name"]+" "+labels["code"]] = labels["code"]
	}
	assert.Equal(t, map[string]string{
		"validators_address 200":              "200",
		"validators_address 400":              "400",
		"validators_address 404":              "404",
		"validators_address_voting_power 200": "200",
	}, codes)

	assert.NotNil(t, families["stakeledger_api_duration_ms"])
}

func TestWebsocketMetrics(t *testing.T) {
	feed := subscriptions.NewFeed()
	handler, closeSubs := New(apitest.NewLedger(t), nil, feed, Options{AllowedOrigins: "*", EnableMetrics: true})
	ts := httptest.NewServer(handler)
	defer ts.Close()
	defer closeSubs()
	metricsServer := httptest.NewServer(metrics.HTTPHandler())
	defer metricsServer.Close()

	activeCount := func() float64 {
		m := scrape(t, metricsServer.URL)["stakeledger_api_active_websocket_count"].GetMetric()
		if len(m) == 0 {
			return 0
		}
		require.Len(t, m, 1)
		assert.Equal(t, map[string]string{"subject": "epoch"}, labelMap(m[0]))
		return m[0].GetGauge().GetValue()
	}

	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/epoch"}
	conn1, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer conn1.Close()
	require.Eventually(t, func() bool { return activeCount() == 1 }, time.Second, 10*time.Millisecond)

	conn2, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return activeCount() == 2 }, time.Second, 10*time.Millisecond)

	conn2.Close()
	require.Eventually(t, func() bool { return activeCount() == 1 }, time.Second, 10*time.Millisecond)
}
