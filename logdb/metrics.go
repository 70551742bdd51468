// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"strings"

	"github.com/vechain/stakeledger/metrics"
)

var (
	metricQueryParameters = metrics.LazyLoadCounterVec("logdb_query_parameters", []string{"type", "parameters"})
	metricQueryOrder      = metrics.LazyLoadCounterVec("logdb_query_order", []string{"type", "order"})
	metricLimitBucket     = metrics.LazyLoadHistogramVec("logdb_query_limit_bucket", []string{"type"}, []int64{
		0, 5, 10, 25, 50, 100, 250, 500, 1000,
	})
	metricRowsWritten        = metrics.LazyLoadCounterVec("logdb_rows_written", []string{"type"})
	metricPreparedStatements = metrics.LazyLoadCounterVec("logdb_prepared_statements", []string{"type"})
)

func metricsHandleFilter(table string, filter *Filter) {
	if metrics.NoOp() {
		return
	}

	var params []string
	if filter.Range != nil {
		params = append(params, "range")
	}
	if filter.Validator != nil {
		params = append(params, "validator")
	}
	if filter.Recipient != nil {
		params = append(params, "recipient")
	}
	metricQueryParameters().AddWithLabel(1, map[string]string{"type": table, "parameters": strings.Join(params, ",")})

	order := "asc"
	if filter.Order == DESC {
		order = "desc"
	}
	metricQueryOrder().AddWithLabel(1, map[string]string{"type": table, "order": order})

	if filter.Options != nil {
		metricLimitBucket().ObserveWithLabels(int64(min(filter.Options.Limit, 1001)), map[string]string{"type": table})
	}
}
