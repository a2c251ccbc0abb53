//go:build unit

package metrics_test

import (
	"strings"
	"testing"

	"restaurant-ordering/internal/domain/kitchen"
	"restaurant-ordering/internal/domain/order"
	"restaurant-ordering/internal/infra/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := metrics.NewPipeline(reg)
	require.NoError(t, err)

	p.OrderCreated(order.SourceCustomer)
	p.OrderCreated(order.SourceCustomer)
	p.TicketCreated(kitchen.StationHot)
	p.TicketFailed(kitchen.StationBar)
	p.CouponRedeemed(true)
	p.CouponReconciliationMismatch()
	p.LineItemFailed()

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	expected := `
# HELP restaurant_orders_created_total Orders created, by source.
# TYPE restaurant_orders_created_total counter
restaurant_orders_created_total{source="customer"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "restaurant_orders_created_total"))
}

func TestPipeline_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.NewPipeline(reg)
	require.NoError(t, err)

	_, err = metrics.NewPipeline(reg)
	assert.Error(t, err)
}
