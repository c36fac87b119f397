package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordOrderOperation(t *testing.T) {
	before := testutil.ToFloat64(orderOperations.WithLabelValues("create", "error"))
	RecordOrderOperation("create", false)
	assert.Equal(t, before+1, testutil.ToFloat64(orderOperations.WithLabelValues("create", "error")))
}

func TestRecordCouponRedemption(t *testing.T) {
	before := testutil.ToFloat64(couponRedemptions.WithLabelValues("limit_reached"))
	RecordCouponRedemption("limit_reached")
	RecordCouponRedemption("limit_reached")
	assert.Equal(t, before+2, testutil.ToFloat64(couponRedemptions.WithLabelValues("limit_reached")))
}

func TestRecordNotification(t *testing.T) {
	before := testutil.ToFloat64(notifications.WithLabelValues("order.created", "dropped"))
	RecordNotification("order.created", "dropped")
	assert.Equal(t, before+1, testutil.ToFloat64(notifications.WithLabelValues("order.created", "dropped")))
}
