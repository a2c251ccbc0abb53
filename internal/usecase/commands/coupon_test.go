//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"

	"restaurant-ordering/internal/domain/coupon"
	"restaurant-ordering/internal/infra"
	"restaurant-ordering/internal/pkg/clock"
	"restaurant-ordering/internal/usecase/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCoupons struct {
	coupon    *coupon.Coupon
	findErr   error
	result    *commands.RedeemResult
	redeemErr error
	redeemed  int
}

func (s *stubCoupons) FindByCode(_ context.Context, tenantID string, code coupon.Code) (*coupon.Coupon, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.coupon == nil || s.coupon.TenantID() != tenantID || s.coupon.Code() != code {
		return nil, infra.NotFound("coupon not found")
	}
	return s.coupon, nil
}

func (s *stubCoupons) Redeem(context.Context, string) (*commands.RedeemResult, error) {
	s.redeemed++
	return s.result, s.redeemErr
}

func mustCoupon(t *testing.T) *coupon.Coupon {
	t.Helper()
	c, err := coupon.NewCoupon(coupon.Params{
		ID:            "cp-1",
		TenantID:      "t1",
		Code:          "WELCOME",
		DiscountType:  "fixed",
		DiscountValue: 1500,
		IsActive:      true,
	})
	require.NoError(t, err)
	return c
}

func TestCouponApplier_Apply(t *testing.T) {
	loc := &commands.LocationSnapshot{ID: "l1", TenantID: "t1", CouponsEnabled: true}

	tests := []struct {
		name         string
		stub         func(c *coupon.Coupon) *stubCoupons
		code         string
		wantDiscount int64
		wantReason   error
		wantRedeemed int
		wantMismatch int
	}{
		{
			name:         "no code",
			stub:         func(c *coupon.Coupon) *stubCoupons { return &stubCoupons{coupon: c} },
			code:         "",
			wantDiscount: 0,
		},
		{
			name: "atomic redemption",
			stub: func(c *coupon.Coupon) *stubCoupons {
				return &stubCoupons{coupon: c, result: &commands.RedeemResult{Coupon: c, Atomic: true, Expected: 1, Observed: 1, Verified: true}}
			},
			code:         "welcome",
			wantDiscount: 1500,
			wantRedeemed: 1,
		},
		{
			name: "unverified read-modify-write keeps the discount",
			stub: func(c *coupon.Coupon) *stubCoupons {
				return &stubCoupons{coupon: c, result: &commands.RedeemResult{Coupon: c, Expected: 1, Observed: 2}}
			},
			code:         "WELCOME",
			wantDiscount: 1500,
			wantRedeemed: 1,
			wantMismatch: 1,
		},
		{
			name: "lost the last use",
			stub: func(c *coupon.Coupon) *stubCoupons {
				return &stubCoupons{coupon: c, redeemErr: coupon.ErrUsageLimitReached}
			},
			code:         "WELCOME",
			wantReason:   coupon.ErrUsageLimitReached,
			wantRedeemed: 1,
		},
		{
			name: "redemption store failure",
			stub: func(c *coupon.Coupon) *stubCoupons {
				return &stubCoupons{coupon: c, redeemErr: errors.New("timeout")}
			},
			code:         "WELCOME",
			wantRedeemed: 1,
		},
		{
			name: "lookup store failure",
			stub: func(c *coupon.Coupon) *stubCoupons {
				return &stubCoupons{findErr: infra.WrapRepoErr(discardLogger(), infra.KindDBFailure, "down", errors.New("eof"))}
			},
			code:       "WELCOME",
			wantReason: coupon.ErrCouponNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := tt.stub(mustCoupon(t))
			metrics := newRecordingMetrics()
			a := commands.NewCouponApplier(stub, metrics, clock.NewMockClock(fixedNow), discardLogger())

			app := a.Apply(context.Background(), loc, tt.code, 20000)
			assert.Equal(t, tt.wantDiscount, app.Discount)
			if tt.wantReason != nil {
				assert.ErrorIs(t, app.Reason, tt.wantReason)
			}
			if tt.wantDiscount == 0 {
				assert.Empty(t, app.CouponID())
			}
			assert.Equal(t, tt.wantRedeemed, stub.redeemed)
			assert.Equal(t, tt.wantMismatch, metrics.mismatches)
		})
	}
}

func TestCouponApplier_OtherTenantCodeIsAbsent(t *testing.T) {
	stub := &stubCoupons{coupon: mustCoupon(t)}
	a := commands.NewCouponApplier(stub, newRecordingMetrics(), clock.NewMockClock(fixedNow), discardLogger())

	app := a.Evaluate(context.Background(), &commands.LocationSnapshot{TenantID: "t2", CouponsEnabled: true}, "WELCOME", 20000)
	assert.False(t, app.Applied())
	assert.ErrorIs(t, app.Reason, coupon.ErrCouponNotFound)
}
