package repository

import (
	"context"
	"log/slog"

	"restaurant-ordering/internal/domain/coupon"
	"restaurant-ordering/internal/infra"
	"restaurant-ordering/internal/infra/recordstore"
	"restaurant-ordering/internal/pkg/errs"
	"restaurant-ordering/internal/usecase/commands"
)

type CouponRepository struct {
	store  recordstore.Store
	logger *slog.Logger
}

func NewCouponRepository(store recordstore.Store, logger *slog.Logger) *CouponRepository {
	return &CouponRepository{store: store, logger: logger}
}

// FindByCode looks a coupon up by upper-cased code within a tenant.
func (r *CouponRepository) FindByCode(ctx context.Context, tenantID string, code coupon.Code) (*coupon.Coupon, error) {
	rec, err := recordstore.First(ctx, r.store, recordstore.CollectionCoupon, recordstore.ListOptions{
		Filter: []recordstore.Cond{
			recordstore.Eq("tenant", tenantID),
			recordstore.Eq("code", code.String()),
		},
	})
	if err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to find coupon by code")
	}
	if rec == nil {
		return nil, infra.NotFound("coupon " + code.String() + " not found")
	}

	c, err := toCoupon(rec)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindValidation, "failed to convert coupon record", err)
	}
	return c, nil
}

// Redeem increments usedCount by one. With a Mutator store the increment is
// atomic and guarded by usageLimit; otherwise it is a plain read-modify-write
// followed by a verifying re-read.
func (r *CouponRepository) Redeem(ctx context.Context, couponID string) (*commands.RedeemResult, error) {
	if m, ok := r.store.(recordstore.Mutator); ok {
		return r.redeemAtomic(ctx, m, couponID)
	}
	return r.redeemReadModifyWrite(ctx, couponID)
}

func (r *CouponRepository) redeemAtomic(ctx context.Context, m recordstore.Mutator, couponID string) (*commands.RedeemResult, error) {
	var redeemed *coupon.Coupon
	_, err := m.Mutate(ctx, recordstore.CollectionCoupon, couponID, func(cur recordstore.Record) (recordstore.Record, error) {
		c, err := toCoupon(cur)
		if err != nil {
			return nil, err
		}
		if err := c.Redeem(); err != nil {
			return nil, err
		}
		redeemed = c
		return recordstore.Record{"usedCount": c.UsedCount()}, nil
	})
	if err != nil {
		if errs.Is(err, coupon.ErrUsageLimitReached) {
			return nil, err
		}
		return nil, wrapStoreErr(r.logger, err, "failed to redeem coupon")
	}

	return &commands.RedeemResult{
		Coupon:   redeemed,
		Atomic:   true,
		Expected: redeemed.UsedCount(),
		Observed: redeemed.UsedCount(),
		Verified: true,
	}, nil
}

func (r *CouponRepository) redeemReadModifyWrite(ctx context.Context, couponID string) (*commands.RedeemResult, error) {
	rec, err := r.store.Get(ctx, recordstore.CollectionCoupon, couponID)
	if err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to read coupon for redemption")
	}
	c, err := toCoupon(rec)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindValidation, "failed to convert coupon record", err)
	}
	if err := c.Redeem(); err != nil {
		return nil, err
	}

	expected := c.UsedCount()
	if _, err := r.store.Update(ctx, recordstore.CollectionCoupon, couponID, recordstore.Record{"usedCount": expected}); err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to write coupon usage")
	}

	result := &commands.RedeemResult{Coupon: c, Expected: expected}
	after, err := r.store.Get(ctx, recordstore.CollectionCoupon, couponID)
	if err != nil {
		// The write is already in; an unverifiable count is reported, not fatal.
		r.logger.Warn("failed to re-read coupon after redemption",
			slog.String("coupon_id", couponID),
			slog.String("error", err.Error()))
		return result, nil
	}
	result.Observed = after.Int("usedCount")
	result.Verified = result.Observed == expected
	return result, nil
}

func toCoupon(rec recordstore.Record) (*coupon.Coupon, error) {
	return coupon.NewCoupon(coupon.Params{
		ID:             rec.ID(),
		TenantID:       rec.RelationID("tenant"),
		Code:           rec.String("code"),
		DiscountType:   rec.String("discountType"),
		DiscountValue:  rec.Int("discountValue"),
		MinOrderAmount: rec.Int("minOrderAmount"),
		MaxDiscount:    positive(rec.IntPtr("maxDiscountAmount")),
		ValidFrom:      rec.Time("validFrom"),
		ValidUntil:     rec.Until("validUntil"),
		UsageLimit:     positive(rec.IntPtr("usageLimit")),
		UsedCount:      rec.Int("usedCount"),
		IsActive:       rec.Bool("isActive"),
	})
}

// positive maps the store's zero default for optional numbers to unset.
func positive(v *int64) *int64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}
