//go:build e2e

package e2e

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"restaurant-ordering/internal/domain/staff"
	"restaurant-ordering/internal/infra/recordstore"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const (
	TenantID        = "tenant-spice"
	LocationID      = "loc-indiranagar"
	InterstateLocID = "loc-pune"
	TableID         = "table-4"

	PaneerID = "mi-paneer-tikka"
	LassiID  = "mi-mango-lassi"
	KulfiID  = "mi-kulfi"
	CheeseID = "ov-extra-cheese"
)

// SeedReferenceData writes one tenant with two locations, a small menu and
// two coupons through the Postgres record store.
func SeedReferenceData(ctx context.Context, pool *pgxpool.Pool) error {
	store := recordstore.NewPostgresStore(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	records := []struct {
		collection string
		fields     recordstore.Record
	}{
		{recordstore.CollectionTenant, recordstore.Record{"id": TenantID, "name": "Spice Route", "stateCode": "KA"}},
		{recordstore.CollectionLocation, recordstore.Record{"id": LocationID, "tenant": []string{TenantID}, "name": "Indiranagar", "stateCode": "KA", "couponsEnabled": true}},
		{recordstore.CollectionLocation, recordstore.Record{"id": InterstateLocID, "tenant": TenantID, "name": "Pune", "stateCode": "MH", "couponsEnabled": true}},
		{recordstore.CollectionTable, recordstore.Record{"id": TableID, "location": LocationID, "label": "T4"}},
		{recordstore.CollectionMenuCategory, recordstore.Record{"id": "cat-main", "tenant": TenantID, "name": "Main Course"}},
		{recordstore.CollectionMenuCategory, recordstore.Record{"id": "cat-bev", "tenant": TenantID, "name": "Beverages"}},
		{recordstore.CollectionMenuCategory, recordstore.Record{"id": "cat-dessert", "tenant": TenantID, "name": "Desserts"}},
		{recordstore.CollectionMenuItem, recordstore.Record{"id": PaneerID, "tenant": TenantID, "category": "cat-main", "name": "Paneer Tikka", "priceMinor": 25000, "taxRateBps": 500}},
		{recordstore.CollectionMenuItem, recordstore.Record{"id": LassiID, "tenant": TenantID, "category": []string{"cat-bev"}, "name": "Mango Lassi", "priceMinor": 12000, "taxRateBps": 1200}},
		{recordstore.CollectionMenuItem, recordstore.Record{"id": KulfiID, "tenant": TenantID, "category": "cat-dessert", "name": "Kulfi", "priceMinor": 9000, "taxRateBps": 500}},
		{recordstore.CollectionOptionValue, recordstore.Record{"id": CheeseID, "optionGroup": "og-toppings", "name": "Extra cheese", "priceDeltaMinor": 3000}},
		{recordstore.CollectionCoupon, recordstore.Record{"id": "cp-save10", "tenant": TenantID, "code": "SAVE10", "discountType": "percentage", "discountValue": 1000, "maxDiscountAmount": 5000, "isActive": true, "usedCount": 0}},
		{recordstore.CollectionCoupon, recordstore.Record{"id": "cp-once", "tenant": TenantID, "code": "ONCE", "discountType": "fixed", "discountValue": 2000, "usageLimit": 1, "usedCount": 0, "isActive": true}},
	}
	for _, r := range records {
		if _, err := store.Create(ctx, r.collection, r.fields); err != nil {
			return err
		}
	}
	return nil
}

// ResetDB truncates every collection and reseeds the reference data.
func ResetDB(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, "TRUNCATE records"); err != nil {
		return err
	}
	return SeedReferenceData(ctx, pool)
}

func mustPrincipal(t *testing.T, staffID, tenantID, role string) staff.Principal {
	t.Helper()
	p, err := staff.NewPrincipal(staffID, tenantID, role)
	require.NoError(t, err)
	return p
}
