package repository

import (
	"context"
	"log/slog"

	"restaurant-ordering/internal/infra/recordstore"
	"restaurant-ordering/internal/usecase/commands"
)

type MenuRepository struct {
	store  recordstore.Store
	logger *slog.Logger
}

func NewMenuRepository(store recordstore.Store, logger *slog.Logger) *MenuRepository {
	return &MenuRepository{store: store, logger: logger}
}

func (r *MenuRepository) MenuItemByID(ctx context.Context, id string) (*commands.MenuItemSnapshot, error) {
	rec, err := r.store.Get(ctx, recordstore.CollectionMenuItem, id)
	if err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to get menu item")
	}
	return &commands.MenuItemSnapshot{
		ID:          rec.ID(),
		TenantID:    rec.RelationID("tenant"),
		CategoryID:  rec.RelationID("category"),
		Name:        rec.String("name"),
		Description: rec.String("description"),
		PriceMinor:  rec.Int("priceMinor"),
		TaxRateBps:  rec.Int("taxRateBps"),
		IsAvailable: rec.BoolOr("isAvailable", true),
	}, nil
}

func (r *MenuRepository) OptionValueByID(ctx context.Context, id string) (*commands.OptionValueSnapshot, error) {
	rec, err := r.store.Get(ctx, recordstore.CollectionOptionValue, id)
	if err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to get option value")
	}
	return &commands.OptionValueSnapshot{
		ID:              rec.ID(),
		OptionGroupID:   rec.RelationID("optionGroup"),
		Name:            rec.String("name"),
		PriceDeltaMinor: rec.Int("priceDeltaMinor"),
	}, nil
}

func (r *MenuRepository) CategoryByID(ctx context.Context, id string) (*commands.CategorySnapshot, error) {
	rec, err := r.store.Get(ctx, recordstore.CollectionMenuCategory, id)
	if err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to get menu category")
	}
	return &commands.CategorySnapshot{
		ID:       rec.ID(),
		TenantID: rec.RelationID("tenant"),
		Name:     rec.String("name"),
	}, nil
}
