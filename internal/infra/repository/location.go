package repository

import (
	"context"
	"errors"
	"log/slog"

	"restaurant-ordering/internal/infra"
	"restaurant-ordering/internal/infra/recordstore"
	"restaurant-ordering/internal/usecase/commands"
)

type LocationRepository struct {
	store  recordstore.Store
	logger *slog.Logger
}

func NewLocationRepository(store recordstore.Store, logger *slog.Logger) *LocationRepository {
	return &LocationRepository{store: store, logger: logger}
}

func (r *LocationRepository) LocationByID(ctx context.Context, id string) (*commands.LocationSnapshot, error) {
	rec, err := r.store.Get(ctx, recordstore.CollectionLocation, id)
	if err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to get location")
	}
	return &commands.LocationSnapshot{
		ID:             rec.ID(),
		TenantID:       rec.RelationID("tenant"),
		Name:           rec.String("name"),
		StateCode:      rec.String("stateCode"),
		CouponsEnabled: rec.BoolOr("couponsEnabled", true),
	}, nil
}

func (r *LocationRepository) TenantByID(ctx context.Context, id string) (*commands.TenantSnapshot, error) {
	rec, err := r.store.Get(ctx, recordstore.CollectionTenant, id)
	if err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to get tenant")
	}
	return &commands.TenantSnapshot{
		ID:        rec.ID(),
		Name:      rec.String("name"),
		StateCode: rec.String("stateCode"),
	}, nil
}

func (r *LocationRepository) TableByID(ctx context.Context, id string) (*commands.TableSnapshot, error) {
	rec, err := r.store.Get(ctx, recordstore.CollectionTable, id)
	if err != nil {
		return nil, wrapStoreErr(r.logger, err, "failed to get table")
	}
	return &commands.TableSnapshot{
		ID:         rec.ID(),
		LocationID: rec.RelationID("location"),
		Label:      rec.String("label"),
	}, nil
}

// wrapStoreErr passes repository errors through and classifies anything
// else as a store failure.
func wrapStoreErr(logger *slog.Logger, err error, msg string) error {
	var repoErr infra.RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}
	return infra.WrapRepoErr(logger, infra.KindDBFailure, msg, err)
}
