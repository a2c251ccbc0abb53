package commands

import (
	"context"
	"fmt"
	"log/slog"

	"restaurant-ordering/internal/domain/order"
	"restaurant-ordering/internal/infra"
	"restaurant-ordering/internal/pkg/errs"
	"restaurant-ordering/internal/pkg/money"

	"golang.org/x/sync/errgroup"
)

const defaultResolveConcurrency = 8

// ResolvedCart is the priced form of a cart, in request order.
type ResolvedCart struct {
	Items    []order.ResolvedLineItem
	Subtotal int64
	Warnings []string
}

type LineItemResolver struct {
	menu        MenuReader
	concurrency int
	logger      *slog.Logger
}

func NewLineItemResolver(menu MenuReader, concurrency int, logger *slog.Logger) *LineItemResolver {
	if concurrency <= 0 {
		concurrency = defaultResolveConcurrency
	}
	return &LineItemResolver{
		menu:        menu,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Resolve prices every request against the live menu of tenantID. A menu
// item that does not exist, or belongs to another tenant, fails the whole
// cart with ErrItemNotFound. Unresolvable option values are dropped and
// reported as warnings.
func (r *LineItemResolver) Resolve(ctx context.Context, tenantID string, reqs []order.LineItemRequest) (*ResolvedCart, error) {
	items := make([]order.ResolvedLineItem, len(reqs))
	warnings := make([][]string, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			item, warns, err := r.resolveOne(gctx, tenantID, req)
			if err != nil {
				return err
			}
			items[i] = item
			warnings[i] = warns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cart := &ResolvedCart{Items: items}
	for i, item := range items {
		line, err := item.CheckedSubtotal()
		if err == nil {
			cart.Subtotal, err = money.Add(cart.Subtotal, line)
		}
		if err != nil {
			return nil, amountOutOfRange(item.MenuItemID)
		}
		cart.Warnings = append(cart.Warnings, warnings[i]...)
	}
	return cart, nil
}

func (r *LineItemResolver) resolveOne(
	ctx context.Context,
	tenantID string,
	req order.LineItemRequest,
) (order.ResolvedLineItem, []string, error) {
	item, err := r.menu.MenuItemByID(ctx, req.MenuItemID)
	if err != nil {
		if infra.IsNotFound(err) {
			return order.ResolvedLineItem{}, nil, itemNotFound(req.MenuItemID)
		}
		return order.ResolvedLineItem{}, nil, errs.Mark(err, ErrStoreFailure)
	}
	if item.TenantID != "" && item.TenantID != tenantID {
		return order.ResolvedLineItem{}, nil, itemNotFound(req.MenuItemID)
	}

	var warnings []string
	if !item.IsAvailable {
		warnings = append(warnings, fmt.Sprintf("menu item %s is marked unavailable", item.ID))
	}

	unitPrice := item.PriceMinor
	var snapshots []order.OptionSnapshot
	for _, sel := range req.SelectedOptions {
		for _, valueID := range sel.OptionValueIDs {
			value, err := r.menu.OptionValueByID(ctx, valueID)
			if err != nil {
				if ctx.Err() != nil {
					return order.ResolvedLineItem{}, nil, ctx.Err()
				}
				r.logger.Debug("skipping unresolved option value",
					slog.String("menu_item_id", item.ID),
					slog.String("option_value_id", valueID),
					slog.String("error", err.Error()))
				warnings = append(warnings, fmt.Sprintf("option value %s for menu item %s was not found and was skipped", valueID, item.ID))
				continue
			}
			if sel.OptionGroupID != "" && value.OptionGroupID != "" && value.OptionGroupID != sel.OptionGroupID {
				warnings = append(warnings, fmt.Sprintf("option value %s does not belong to option group %s and was skipped", valueID, sel.OptionGroupID))
				continue
			}
			if unitPrice, err = money.Add(unitPrice, value.PriceDeltaMinor); err != nil {
				return order.ResolvedLineItem{}, nil, amountOutOfRange(item.ID)
			}
			snapshots = append(snapshots, order.OptionSnapshot{
				OptionGroupID: value.OptionGroupID,
				OptionValueID: value.ID,
				Name:          value.Name,
				PriceDelta:    value.PriceDeltaMinor,
			})
		}
	}

	return order.ResolvedLineItem{
		MenuItemID:          item.ID,
		NameSnapshot:        item.Name,
		DescriptionSnapshot: item.Description,
		CategoryID:          item.CategoryID,
		Quantity:            req.Quantity,
		UnitPriceMinor:      unitPrice,
		OptionsSnapshot:     snapshots,
		TaxRateBasisPoints:  item.TaxRateBps,
	}, warnings, nil
}

func amountOutOfRange(id string) error {
	return errs.Mark(errs.Wrapf(money.ErrOverflow, "line amount for menu item %s", id), ErrInvalidInput)
}

func itemNotFound(id string) error {
	return errs.Mark(errs.Newf("menu item %s not found", id), ErrItemNotFound)
}
