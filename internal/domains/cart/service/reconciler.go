package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bookstore-ecommerce/internal/domains/cart/model"
	catalogService "bookstore-ecommerce/internal/domains/catalog/service"
)

// Reconciler corrects a client-asserted cart against catalog price and stock.
// It is read-only: nothing is reserved.
type Reconciler interface {
	Reconcile(ctx context.Context, lines []model.LineRequest) (*model.Reconciliation, error)
}

type reconciler struct {
	catalog catalogService.Gateway
}

func NewReconciler(catalog catalogService.Gateway) Reconciler {
	return &reconciler{catalog: catalog}
}

func (r *reconciler) Reconcile(ctx context.Context, lines []model.LineRequest) (*model.Reconciliation, error) {
	req := model.ReconcileRequest{Items: lines}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	merged := model.MergeLines(lines)

	ids := make([]int64, len(merged))
	for i, l := range merged {
		ids[i] = l.BookID
	}

	stock, err := r.catalog.LookupMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}

	result := &model.Reconciliation{
		Lines:       make([]model.ReconciledLine, 0, len(merged)),
		Adjustments: []model.Adjustment{},
		Subtotal:    decimal.Zero,
	}

	for _, line := range merged {
		info, ok := stock[line.BookID]
		switch {
		case !ok:
			result.Adjustments = append(result.Adjustments, model.Adjustment{
				BookID: line.BookID, Kind: model.AdjustmentRemoved, Requested: line.Quantity,
			})
			continue

		case info.Stock <= 0:
			result.Adjustments = append(result.Adjustments, model.Adjustment{
				BookID: line.BookID, Kind: model.AdjustmentOutOfStock, Requested: line.Quantity,
			})
			continue
		}

		qty := line.Quantity
		if info.Stock < qty {
			// Clamp về số lượng còn trong kho và báo lại cho client
			qty = info.Stock
			result.Adjustments = append(result.Adjustments, model.Adjustment{
				BookID:    line.BookID,
				Kind:      model.AdjustmentPartiallyFulfilled,
				Requested: line.Quantity,
				Granted:   qty,
			})
		}

		lineTotal := info.Price.Mul(decimal.NewFromInt(int64(qty)))
		result.Lines = append(result.Lines, model.ReconciledLine{
			BookID:    line.BookID,
			Title:     info.Title,
			UnitPrice: info.Price,
			Quantity:  qty,
			LineTotal: lineTotal,
		})
		result.Subtotal = result.Subtotal.Add(lineTotal)
	}

	return result, nil
}
