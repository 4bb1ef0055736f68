package usage

import (
	"context"

	domitem "github.com/kailas-cloud/itemradar/internal/domain/item"
)

// BudgetReader provides read-only access to AI token budget state.
type BudgetReader interface {
	DailyLimit() int64
	MonthlyLimit() int64
	DailyUsed() int64
	MonthlyUsed() int64
	RemainingDaily() int64
	RemainingMonthly() int64
}

// ItemCounter counts stored items by facet.
type ItemCounter interface {
	CountByStatus(ctx context.Context, status domitem.Status) (int, error)
	CountByType(ctx context.Context, t domitem.Type) (int, error)
}
