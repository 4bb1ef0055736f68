package usage

import (
	"context"
	"fmt"

	domitem "github.com/kailas-cloud/itemradar/internal/domain/item"
)

// BudgetReport describes one AI token budget period.
type BudgetReport struct {
	Limit     int64 `json:"limit"`
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
	Exhausted bool  `json:"exhausted"`
}

// Report aggregates item inventory counts and AI budget state.
type Report struct {
	ItemsByStatus map[string]int `json:"items_by_status"`
	ItemsByType   map[string]int `json:"items_by_type"`
	Daily         BudgetReport   `json:"daily"`
	Monthly       BudgetReport   `json:"monthly"`
}

// Service handles usage reporting.
type Service struct {
	items  ItemCounter
	budget BudgetReader
}

// New creates a Service. budget can be nil (unlimited mode).
func New(items ItemCounter, budget BudgetReader) *Service {
	return &Service{items: items, budget: budget}
}

// GetReport counts stored items per facet and snapshots the token budget.
func (s *Service) GetReport(ctx context.Context) (Report, error) {
	r := Report{
		ItemsByStatus: make(map[string]int),
		ItemsByType:   make(map[string]int),
	}

	statuses := []domitem.Status{
		domitem.StatusActive, domitem.StatusMatched,
		domitem.StatusExpired, domitem.StatusSpam,
	}
	for _, st := range statuses {
		n, err := s.items.CountByStatus(ctx, st)
		if err != nil {
			return Report{}, fmt.Errorf("count items by status %s: %w", st, err)
		}
		r.ItemsByStatus[string(st)] = n
	}
	for _, t := range []domitem.Type{domitem.TypeLost, domitem.TypeFound} {
		n, err := s.items.CountByType(ctx, t)
		if err != nil {
			return Report{}, fmt.Errorf("count items by type %s: %w", t, err)
		}
		r.ItemsByType[string(t)] = n
	}

	if s.budget != nil {
		r.Daily = BudgetReport{
			Limit:     s.budget.DailyLimit(),
			Used:      s.budget.DailyUsed(),
			Remaining: s.budget.RemainingDaily(),
			Exhausted: s.budget.DailyLimit() > 0 && s.budget.RemainingDaily() <= 0,
		}
		r.Monthly = BudgetReport{
			Limit:     s.budget.MonthlyLimit(),
			Used:      s.budget.MonthlyUsed(),
			Remaining: s.budget.RemainingMonthly(),
			Exhausted: s.budget.MonthlyLimit() > 0 && s.budget.RemainingMonthly() <= 0,
		}
	}

	return r, nil
}
