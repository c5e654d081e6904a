package domain

import "sort"

// StockStatus is the severity tier for the aggregate warning list.
type StockStatus string

const (
	StatusHealthy  StockStatus = "healthy"
	StatusLow      StockStatus = "low"
	StatusCritical StockStatus = "critical"
)

// DisplayStatus is the stricter per-card variant that also distinguishes
// a fully depleted item from a critical one.
type DisplayStatus string

const (
	DisplayHealthy    DisplayStatus = "healthy"
	DisplayLow        DisplayStatus = "low"
	DisplayCritical   DisplayStatus = "critical"
	DisplayOutOfStock DisplayStatus = "out_of_stock"
)

// lowStockFactor is the sole tunable threshold: an item is low while its
// quantity is at most minStock*lowStockFactor.
const lowStockFactor = 1.5

// Classify maps a quantity against its minimum-stock threshold.
// quantity == minStock is critical; quantity == 1.5*minStock is low.
func Classify(quantity, minStock float64) StockStatus {
	switch {
	case quantity <= minStock:
		return StatusCritical
	case quantity <= minStock*lowStockFactor:
		return StatusLow
	default:
		return StatusHealthy
	}
}

// ClassifyDisplay is Classify with an extra out-of-stock tier for
// single-item cards.
func ClassifyDisplay(quantity, minStock float64) DisplayStatus {
	if quantity <= 0 {
		return DisplayOutOfStock
	}
	return DisplayStatus(Classify(quantity, minStock))
}

// Status classifies the item for the warning list.
func (i StockItem) Status() StockStatus {
	return Classify(i.Quantity, i.MinStock)
}

// WarningList returns the items needing attention: critical items first,
// then low items, each tier ascending by quantity. Healthy items are
// excluded. The input slice is not modified.
func WarningList(items []StockItem) []StockItem {
	warnings := make([]StockItem, 0, len(items))
	for _, item := range items {
		if item.Status() != StatusHealthy {
			warnings = append(warnings, item)
		}
	}
	sort.SliceStable(warnings, func(a, b int) bool {
		sa, sb := warnings[a].Status(), warnings[b].Status()
		if sa != sb {
			return sa == StatusCritical
		}
		return warnings[a].Quantity < warnings[b].Quantity
	})
	return warnings
}
