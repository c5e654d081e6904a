package domain

import (
	"time"

	"stockapp/internal/dates"
)

// FilterTransactions returns the transactions whose timestamp falls
// inside the range resolved for the given filter, bounds inclusive,
// preserving input order. When no range resolves (a custom filter with a
// missing or unparsable bound) the result is empty: an incomplete custom
// selection matches nothing, which is distinct from having no filter.
func FilterTransactions(transactions []Transaction, filter dates.Filter, now time.Time, customStart, customEnd string) []Transaction {
	rng, ok := dates.Resolve(filter, now, customStart, customEnd)
	if !ok {
		return []Transaction{}
	}
	filtered := make([]Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if rng.Contains(tx.Timestamp) {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}
