// Package excel parses legacy stock-card workbooks so an existing
// inventory can be carried into a fresh deployment. Header matching is
// forgiving: exports from older sheets use a mix of English and
// Indonesian column names.
package excel

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"stockapp/internal/domain"
)

var headerAliases = map[string]string{
	"name":         "name",
	"item":         "name",
	"item name":    "name",
	"nama":         "name",
	"nama barang":  "name",
	"barang":       "name",
	"quantity":     "quantity",
	"qty":          "quantity",
	"stok":         "quantity",
	"jumlah":       "quantity",
	"unit":         "unit",
	"satuan":       "unit",
	"min stock":    "minStock",
	"minstock":     "minStock",
	"stok minimum": "minStock",
	"stok minimal": "minStock",
	"stock type":   "stockType",
	"stocktype":    "stockType",
	"jenis":        "stockType",
	"jenis stok":   "stockType",
}

// ImportRow is one item from a legacy workbook: the item definition plus
// its opening balance.
type ImportRow struct {
	Name      string
	Quantity  int
	Unit      domain.Unit
	MinStock  float64
	StockType domain.StockType
}

// ParseInventoryRows reads the first sheet of a workbook into import
// rows. Name and quantity columns are required; unit, minimum stock and
// stock type fall back to Pcs, 0 and manual. Rows with an empty name are
// skipped.
func ParseInventoryRows(reader io.Reader) ([]ImportRow, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook is empty")
	}

	colMap := mapColumns(rows[0])
	for _, required := range []string{"name", "quantity"} {
		if _, ok := colMap[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	result := make([]ImportRow, 0, len(rows)-1)
	for index := 1; index < len(rows); index++ {
		cells := rows[index]
		name := strings.TrimSpace(readCell(cells, colMap["name"]))
		if name == "" {
			continue
		}

		quantity, err := parseInt(readCell(cells, colMap["quantity"]))
		if err != nil {
			return nil, fmt.Errorf("row %d invalid quantity: %w", index+1, err)
		}
		if quantity < 0 {
			return nil, fmt.Errorf("row %d invalid quantity: cannot be negative", index+1)
		}

		unit := domain.UnitPcs
		if idx, ok := colMap["unit"]; ok {
			if raw := strings.TrimSpace(readCell(cells, idx)); raw != "" {
				parsed, err := domain.ParseUnit(raw)
				if err != nil {
					return nil, fmt.Errorf("row %d: %w", index+1, err)
				}
				unit = parsed
			}
		}

		minStock := 0.0
		if idx, ok := colMap["minStock"]; ok {
			if raw := strings.TrimSpace(readCell(cells, idx)); raw != "" {
				parsed, err := parseFloat(raw)
				if err != nil {
					return nil, fmt.Errorf("row %d invalid minimum stock: %w", index+1, err)
				}
				minStock = parsed
			}
		}

		stockType := domain.StockTypeManual
		if idx, ok := colMap["stockType"]; ok {
			if raw := strings.TrimSpace(readCell(cells, idx)); raw != "" {
				parsed, err := domain.ParseStockType(raw)
				if err != nil {
					return nil, fmt.Errorf("row %d: %w", index+1, err)
				}
				stockType = parsed
			}
		}

		result = append(result, ImportRow{
			Name:      name,
			Quantity:  quantity,
			Unit:      unit,
			MinStock:  minStock,
			StockType: stockType,
		})
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("workbook has no valid data rows")
	}
	return result, nil
}

func mapColumns(header []string) map[string]int {
	mapped := make(map[string]int)
	for idx, col := range header {
		normalized := normalizeHeader(col)
		if normalized == "" {
			continue
		}
		canonical, ok := headerAliases[normalized]
		if !ok {
			continue
		}
		if _, exists := mapped[canonical]; !exists {
			mapped[canonical] = idx
		}
	}
	return mapped
}

func normalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\uFEFF")
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", " ")
	value = strings.Join(strings.Fields(value), " ")
	return value
}

func readCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseInt(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("value is empty")
	}
	asFloat, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.Mod(asFloat, 1) != 0 {
		return 0, fmt.Errorf("must be an integer")
	}
	return int(asFloat), nil
}

func parseFloat(raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("value is empty")
	}
	parsed, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	return parsed, nil
}
