// seedsheet bootstraps a workbook for sheetsrv: sheet layout, an owner
// account, and optionally a sample inventory or an import from a legacy
// stock-card workbook.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"stockapp/internal/excel"
	"stockapp/internal/sheetstore"
)

type options struct {
	workbookPath  string
	ownerUser     string
	ownerPassword string
	sampleData    bool
	importPath    string
}

func main() {
	var opts options
	flag.StringVar(&opts.workbookPath, "workbook", "stock.xlsx", "path of the workbook to create or update")
	flag.StringVar(&opts.ownerUser, "owner", "owner", "username of the seeded owner account")
	flag.StringVar(&opts.ownerPassword, "password", "", "password of the seeded owner account (required)")
	flag.BoolVar(&opts.sampleData, "sample", false, "also seed a sample inventory")
	flag.StringVar(&opts.importPath, "import", "", "legacy workbook to import items and opening balances from")
	flag.Parse()

	if opts.ownerPassword == "" {
		log.Fatal("-password is required")
	}

	store, err := sheetstore.Open(opts.workbookPath)
	if err != nil {
		log.Fatalf("open workbook: %v", err)
	}
	defer store.Close()

	if err := store.EnsureUser(opts.ownerUser, opts.ownerPassword, "owner"); err != nil {
		log.Fatalf("seed owner: %v", err)
	}

	if opts.sampleData {
		if err := seedSampleData(store); err != nil {
			log.Fatalf("seed sample data: %v", err)
		}
	}

	if opts.importPath != "" {
		count, err := importLegacy(store, opts.importPath)
		if err != nil {
			log.Fatalf("import %s: %v", opts.importPath, err)
		}
		fmt.Printf("imported %d items from %s\n", count, opts.importPath)
	}

	fmt.Printf("workbook %s ready\n", opts.workbookPath)
}

// importLegacy copies items out of an old stock-card workbook, writing
// each opening balance as an initial inbound movement so the counters
// start consistent.
func importLegacy(store *sheetstore.Store, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	rows, err := excel.ParseInventoryRows(file)
	if err != nil {
		return 0, err
	}

	base := time.Now().UnixMilli()
	for i, row := range rows {
		id := strconv.FormatInt(base+int64(i), 10)
		if err := store.AddItem(map[string]any{
			"id":        id,
			"name":      row.Name,
			"unit":      string(row.Unit),
			"minStock":  row.MinStock,
			"stockType": string(row.StockType),
		}); err != nil {
			return 0, fmt.Errorf("add %s: %w", row.Name, err)
		}
		if row.Quantity <= 0 {
			continue
		}
		if err := store.AddTransaction(map[string]any{
			"id":        fmt.Sprintf("%d-%06d", base+int64(i), i),
			"itemId":    id,
			"itemName":  row.Name,
			"amount":    row.Quantity,
			"unit":      string(row.Unit),
			"type":      "in",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			return 0, fmt.Errorf("opening balance for %s: %w", row.Name, err)
		}
	}
	return len(rows), nil
}

func seedSampleData(store *sheetstore.Store) error {
	samples := []struct {
		name      string
		unit      string
		minStock  float64
		stockType string
		inbound   float64
	}{
		{"Beras", "Kilogram", 10, "manual", 25},
		{"Minyak Goreng", "Liter", 5, "manual", 4},
		{"Kopi Bubuk", "Gram", 500, "manual", 1200},
		{"Gula Pasir", "Kilogram", 8, "dynamic", 0},
	}

	base := time.Now().UnixMilli()
	for i, sample := range samples {
		id := strconv.FormatInt(base+int64(i), 10)
		if err := store.AddItem(map[string]any{
			"id":        id,
			"name":      sample.name,
			"unit":      sample.unit,
			"minStock":  sample.minStock,
			"stockType": sample.stockType,
		}); err != nil {
			return fmt.Errorf("add %s: %w", sample.name, err)
		}
		if sample.inbound <= 0 {
			continue
		}
		if err := store.AddTransaction(map[string]any{
			"id":        fmt.Sprintf("%d-%d", base+int64(i), i),
			"itemId":    id,
			"itemName":  sample.name,
			"amount":    sample.inbound,
			"unit":      sample.unit,
			"type":      "in",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			return fmt.Errorf("seed movement for %s: %w", sample.name, err)
		}
	}
	return nil
}
