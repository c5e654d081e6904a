package excel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockapp/internal/domain"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Reader {
	t.Helper()
	file := excelize.NewFile()
	defer file.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, file.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func TestParseInventoryRows(t *testing.T) {
	reader := buildWorkbook(t, [][]any{
		{"Nama Barang", "Jumlah", "Satuan", "Stok Minimum", "Jenis"},
		{"Beras", 25, "Kilogram", 10, "manual"},
		{"", 5, "Pcs", 1, "manual"}, // skipped: no name
		{"Kopi Bubuk", "1,500", "Gram", 500, ""},
	})

	rows, err := ParseInventoryRows(reader)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, ImportRow{
		Name: "Beras", Quantity: 25, Unit: domain.UnitKilogram,
		MinStock: 10, StockType: domain.StockTypeManual,
	}, rows[0])
	require.Equal(t, 1500, rows[1].Quantity)
	require.Equal(t, domain.StockTypeManual, rows[1].StockType, "stock type defaults to manual")
}

func TestParseInventoryRowsEnglishHeaders(t *testing.T) {
	reader := buildWorkbook(t, [][]any{
		{"Item Name", "Qty"},
		{"Gula", 7},
	})

	rows, err := ParseInventoryRows(reader)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, domain.UnitPcs, rows[0].Unit, "unit defaults to Pcs")
	require.Equal(t, 0.0, rows[0].MinStock)
}

func TestParseInventoryRowsErrors(t *testing.T) {
	_, err := ParseInventoryRows(buildWorkbook(t, [][]any{
		{"Satuan"}, {"Pcs"},
	}))
	require.ErrorContains(t, err, "missing required column: name")

	_, err = ParseInventoryRows(buildWorkbook(t, [][]any{
		{"Nama", "Jumlah"}, {"Beras", "banyak"},
	}))
	require.ErrorContains(t, err, "invalid quantity")

	_, err = ParseInventoryRows(buildWorkbook(t, [][]any{
		{"Nama", "Jumlah"}, {"Beras", 2.5},
	}))
	require.ErrorContains(t, err, "must be an integer")

	_, err = ParseInventoryRows(buildWorkbook(t, [][]any{
		{"Nama", "Jumlah", "Satuan"}, {"Beras", 2, "Karung"},
	}))
	require.ErrorContains(t, err, "unknown unit")

	_, err = ParseInventoryRows(buildWorkbook(t, [][]any{
		{"Nama", "Jumlah"},
	}))
	require.ErrorContains(t, err, "no valid data rows")
}
