// Package sheetstore is a workbook-backed implementation of the
// spreadsheet collaborator contract, used for local development and
// integration tests. Rows are mapped by header name so extra columns in
// an existing workbook pass through untouched.
package sheetstore

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

const (
	SheetStock        = "Stock"
	SheetTransactions = "Transactions"
	SheetUsers        = "Users"
)

// Collaborator-contract messages, surfaced to clients verbatim.
var (
	ErrItemNotFound      = errors.New("Item not found for editing.")
	ErrDuplicateUsername = errors.New("Username sudah ada.")
)

// numericHeaders are parsed as floating point when present and
// non-empty; all other cells pass through as strings.
var numericHeaders = map[string]bool{
	"quantity": true,
	"minStock": true,
	"amount":   true,
	"stockIn":  true,
	"stockOut": true,
}

var defaultHeaders = map[string][]string{
	SheetStock:        {"id", "name", "stockIn", "stockOut", "quantity", "unit", "minStock", "stockType"},
	SheetTransactions: {"id", "itemId", "itemName", "amount", "unit", "type", "timestamp"},
	SheetUsers:        {"username", "password", "role"},
}

// Store owns one workbook file. All operations serialize on a single
// lock: the collaborator's write model is append-only row writes.
type Store struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// Open loads the workbook at path, creating it with the default sheet
// layout when it does not exist yet.
func Open(path string) (*Store, error) {
	file, err := excelize.OpenFile(path)
	if err == nil {
		return &Store{path: path, file: file}, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}

	file = excelize.NewFile()
	for _, name := range []string{SheetStock, SheetTransactions, SheetUsers} {
		if _, err := file.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
		headers := make([]any, 0, len(defaultHeaders[name]))
		for _, h := range defaultHeaders[name] {
			headers = append(headers, h)
		}
		if err := file.SetSheetRow(name, "A1", &headers); err != nil {
			return nil, fmt.Errorf("write headers for %s: %w", name, err)
		}
	}
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}
	store := &Store{path: path, file: file}
	if err := store.save(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// AllData returns both collections as header-keyed objects, transactions
// sorted descending by timestamp.
func (s *Store) AllData() (stock, transactions []map[string]any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stock, err = s.sheetObjects(SheetStock)
	if err != nil {
		return nil, nil, err
	}
	transactions, err = s.sheetObjects(SheetTransactions)
	if err != nil {
		return nil, nil, err
	}
	sort.SliceStable(transactions, func(a, b int) bool {
		return parseTimestamp(transactions[a]["timestamp"]).After(parseTimestamp(transactions[b]["timestamp"]))
	})
	return stock, transactions, nil
}

// Users returns all accounts with the password column stripped.
func (s *Store) Users() ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.sheetObjects(SheetUsers)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		delete(u, "password")
	}
	return users, nil
}

// Authenticate checks credentials. Stored passwords may be bcrypt hashes
// or, for rows imported from an older sheet, plaintext. The returned
// object never carries the password.
func (s *Store) Authenticate(username, password string) (map[string]any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.sheetObjects(SheetUsers)
	if err != nil {
		return nil, false, err
	}
	for _, u := range users {
		name, _ := u["username"].(string)
		if name != username {
			continue
		}
		stored, _ := u["password"].(string)
		if !passwordMatches(stored, password) {
			break
		}
		delete(u, "password")
		return u, true, nil
	}
	return nil, false, nil
}

// AddUser appends an account row with a hashed password.
func (s *Store) AddUser(username, password, role string) error {
	if username == "" || password == "" || role == "" {
		return errors.New("Missing required fields for new user.")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.sheetObjects(SheetUsers)
	if err != nil {
		return err
	}
	for _, u := range users {
		if name, _ := u["username"].(string); name == username {
			return ErrDuplicateUsername
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.appendRow(SheetUsers, map[string]any{
		"username": username,
		"password": string(hash),
		"role":     role,
	}); err != nil {
		return err
	}
	return s.save()
}

// EnsureUser seeds an account when the username is absent, mirroring the
// default-admin bootstrap of a fresh deployment.
func (s *Store) EnsureUser(username, password, role string) error {
	err := s.AddUser(username, password, role)
	if errors.Is(err, ErrDuplicateUsername) {
		return nil
	}
	return err
}

// AddItem appends one stock row. The quantity column is left to the
// store's own bookkeeping and is not taken from the payload.
func (s *Store) AddItem(item map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(item, "quantity")
	if err := s.appendRow(SheetStock, item); err != nil {
		return err
	}
	return s.save()
}

// EditItem rewrites the mutable columns of the row matching id.
func (s *Store) EditItem(id string, name, unit string, minStock float64, stockType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rowIdx, headers, err := s.findRowByID(SheetStock, id)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"name":      name,
		"unit":      unit,
		"minStock":  minStock,
		"stockType": stockType,
	}
	for col, header := range headers {
		value, ok := updates[header]
		if !ok {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
		if err != nil {
			return fmt.Errorf("cell coordinates: %w", err)
		}
		if err := s.file.SetCellValue(SheetStock, cell, value); err != nil {
			return fmt.Errorf("update %s: %w", header, err)
		}
	}
	return s.save()
}

// AddTransaction appends one movement row, then folds the amount into
// the item's stockIn/stockOut counters. Manual items get their quantity
// recomputed as stockIn-stockOut, standing in for the sheet formula of
// the production deployment; dynamic quantities are never touched here.
func (s *Store) AddTransaction(tx map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appendRow(SheetTransactions, tx); err != nil {
		return err
	}

	itemID, _ := tx["itemId"].(string)
	txType, _ := tx["type"].(string)
	amount := toFloat(tx["amount"])
	if itemID != "" && amount > 0 {
		if err := s.applyMovement(itemID, txType, amount); err != nil {
			return err
		}
	}
	return s.save()
}

func (s *Store) applyMovement(itemID, txType string, amount float64) error {
	rowIdx, headers, err := s.findRowByID(SheetStock, itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			// Movement rows for deleted or foreign ids still append;
			// there is just no counter to update.
			return nil
		}
		return err
	}

	row, err := s.readRow(SheetStock, rowIdx)
	if err != nil {
		return err
	}
	obj := rowObject(headers, row)

	stockIn := toFloat(obj["stockIn"])
	stockOut := toFloat(obj["stockOut"])
	if txType == "out" {
		stockOut += amount
	} else {
		stockIn += amount
	}

	updates := map[string]any{"stockIn": stockIn, "stockOut": stockOut}
	if st, _ := obj["stockType"].(string); st != "dynamic" {
		updates["quantity"] = stockIn - stockOut
	}
	for col, header := range headers {
		value, ok := updates[header]
		if !ok {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
		if err != nil {
			return fmt.Errorf("cell coordinates: %w", err)
		}
		if err := s.file.SetCellValue(SheetStock, cell, value); err != nil {
			return fmt.Errorf("update %s: %w", header, err)
		}
	}
	return nil
}

func (s *Store) sheetObjects(sheet string) ([]map[string]any, error) {
	rows, err := s.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) <= 1 {
		return []map[string]any{}, nil
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	objects := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		objects = append(objects, rowObject(headers, row))
	}
	return objects, nil
}

// rowObject mirrors the collaborator's row mapping: numeric headers are
// parsed as floats when the cell is non-empty and numeric, everything
// else passes through unchanged.
func rowObject(headers []string, row []string) map[string]any {
	obj := make(map[string]any, len(headers))
	for i, header := range headers {
		if header == "" {
			continue
		}
		value := readCell(row, i)
		if numericHeaders[header] && value != "" {
			if parsed, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64); err == nil {
				obj[header] = parsed
				continue
			}
		}
		obj[header] = value
	}
	return obj
}

func (s *Store) appendRow(sheet string, obj map[string]any) error {
	rows, err := s.file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("sheet %s has no header row", sheet)
	}
	headers := rows[0]
	values := make([]any, len(headers))
	for i, header := range headers {
		if v, ok := obj[strings.TrimSpace(header)]; ok {
			values[i] = v
		} else {
			// A nil entry makes excelize emit a cell without a column
			// reference, which breaks SetCellValue addressing on this
			// row after the workbook is saved once.
			values[i] = ""
		}
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("cell coordinates: %w", err)
	}
	if err := s.file.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("append to %s: %w", sheet, err)
	}
	return nil
}

// findRowByID returns the 1-based row index and header row of the row
// whose id column matches id.
func (s *Store) findRowByID(sheet, id string) (int, []string, error) {
	rows, err := s.file.GetRows(sheet)
	if err != nil {
		return 0, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return 0, nil, ErrItemNotFound
	}
	headers := make([]string, len(rows[0]))
	idCol := -1
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
		if headers[i] == "id" {
			idCol = i
		}
	}
	if idCol == -1 {
		return 0, nil, ErrItemNotFound
	}
	for i := 1; i < len(rows); i++ {
		if readCell(rows[i], idCol) == id {
			return i + 1, headers, nil
		}
	}
	return 0, nil, ErrItemNotFound
}

func (s *Store) readRow(sheet string, rowIdx int) ([]string, error) {
	rows, err := s.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if rowIdx < 1 || rowIdx > len(rows) {
		return nil, fmt.Errorf("row %d out of range in %s", rowIdx, sheet)
	}
	return rows[rowIdx-1], nil
}

func (s *Store) save() error {
	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func passwordMatches(stored, supplied string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	}
	return stored != "" && stored == supplied
}

func parseTimestamp(v any) time.Time {
	raw, _ := v.(string)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		parsed, _ := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64)
		return parsed
	}
	return 0
}

func readCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
