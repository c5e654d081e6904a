package domain

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleOwner Role = "owner"
	RoleStaff Role = "staff"
)

func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleOwner, RoleStaff:
		return r, nil
	}
	return "", fmt.Errorf("unknown role: %q", raw)
}

type Unit string

const (
	UnitGram      Unit = "Gram"
	UnitKilogram  Unit = "Kilogram"
	UnitBungkus   Unit = "Bungkus"
	UnitPcs       Unit = "Pcs"
	UnitLiter     Unit = "Liter"
	UnitMililiter Unit = "Mililiter"
)

func ParseUnit(raw string) (Unit, error) {
	switch u := Unit(strings.TrimSpace(raw)); u {
	case UnitGram, UnitKilogram, UnitBungkus, UnitPcs, UnitLiter, UnitMililiter:
		return u, nil
	}
	return "", fmt.Errorf("unknown unit: %q", raw)
}

type StockType string

const (
	StockTypeManual  StockType = "manual"
	StockTypeDynamic StockType = "dynamic"
)

func ParseStockType(raw string) (StockType, error) {
	switch st := StockType(strings.ToLower(strings.TrimSpace(raw))); st {
	case StockTypeManual, StockTypeDynamic:
		return st, nil
	}
	return "", fmt.Errorf("unknown stock type: %q", raw)
}

type TransactionType string

const (
	TransactionIn  TransactionType = "in"
	TransactionOut TransactionType = "out"
)

// StockItem is one trackable inventory line. Quantity, StockIn and
// StockOut are computed by the backing store and are never written by
// this application; every mutation path sends only the mutable fields.
type StockItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StockIn   float64   `json:"stockIn"`
	StockOut  float64   `json:"stockOut"`
	Quantity  float64   `json:"quantity"`
	Unit      Unit      `json:"unit"`
	MinStock  float64   `json:"minStock"`
	StockType StockType `json:"stockType"`
}

// Transaction is an append-only stock movement record. ItemName and Unit
// are snapshots taken at write time and may drift from the current item.
type Transaction struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"itemId"`
	ItemName  string          `json:"itemName"`
	Amount    int             `json:"amount"`
	Unit      Unit            `json:"unit"`
	Type      TransactionType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
}

type User struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Snapshot is the locally cached, eventually-consistent copy of both
// authoritative collections, replaced wholesale on every refetch.
type Snapshot struct {
	Items        []StockItem   `json:"items"`
	Transactions []Transaction `json:"transactions"`
}

// ItemByID looks an item up in the cached snapshot.
func (s Snapshot) ItemByID(id string) (StockItem, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return StockItem{}, false
}
