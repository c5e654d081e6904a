// Package gateway is the typed client for the spreadsheet-backed store.
// Every logical operation is a single round trip: no batching, no retries,
// no idempotency keys. Callers decide what to do with a failure.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stockapp/internal/domain"
)

// RemoteError is a logical error reported by the collaborator in a
// well-formed response. The message is surfaced to the user verbatim.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Client talks to the store over its two request shapes: a GET for the
// combined read and a POST carrying {action, payload} for everything else.
type Client struct {
	baseURL string
	httpc   *http.Client
	now     func() time.Time
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// cell is a numeric spreadsheet value on the wire. The store parses
// numeric columns as numbers when the cell is filled, but a cell that was
// never written arrives as "", so both shapes must decode.
type cell float64

func (c *cell) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
		if s == "" {
			*c = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("numeric cell %q: %w", s, err)
		}
		*c = cell(parsed)
		return nil
	}
	var parsed float64
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}
	*c = cell(parsed)
	return nil
}

type stockRow struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	StockIn   cell             `json:"stockIn"`
	StockOut  cell             `json:"stockOut"`
	Quantity  cell             `json:"quantity"`
	Unit      domain.Unit      `json:"unit"`
	MinStock  cell             `json:"minStock"`
	StockType domain.StockType `json:"stockType"`
}

func (r stockRow) item() domain.StockItem {
	return domain.StockItem{
		ID:        r.ID,
		Name:      r.Name,
		StockIn:   float64(r.StockIn),
		StockOut:  float64(r.StockOut),
		Quantity:  float64(r.Quantity),
		Unit:      r.Unit,
		MinStock:  float64(r.MinStock),
		StockType: r.StockType,
	}
}

type transactionRow struct {
	ID        string                 `json:"id"`
	ItemID    string                 `json:"itemId"`
	ItemName  string                 `json:"itemName"`
	Amount    cell                   `json:"amount"`
	Unit      domain.Unit            `json:"unit"`
	Type      domain.TransactionType `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
}

func (r transactionRow) transaction() domain.Transaction {
	return domain.Transaction{
		ID:        r.ID,
		ItemID:    r.ItemID,
		ItemName:  r.ItemName,
		Amount:    int(r.Amount),
		Unit:      r.Unit,
		Type:      r.Type,
		Timestamp: r.Timestamp,
	}
}

// FetchAll reads both collections in one round trip. The store serves
// transactions sorted descending by timestamp; downstream filtering does
// not depend on that for correctness.
func (c *Client) FetchAll(ctx context.Context) (domain.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?action=getData", nil)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Snapshot{}, fmt.Errorf("fetch data: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Stock        []stockRow       `json:"stock"`
		Transactions []transactionRow `json:"transactions"`
		Error        string           `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode data: %w", err)
	}
	if body.Error != "" {
		return domain.Snapshot{}, &RemoteError{Message: body.Error}
	}
	snap := domain.Snapshot{
		Items:        make([]domain.StockItem, 0, len(body.Stock)),
		Transactions: make([]domain.Transaction, 0, len(body.Transactions)),
	}
	for _, row := range body.Stock {
		snap.Items = append(snap.Items, row.item())
	}
	for _, row := range body.Transactions {
		snap.Transactions = append(snap.Transactions, row.transaction())
	}
	return snap, nil
}

// SubmitTransaction appends one movement record with a client-generated
// time-based id. The store does not return an updated quantity; callers
// must refetch.
func (c *Client) SubmitTransaction(ctx context.Context, itemID, itemName string, amount int, unit domain.Unit, txType domain.TransactionType) (domain.Transaction, error) {
	tx := domain.Transaction{
		ID:        c.newTransactionID(),
		ItemID:    itemID,
		ItemName:  itemName,
		Amount:    amount,
		Unit:      unit,
		Type:      txType,
		Timestamp: c.now().UTC(),
	}
	if err := c.post(ctx, "addTransaction", tx, nil); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

type itemPayload struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Unit      domain.Unit      `json:"unit"`
	MinStock  float64          `json:"minStock"`
	StockType domain.StockType `json:"stockType"`
}

// CreateItem appends a new item with a client-generated id and returns
// that id. Quantity is omitted: the store initializes and maintains it.
func (c *Client) CreateItem(ctx context.Context, name string, unit domain.Unit, minStock float64, stockType domain.StockType) (string, error) {
	payload := itemPayload{
		ID:        strconv.FormatInt(c.now().UnixMilli(), 10),
		Name:      name,
		Unit:      unit,
		MinStock:  minStock,
		StockType: stockType,
	}
	if err := c.post(ctx, "addNewItem", payload, nil); err != nil {
		return "", err
	}
	return payload.ID, nil
}

// UpdateItem rewrites the mutable fields of an existing item, matched by
// id. Quantity is never part of the payload.
func (c *Client) UpdateItem(ctx context.Context, id, name string, unit domain.Unit, minStock float64, stockType domain.StockType) error {
	payload := itemPayload{ID: id, Name: name, Unit: unit, MinStock: minStock, StockType: stockType}
	return c.post(ctx, "editItem", payload, nil)
}

// Login checks credentials against the store. Passwords travel one way;
// the response never echoes them.
func (c *Client) Login(ctx context.Context, username, password string) (domain.User, error) {
	payload := map[string]string{"username": username, "password": password}
	var out struct {
		User domain.User `json:"user"`
	}
	if err := c.post(ctx, "login", payload, &out); err != nil {
		return domain.User{}, err
	}
	return out.User, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	// getUsers answers with a bare array on success, but a failure still
	// arrives as the usual {error} envelope.
	raw, err := c.postRaw(ctx, "getUsers", nil)
	if err != nil {
		return nil, err
	}
	if body := bytes.TrimSpace(raw); len(body) > 0 && body[0] == '{' {
		var envelope struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("decode users: %w", err)
		}
		msg := envelope.Error
		if msg == "" {
			msg = envelope.Message
		}
		if msg == "" {
			msg = "getUsers failed"
		}
		return nil, &RemoteError{Message: msg}
	}
	var users []domain.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (c *Client) CreateUser(ctx context.Context, username, password string, role domain.Role) (domain.User, error) {
	payload := map[string]string{"username": username, "password": password, "role": string(role)}
	var out struct {
		User domain.User `json:"user"`
	}
	if err := c.post(ctx, "addUser", payload, &out); err != nil {
		return domain.User{}, err
	}
	return out.User, nil
}

// post sends one {action, payload} request and decodes the response
// envelope. A transport failure, a non-200 status, an {error} field and a
// success:false message all come back as a single error value.
func (c *Client) post(ctx context.Context, action string, payload, out any) error {
	raw, err := c.postRaw(ctx, action, payload)
	if err != nil {
		return err
	}
	var envelope struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%s: decode response: %w", action, err)
	}
	if envelope.Error != "" {
		return &RemoteError{Message: envelope.Error}
	}
	if envelope.Success != nil && !*envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = fmt.Sprintf("%s failed", action)
		}
		return &RemoteError{Message: msg}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", action, err)
		}
	}
	return nil
}

func (c *Client) postRaw(ctx context.Context, action string, payload any) ([]byte, error) {
	body, err := json.Marshal(map[string]any{"action": action, "payload": payload})
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", action, err)
	}
	// The Apps Script deployment only accepts simple requests, so the
	// body goes out as text/plain instead of application/json.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", action, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d: %s", action, resp.StatusCode, bytes.TrimSpace(raw))
	}
	return raw, nil
}

// newTransactionID builds a time-based id with a random suffix so two
// movements written in the same millisecond cannot collide.
func (c *Client) newTransactionID() string {
	return fmt.Sprintf("%d-%06d", c.now().UnixMilli(), rand.Intn(1_000_000))
}
