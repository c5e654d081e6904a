package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stockapp/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL, 5*time.Second)
	c.now = func() time.Time {
		return time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	}
	return c
}

func TestFetchAll(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "getData", r.URL.Query().Get("action"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"stock": []map[string]any{
				{"id": "1", "name": "Beras", "quantity": 12.0, "unit": "Kilogram", "minStock": 10.0, "stockType": "manual"},
			},
			"transactions": []map[string]any{
				{"id": "1-000001", "itemId": "1", "itemName": "Beras", "amount": 2, "unit": "Kilogram", "type": "in", "timestamp": "2024-03-15T09:00:00Z"},
			},
		})
	})

	snap, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	require.Equal(t, "Beras", snap.Items[0].Name)
	require.Equal(t, domain.StockTypeManual, snap.Items[0].StockType)
	require.Len(t, snap.Transactions, 1)
	require.Equal(t, domain.TransactionIn, snap.Transactions[0].Type)
}

func TestFetchAllEmptyCells(t *testing.T) {
	// Cells that were never written come back as empty strings under the
	// numeric headers; a freshly added item has no movements yet.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"stock": []map[string]any{
				{"id": "1", "name": "Teh", "stockIn": "", "stockOut": "", "quantity": "", "unit": "Bungkus", "minStock": "1,250", "stockType": "manual"},
			},
			"transactions": []map[string]any{},
		})
	})

	snap, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	require.Equal(t, 0.0, snap.Items[0].Quantity)
	require.Equal(t, 1250.0, snap.Items[0].MinStock)
}

func TestFetchAllCollaboratorError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": `Sheet with name "Stock" not found.`})
	})

	_, err := c.FetchAll(context.Background())
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, `Sheet with name "Stock" not found.`, remote.Message)
}

func TestSubmitTransactionBody(t *testing.T) {
	var captured map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "text/plain;charset=utf-8", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	tx, err := c.SubmitTransaction(context.Background(), "item-1", "Beras", 3, domain.UnitKilogram, domain.TransactionOut)
	require.NoError(t, err)

	require.Equal(t, "addTransaction", captured["action"])
	payload := captured["payload"].(map[string]any)
	require.Equal(t, "item-1", payload["itemId"])
	require.Equal(t, "Beras", payload["itemName"])
	require.Equal(t, float64(3), payload["amount"])
	require.Equal(t, "out", payload["type"])

	// Time-based id with a random suffix.
	require.Regexp(t, regexp.MustCompile(`^\d{13}-\d{6}$`), tx.ID)
	require.Equal(t, tx.ID, payload["id"])
	require.False(t, tx.Timestamp.IsZero())
}

func TestCreateItemOmitsQuantity(t *testing.T) {
	var captured map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	id, err := c.CreateItem(context.Background(), "Teh Celup", domain.UnitBungkus, 5, domain.StockTypeManual)
	require.NoError(t, err)
	require.Equal(t, "1710496800000", id)

	payload := captured["payload"].(map[string]any)
	require.Equal(t, id, payload["id"])
	require.NotContains(t, payload, "quantity")
	require.NotContains(t, payload, "stockIn")
}

func TestUpdateItemRemoteNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "Item not found for editing."})
	})

	err := c.UpdateItem(context.Background(), "missing", "Beras", domain.UnitKilogram, 10, domain.StockTypeManual)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, "Item not found for editing.", remote.Message)
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Action  string `json:"action"`
			Payload struct {
				Username string `json:"username"`
				Password string `json:"password"`
			} `json:"payload"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "login", req.Action)
		if req.Payload.Password != "rahasia" {
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Username atau password salah."})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"user":    map[string]any{"username": req.Payload.Username, "role": "owner"},
		})
	})

	user, err := c.Login(context.Background(), "ibu", "rahasia")
	require.NoError(t, err)
	require.Equal(t, domain.User{Username: "ibu", Role: domain.RoleOwner}, user)

	_, err = c.Login(context.Background(), "ibu", "salah")
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, "Username atau password salah.", remote.Message)
}

func TestListUsersBareArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"username": "ibu", "role": "owner"},
			{"username": "kasir", "role": "staff"},
		})
	})

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, domain.RoleStaff, users[1].Role)
}

func TestListUsersErrorEnvelope(t *testing.T) {
	// A failed getUsers is not a bare array: the store reports it in-band
	// like every other action, and the message must survive verbatim.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": `Server error: Sheet with name "Users" not found.`,
		})
	})

	_, err := c.ListUsers(context.Background())
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, `Server error: Sheet with name "Users" not found.`, remote.Message)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	c := New(srv.URL, time.Second)

	_, err := c.FetchAll(context.Background())
	require.Error(t, err)
	var remote *RemoteError
	require.False(t, errors.As(err, &remote), "transport failures are not remote errors")
}

func TestNonOKStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	})
	err := c.UpdateItem(context.Background(), "1", "Beras", domain.UnitKilogram, 1, domain.StockTypeManual)
	require.Error(t, err)
	require.Contains(t, err.Error(), "504")
}
