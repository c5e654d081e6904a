package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"stockapp/internal/coordinator"
	"stockapp/internal/dates"
	"stockapp/internal/domain"
	"stockapp/internal/gateway"
	"stockapp/internal/session"
)

// Gateway is everything the handlers need from the remote store: the
// coordinator's slice plus the account operations.
type Gateway interface {
	coordinator.Gateway
	Login(ctx context.Context, username, password string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, username, password string, role domain.Role) (domain.User, error)
}

// Handler serves the UI-facing JSON API. Each session gets its own
// coordinator, created at login and dropped at logout.
type Handler struct {
	gw       Gateway
	sessions *session.Store
	validate *validator.Validate
	logger   *slog.Logger

	mu     sync.Mutex
	coords map[string]*coordinator.Coordinator
}

func NewHandler(gw Gateway, sessions *session.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		gw:       gw,
		sessions: sessions,
		validate: validator.New(),
		logger:   logger,
		coords:   make(map[string]*coordinator.Coordinator),
	}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.gw.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		var remote *gateway.RemoteError
		if errors.As(err, &remote) {
			writeError(w, http.StatusUnauthorized, remote.Message)
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	token := h.sessions.Create(user)
	coord := coordinator.New(h.gw, h.logger)
	h.mu.Lock()
	h.coords[token] = coord
	h.mu.Unlock()

	// Initial load. A failure is not fatal to the login: it surfaces as
	// the banner on the first render, like any other fetch error.
	if err := coord.Refresh(r.Context()); err != nil {
		h.logger.Warn("initial fetch failed", "user", user.Username, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := tokenFrom(r)
	h.sessions.Delete(token)
	h.dropCoordinator(token)
	writeJSON(w, http.StatusOK, map[string]any{"loggedOut": true})
}

// dropCoordinator releases a session's coordinator and cached snapshot.
// Called at logout and whenever a token turns out to be expired, so a
// session that times out does not leave its coordinator behind.
func (h *Handler) dropCoordinator(token string) {
	h.mu.Lock()
	delete(h.coords, token)
	h.mu.Unlock()
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.gw.ListUsers(r.Context())
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "count": len(users)})
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=owner staff"`
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.gw.CreateUser(r.Context(), req.Username, req.Password, domain.Role(req.Role))
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type stockItemView struct {
	domain.StockItem
	Status domain.DisplayStatus `json:"status"`
}

func (h *Handler) ListStock(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.coordinator(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "session expired")
		return
	}
	snap := coord.Snapshot()
	items := make([]stockItemView, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, stockItemView{
			StockItem: item,
			Status:    domain.ClassifyDisplay(item.Quantity, item.MinStock),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"count":  len(items),
		"banner": coord.ConsumeBanner(),
	})
}

type warningView struct {
	domain.StockItem
	Status domain.StockStatus `json:"status"`
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.coordinator(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "session expired")
		return
	}
	filter, customStart, customEnd, err := parseFilterParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := coord.Snapshot()
	warnings := make([]warningView, 0)
	for _, item := range domain.WarningList(snap.Items) {
		warnings = append(warnings, warningView{StockItem: item, Status: item.Status()})
	}
	transactions := domain.FilterTransactions(snap.Transactions, filter, time.Now(), customStart, customEnd)

	writeJSON(w, http.StatusOK, map[string]any{
		"warnings":     warnings,
		"transactions": transactions,
		"banner":       coord.ConsumeBanner(),
	})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.coordinator(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "session expired")
		return
	}
	filter, customStart, customEnd, err := parseFilterParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := coord.Snapshot()
	transactions := domain.FilterTransactions(snap.Transactions, filter, time.Now(), customStart, customEnd)
	writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions, "count": len(transactions)})
}

// Refresh refetches both collections on demand.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.coordinator(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "session expired")
		return
	}
	if err := coord.Refresh(r.Context()); err != nil {
		writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"refreshed": true})
}

type amountRequest struct {
	Amount int `json:"amount" validate:"required,gt=0"`
}

// AddStock records an inbound movement: open the form, confirm it, let
// the coordinator reconcile.
func (h *Handler) AddStock(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r,
		func(c *coordinator.Coordinator, id string) error { return c.OpenAddStock(id) },
		func(c *coordinator.Coordinator, amount int) error {
			return c.ConfirmAddStock(r.Context(), amount)
		})
}

// RecordOutgoing records an outbound movement for a manual item.
func (h *Handler) RecordOutgoing(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r,
		func(c *coordinator.Coordinator, id string) error { return c.OpenRecordOutgoing(id) },
		func(c *coordinator.Coordinator, amount int) error {
			return c.ConfirmRecordOutgoing(r.Context(), amount)
		})
}

func (h *Handler) movement(w http.ResponseWriter, r *http.Request, open func(*coordinator.Coordinator, string) error, confirm func(*coordinator.Coordinator, int) error) {
	coord, ok := h.coordinator(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "session expired")
		return
	}
	var req amountRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := open(coord, chi.URLParam(r, "id")); err != nil {
		writeCoordinatorError(w, err)
		return
	}
	if err := confirm(coord, req.Amount); err != nil {
		// A rejected confirm leaves the form open; this API has no
		// lingering form, so close it before reporting.
		if errors.Is(err, coordinator.ErrValidation) {
			_ = coord.Cancel()
		}
		writeCoordinatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recorded": true})
}

type itemRequest struct {
	Name      string  `json:"name" validate:"required"`
	Unit      string  `json:"unit" validate:"required"`
	MinStock  float64 `json:"minStock" validate:"gte=0"`
	StockType string  `json:"stockType" validate:"required,oneof=manual dynamic"`
}

func (req itemRequest) input() coordinator.ItemInput {
	return coordinator.ItemInput{
		Name:      req.Name,
		Unit:      domain.Unit(req.Unit),
		MinStock:  req.MinStock,
		StockType: domain.StockType(req.StockType),
	}
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.coordinator(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "session expired")
		return
	}
	var req itemRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := coord.OpenAddItem(); err != nil {
		writeCoordinatorError(w, err)
		return
	}
	if err := coord.ConfirmAddItem(r.Context(), req.input()); err != nil {
		if errors.Is(err, coordinator.ErrValidation) {
			_ = coord.Cancel()
		}
		writeCoordinatorError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"created": true})
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	coord, ok := h.coordinator(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "session expired")
		return
	}
	var req itemRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := coord.OpenEditItem(chi.URLParam(r, "id")); err != nil {
		writeCoordinatorError(w, err)
		return
	}
	if err := coord.ConfirmEditItem(r.Context(), req.input()); err != nil {
		if errors.Is(err, coordinator.ErrValidation) {
			_ = coord.Cancel()
		}
		writeCoordinatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (h *Handler) coordinator(r *http.Request) (*coordinator.Coordinator, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	coord, ok := h.coords[tokenFrom(r)]
	return coord, ok
}

func (h *Handler) decodeValid(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	if err := h.validate.Struct(out); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return fmt.Errorf("invalid field %s", strings.ToLower(fields[0].Field()))
		}
		return err
	}
	return nil
}

func parseFilterParams(r *http.Request) (dates.Filter, string, string, error) {
	query := r.URL.Query()
	raw := query.Get("filter")
	if strings.TrimSpace(raw) == "" {
		raw = string(dates.FilterToday)
	}
	filter, err := dates.ParseFilter(raw)
	if err != nil {
		return "", "", "", err
	}
	return filter, query.Get("start"), query.Get("end"), nil
}

func writeCoordinatorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coordinator.ErrUnknownItem):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, coordinator.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, coordinator.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, coordinator.ErrNoForm), errors.Is(err, coordinator.ErrWrongFlow):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeRemoteError(w, err)
	}
}

// writeRemoteError surfaces collaborator messages verbatim and keeps
// transport failures behind a bad-gateway status.
func writeRemoteError(w http.ResponseWriter, err error) {
	var remote *gateway.RemoteError
	if errors.As(err, &remote) {
		writeError(w, http.StatusBadRequest, remote.Message)
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
