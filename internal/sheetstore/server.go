package sheetstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes the store over the collaborator's wire contract:
// GET ?action=getData for the combined read and POST {action, payload}
// for everything else. Failures are reported in-band as {error: message}
// with HTTP 200, matching the Apps Script deployment.
type Server struct {
	store  *Store
	logger *slog.Logger
}

func NewServer(store *Store, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(cors)
	r.Get("/exec", s.handleGet)
	r.Post("/exec", s.handlePost)
	return r
}

// cors answers preflights the way the collaborator does: wildcard
// origin, GET/POST/OPTIONS, Content-Type only.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("action") != "getData" {
		respond(w, map[string]any{"error": "Invalid GET action"})
		return
	}
	stock, transactions, err := s.store.AllData()
	if err != nil {
		s.serverError(w, err)
		return
	}
	respond(w, map[string]any{"stock": stock, "transactions": transactions})
}

type postRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	// Clients send the body as text/plain, so no content-type check.
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, map[string]any{"error": "invalid request body"})
		return
	}
	s.logger.Info("post action", "action", req.Action)

	switch req.Action {
	case "login":
		s.handleLogin(w, req.Payload)
	case "getUsers":
		s.handleGetUsers(w)
	case "addUser":
		s.handleAddUser(w, req.Payload)
	case "addNewItem":
		s.handleAddNewItem(w, req.Payload)
	case "editItem":
		s.handleEditItem(w, req.Payload)
	case "addTransaction":
		s.handleAddTransaction(w, req.Payload)
	default:
		respond(w, map[string]any{"error": "Invalid POST action"})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, payload json.RawMessage) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(payload, &creds); err != nil {
		respond(w, map[string]any{"error": "invalid login payload"})
		return
	}
	user, ok, err := s.store.Authenticate(creds.Username, creds.Password)
	if err != nil {
		s.serverError(w, err)
		return
	}
	if !ok {
		respond(w, map[string]any{"success": false, "message": "Username atau password salah."})
		return
	}
	respond(w, map[string]any{"success": true, "user": user})
}

func (s *Server) handleGetUsers(w http.ResponseWriter) {
	users, err := s.store.Users()
	if err != nil {
		s.serverError(w, err)
		return
	}
	respond(w, users)
}

func (s *Server) handleAddUser(w http.ResponseWriter, payload json.RawMessage) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		respond(w, map[string]any{"error": "invalid user payload"})
		return
	}
	if err := s.store.AddUser(req.Username, req.Password, req.Role); err != nil {
		s.serverError(w, err)
		return
	}
	respond(w, map[string]any{
		"success": true,
		"user":    map[string]any{"username": req.Username, "role": req.Role},
	})
}

func (s *Server) handleAddNewItem(w http.ResponseWriter, payload json.RawMessage) {
	var item map[string]any
	if err := json.Unmarshal(payload, &item); err != nil {
		respond(w, map[string]any{"error": "invalid item payload"})
		return
	}
	if err := s.store.AddItem(item); err != nil {
		s.serverError(w, err)
		return
	}
	respond(w, map[string]any{"success": true, "item": item})
}

func (s *Server) handleEditItem(w http.ResponseWriter, payload json.RawMessage) {
	var item struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		Unit      string  `json:"unit"`
		MinStock  float64 `json:"minStock"`
		StockType string  `json:"stockType"`
	}
	if err := json.Unmarshal(payload, &item); err != nil {
		respond(w, map[string]any{"error": "invalid item payload"})
		return
	}
	if err := s.store.EditItem(item.ID, item.Name, item.Unit, item.MinStock, item.StockType); err != nil {
		s.serverError(w, err)
		return
	}
	respond(w, map[string]any{"success": true, "item": item})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, payload json.RawMessage) {
	var tx map[string]any
	if err := json.Unmarshal(payload, &tx); err != nil {
		respond(w, map[string]any{"error": "invalid transaction payload"})
		return
	}
	if err := s.store.AddTransaction(tx); err != nil {
		s.serverError(w, err)
		return
	}
	respond(w, map[string]any{"success": true, "transaction": tx})
}

// serverError reports a failure in-band. Contract messages (duplicate
// username, missing item) keep their exact wording; anything else gets
// the generic server-error prefix.
func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	switch {
	case errorsIsContract(err):
		respond(w, map[string]any{"error": err.Error()})
	default:
		respond(w, map[string]any{"error": fmt.Sprintf("Server error: %v", err)})
	}
}

func errorsIsContract(err error) bool {
	for _, contract := range []error{ErrItemNotFound, ErrDuplicateUsername} {
		if errors.Is(err, contract) {
			return true
		}
	}
	if err != nil && err.Error() == "Missing required fields for new user." {
		return true
	}
	return false
}

func respond(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}
