/*
handlers.go - HTTP API handlers for the event card system

PURPOSE:
  Exposes the card engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the role facades - never to the
  ledger directly, so the API surface has exactly the permissions the
  actors have.

ENDPOINTS:
  Users:
    POST   /api/users                  Create user (organizer)
    GET    /api/users                  List users
    GET    /api/users/{id}             Get user

  Cards:
    POST   /api/cards                  Issue card (organizer)
    GET    /api/cards                  List cards
    GET    /api/cards/{id}             Get card snapshot
    GET    /api/cards/{id}/balance     Balance (bank terminal)
    GET    /api/cards/{id}/history     History (bank terminal)
    POST   /api/cards/{id}/recharge    Recharge (organizer)
    POST   /api/cards/{id}/block       Block (organizer)
    POST   /api/cards/{id}/activate    Activate (organizer)
    POST   /api/cards/{id}/expire      Expire (organizer)

  Payments:
    POST   /api/payments               Process payment (payment terminal)

  Audit:
    GET    /api/audit                  Conservation report

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/run          Run a scenario, return transcript

ERROR HANDLING:
  Domain errors map to HTTP status by kind:
    400  invalid amount, malformed input
    404  card/user/terminal not found
    409  duplicate card/user
    422  card not active, insufficient funds
    503  terminal connectivity failure

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario runners
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/festpay/card-engine/actors"
	"github.com/festpay/card-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers. All card access goes
// through the facades; the ledger reference exists only for read
// endpoints (card listing, audit) that no single actor owns.
type Handler struct {
	Ledger    *ledger.CardLedger
	Organizer *actors.Organizer
	Bank      *actors.BankTerminal
	terminals map[string]*actors.PaymentTerminal
	validate  *validator.Validate
}

// NewHandler wires a handler over an existing actor set.
func NewHandler(l *ledger.CardLedger, org *actors.Organizer, bank *actors.BankTerminal) *Handler {
	return &Handler{
		Ledger:    l,
		Organizer: org,
		Bank:      bank,
		terminals: make(map[string]*actors.PaymentTerminal),
		validate:  validator.New(),
	}
}

// RegisterTerminal makes a payment terminal reachable via /api/payments.
func (h *Handler) RegisterTerminal(t *actors.PaymentTerminal) {
	h.terminals[t.ID] = t
}

// Terminal returns a registered terminal, or nil.
func (h *Handler) Terminal(id string) *actors.PaymentTerminal {
	return h.terminals[id]
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// CreateUser registers a new user.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.Organizer.CreateUser(ledger.UserID(req.ID), req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, UserDTO{ID: string(user.ID), Name: user.Name})
}

// ListUsers returns all registered users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.Organizer.Directory().Users()
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = UserDTO{ID: string(u.ID), Name: u.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetUser returns a single user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := ledger.UserID(chi.URLParam(r, "id"))

	user, err := h.Organizer.Directory().Lookup(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserDTO{ID: string(user.ID), Name: user.Name})
}

// =============================================================================
// CARD HANDLERS
// =============================================================================

// IssueCard issues a new card to an existing user.
func (h *Handler) IssueCard(w http.ResponseWriter, r *http.Request) {
	var req IssueCardRequest
	if !h.decode(w, r, &req) {
		return
	}

	initial := ledger.Cents(0)
	if req.Initial != "" {
		var err error
		initial, err = ledger.ParseMoney(req.Initial)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid initial_balance", err)
			return
		}
	}

	card, err := h.Organizer.IssueCard(r.Context(), ledger.CardID(req.CardID), ledger.UserID(req.UserID), initial)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCardDTO(card))
}

// ListCards returns snapshots of all cards.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards := h.Ledger.Cards(r.Context())
	dtos := make([]CardDTO, len(cards))
	for i, c := range cards {
		dtos[i] = toCardDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCard returns a single card snapshot.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	id := ledger.CardID(chi.URLParam(r, "id"))

	card, err := h.Ledger.Card(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardDTO(card))
}

// GetBalance returns the balance via the bank terminal.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := ledger.CardID(chi.URLParam(r, "id"))

	info, err := h.Bank.CheckBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		CardID:    string(info.CardID),
		UserID:    string(info.UserID),
		Balance:   info.Balance.String(),
		QueriedAt: info.QueriedAt.Format(time.RFC3339),
	})
}

// GetHistory returns the transaction history via the bank terminal.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := ledger.CardID(chi.URLParam(r, "id"))

	records, err := h.Bank.CheckHistory(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, HistoryDTO{
		CardID:  string(id),
		Count:   len(records),
		Records: toRecordDTOs(records),
	})
}

// RechargeCard adds funds to a card via the organizer.
func (h *Handler) RechargeCard(w http.ResponseWriter, r *http.Request) {
	id := ledger.CardID(chi.URLParam(r, "id"))

	var req RechargeRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount, err := ledger.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	newBalance, err := h.Organizer.RechargeCard(r.Context(), id, amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RechargeDTO{
		CardID:     string(id),
		Amount:     amount.String(),
		NewBalance: newBalance.String(),
	})
}

// BlockCard blocks a card.
func (h *Handler) BlockCard(w http.ResponseWriter, r *http.Request) {
	h.statusTransition(w, r, h.Organizer.BlockCard)
}

// ActivateCard re-activates a blocked card.
func (h *Handler) ActivateCard(w http.ResponseWriter, r *http.Request) {
	h.statusTransition(w, r, h.Organizer.ActivateCard)
}

// ExpireCard expires a card; remaining balance is forfeited.
func (h *Handler) ExpireCard(w http.ResponseWriter, r *http.Request) {
	h.statusTransition(w, r, h.Organizer.ExpireCard)
}

func (h *Handler) statusTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id ledger.CardID) error) {
	id := ledger.CardID(chi.URLParam(r, "id"))

	if err := op(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	card, err := h.Ledger.Card(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardDTO(card))
}

// =============================================================================
// PAYMENT HANDLER
// =============================================================================

// ProcessPayment debits a card at a registered payment terminal.
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	terminal := h.terminals[req.TerminalID]
	if terminal == nil {
		writeError(w, http.StatusNotFound, "Unknown terminal", nil)
		return
	}

	amount, err := ledger.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	receipt, err := terminal.ProcessPayment(r.Context(), ledger.CardID(req.CardID), amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReceiptDTO(receipt))
}

// =============================================================================
// AUDIT HANDLER
// =============================================================================

// GetAudit returns the conservation report.
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	report, err := h.Ledger.Audit(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Audit failed", err)
		return
	}

	writeJSON(w, http.StatusOK, AuditDTO{
		Issued:     report.Totals.Issued.String(),
		Recharged:  report.Totals.Recharged.String(),
		Debited:    report.Totals.Debited.String(),
		BalanceSum: report.BalanceSum.String(),
		Cards:      report.Cards,
		Records:    report.Totals.Records,
		Balanced:   report.Balanced,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates a JSON request body. Writes the error
// response itself and returns false when the request is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// writeDomainError maps a domain error kind to an HTTP response while
// keeping the terminal-facing message intact.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"

	switch {
	case errors.Is(err, ledger.ErrCardNotFound):
		status, code = http.StatusNotFound, "card_not_found"
	case errors.Is(err, actors.ErrUserNotFound):
		status, code = http.StatusNotFound, "user_not_found"
	case errors.Is(err, ledger.ErrDuplicateCard):
		status, code = http.StatusConflict, "duplicate_card"
	case errors.Is(err, actors.ErrDuplicateUser):
		status, code = http.StatusConflict, "duplicate_user"
	case errors.Is(err, ledger.ErrInvalidAmount):
		status, code = http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, ledger.ErrCardNotActive):
		status, code = http.StatusUnprocessableEntity, "card_not_active"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		status, code = http.StatusUnprocessableEntity, "insufficient_funds"
	case errors.Is(err, actors.ErrConnectivity):
		status, code = http.StatusServiceUnavailable, "connectivity_failure"
	}

	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
