package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cleared-dev/ledgerd/internal/accounts"
	"github.com/cleared-dev/ledgerd/internal/id"
	"github.com/cleared-dev/ledgerd/internal/ledger"
	"github.com/cleared-dev/ledgerd/internal/model"
	"github.com/cleared-dev/ledgerd/internal/money"
)

const maxBodyBytes = 1 << 20

type handlers struct {
	logger       *slog.Logger
	engine       *ledger.Engine
	accounts     *accounts.Service
	numberLength int
}

func (h *handlers) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.InitialBalance == nil {
		h.validationError(w, r, "initialBalance is required")
		return
	}
	if req.InitialBalance.IsNegative() {
		h.validationError(w, r, "initialBalance must be greater than or equal to 0")
		return
	}

	acct, err := h.accounts.Create(r.Context(), *req.InitialBalance)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newAccountResponse(acct))
}

func (h *handlers) listAccounts(w http.ResponseWriter, r *http.Request) {
	accts, err := h.accounts.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]accountResponse, 0, len(accts))
	for _, a := range accts {
		out = append(out, newAccountResponse(a))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *handlers) getAccount(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("accountNumber")
	if msg := h.checkNumber("accountNumber", number); msg != "" {
		h.validationError(w, r, msg)
		return
	}
	acct, err := h.accounts.Get(r.Context(), number)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newAccountResponse(acct))
}

func (h *handlers) deposit(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, h.engine.Deposit)
}

func (h *handlers) withdraw(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, h.engine.Withdraw)
}

func (h *handlers) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !h.decode(w, r, &req) {
		return
	}
	var problems []string
	if msg := h.checkNumber("senderAccountNumber", req.SenderAccountNumber); msg != "" {
		problems = append(problems, msg)
	}
	if msg := h.checkNumber("receiverAccountNumber", req.ReceiverAccountNumber); msg != "" {
		problems = append(problems, msg)
	}
	if msg := checkAmount(req.Amount); msg != "" {
		problems = append(problems, msg)
	}
	if len(problems) > 0 {
		h.validationError(w, r, strings.Join(problems, "; "))
		return
	}

	rec, err := h.engine.Transfer(r.Context(), req.SenderAccountNumber, req.ReceiverAccountNumber, *req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newTransactionResponse(rec))
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("accountNumber")
	if msg := h.checkNumber("accountNumber", number); msg != "" {
		h.validationError(w, r, msg)
		return
	}
	recs, err := h.engine.History(r.Context(), number)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(recs))
	for _, t := range recs {
		out = append(out, newTransactionResponse(t))
	}
	respondJSON(w, http.StatusOK, out)
}

// single handles the one-account operations that share a request shape.
func (h *handlers) single(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, number string, amount money.Amount) (model.Transaction, error)) {
	var req transactionRequest
	if !h.decode(w, r, &req) {
		return
	}
	var problems []string
	if msg := h.checkNumber("accountNumber", req.AccountNumber); msg != "" {
		problems = append(problems, msg)
	}
	if msg := checkAmount(req.Amount); msg != "" {
		problems = append(problems, msg)
	}
	if len(problems) > 0 {
		h.validationError(w, r, strings.Join(problems, "; "))
		return
	}

	rec, err := op(r.Context(), req.AccountNumber, *req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newTransactionResponse(rec))
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		h.validationError(w, r, fmt.Sprintf("malformed request body: %v", err))
		return false
	}
	return true
}

func (h *handlers) checkNumber(field, number string) string {
	if !id.ValidAccountNumber(number, h.numberLength) {
		return fmt.Sprintf("%s must be exactly %d digits", field, h.numberLength)
	}
	return ""
}

func checkAmount(amount *money.Amount) string {
	if amount == nil {
		return "amount is required"
	}
	if !amount.IsPositive() {
		return "amount must be greater than 0"
	}
	return ""
}

func (h *handlers) validationError(w http.ResponseWriter, r *http.Request, msg string) {
	h.logger.Warn("request rejected", "path", r.URL.Path, "reason", msg)
	writeError(w, r, http.StatusBadRequest, "validation error", msg)
}

// fail writes the error response for an operation error. The full error is
// only logged for server-side failures.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, errText, public := errorStatus(err)
	if public {
		writeError(w, r, status, errText, err.Error())
		return
	}
	if errors.Is(err, model.ErrLockTimeout) {
		h.logger.Warn("request failed", "path", r.URL.Path, "error", err)
	} else {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, r, status, errText, "request could not be completed, retry later")
}
