package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/ledgerd/internal/model"
	"github.com/cleared-dev/ledgerd/internal/money"
)

type createAccountRequest struct {
	InitialBalance *money.Amount `json:"initialBalance"`
}

type transactionRequest struct {
	AccountNumber string        `json:"accountNumber"`
	Amount        *money.Amount `json:"amount"`
}

type transferRequest struct {
	SenderAccountNumber   string        `json:"senderAccountNumber"`
	ReceiverAccountNumber string        `json:"receiverAccountNumber"`
	Amount                *money.Amount `json:"amount"`
}

type accountResponse struct {
	ID            uuid.UUID    `json:"id"`
	Balance       money.Amount `json:"balance"`
	AccountNumber string       `json:"accountNumber"`
}

func newAccountResponse(a model.Account) accountResponse {
	return accountResponse{ID: a.ID, Balance: a.Balance, AccountNumber: a.Number}
}

type transactionResponse struct {
	Timestamp            int64        `json:"timestamp"` // epoch milliseconds
	Amount               money.Amount `json:"amount"`
	BankAccountNumber    string       `json:"bankAccountNumber"`
	Flow                 model.Flow   `json:"flow"`
	Kind                 model.Kind   `json:"kind"`
	VisavisAccountNumber string       `json:"visavisAccountNumber,omitempty"`
}

func newTransactionResponse(t model.Transaction) transactionResponse {
	return transactionResponse{
		Timestamp:            t.Timestamp.UnixMilli(),
		Amount:               t.Amount,
		BankAccountNumber:    t.AccountNumber,
		Flow:                 t.Flow,
		Kind:                 t.Kind,
		VisavisAccountNumber: t.CounterpartyNumber,
	}
}

type apiError struct {
	Timestamp int64  `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Path      string `json:"path"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, errText, message string) {
	respondJSON(w, status, apiError{
		Timestamp: time.Now().UnixMilli(),
		Status:    status,
		Error:     errText,
		Message:   message,
		Path:      r.URL.Path,
	})
}

// errorStatus maps a domain error to its HTTP status and public error text.
// Server-side failures never expose the underlying message.
func errorStatus(err error) (status int, errText string, public bool) {
	switch {
	case errors.Is(err, model.ErrInvalidAmount), errors.Is(err, model.ErrSameAccount):
		return http.StatusBadRequest, "bad request", true
	case errors.Is(err, model.ErrAccountNotFound):
		return http.StatusNotFound, "entity not found", true
	case errors.Is(err, model.ErrInsufficientFunds), errors.Is(err, model.ErrDuplicateAccount):
		return http.StatusConflict, "conflict", true
	case errors.Is(err, model.ErrLockTimeout):
		return http.StatusServiceUnavailable, "account busy", false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request canceled", false
	case errors.Is(err, model.ErrPersistence):
		return http.StatusInternalServerError, "db request failed", false
	default:
		return http.StatusInternalServerError, "internal server error", false
	}
}
