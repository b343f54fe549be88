package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradejournal/src/auth"
	"tradejournal/src/cache"
	"tradejournal/src/events"
	"tradejournal/src/listview"
	"tradejournal/src/model"
	"tradejournal/src/repository"
)

type transactionStore interface {
	Create(ctx context.Context, txn *model.AccountTransaction) error
	FindByID(ctx context.Context, userID, id uint) (*model.AccountTransaction, error)
	FindAllByUser(ctx context.Context, userID uint) ([]model.AccountTransaction, error)
	Update(ctx context.Context, txn *model.AccountTransaction) error
	Delete(ctx context.Context, userID, id uint) error
}

var transactionSortFields = map[string]listview.Field[model.AccountTransaction]{
	"id": {Number: func(t model.AccountTransaction) float64 { return float64(t.ID) }},
	"amount": {Number: func(t model.AccountTransaction) float64 {
		return t.Amount.InexactFloat64()
	}},
	"transaction_type": {String: func(t model.AccountTransaction) string {
		return t.TransactionType
	}},
	"executed_at": {Time: func(t model.AccountTransaction) time.Time { return t.ExecutedAt }},
}

// ListTransactionsHandler shapes the user's deposits and withdrawals through
// the in-memory pipeline, same as the accounts list.
func ListTransactionsHandler(repo transactionStore, prefs preferencesReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		settings, err := prefs.GetOrCreate(r.Context(), user.ID)
		if err != nil {
			logger.WithError(err).Error("failed to load preferences for transaction list")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		page, pageSize, ok := pagination(r, settings.ItemsPerPage)
		if !ok {
			http.Error(w, "invalid page or pageSize", http.StatusBadRequest)
			return
		}

		query := r.URL.Query()

		if t := query.Get("type"); t != "" && !model.ValidTransactionType(t) {
			http.Error(w, "invalid type", http.StatusBadRequest)
			return
		}

		accountFilter := ""
		if accountParam := query.Get("accountId"); accountParam != "" {
			if _, err := strconv.ParseUint(accountParam, 10, 64); err != nil {
				http.Error(w, "invalid accountId", http.StatusBadRequest)
				return
			}
			accountFilter = accountParam
		}

		sortField := query.Get("sortField")
		if sortField == "" {
			sortField = "executed_at"
		}
		field, known := transactionSortFields[sortField]
		if !known {
			http.Error(w, "invalid sortField", http.StatusBadRequest)
			return
		}

		direction := listview.DefaultDirection(sortField)
		switch query.Get("sortDir") {
		case "":
		case string(listview.Asc):
			direction = listview.Asc
		case string(listview.Desc):
			direction = listview.Desc
		default:
			http.Error(w, "invalid sortDir", http.StatusBadRequest)
			return
		}

		transactions, err := repo.FindAllByUser(r.Context(), user.ID)
		if err != nil {
			logger.WithError(err).Error("failed to list transactions")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		filtered := listview.Filter(transactions,
			listview.Equals(query.Get("type"), func(t model.AccountTransaction) string {
				return t.TransactionType
			}),
			listview.Equals(accountFilter, func(t model.AccountTransaction) string {
				return strconv.FormatUint(uint64(t.AccountID), 10)
			}),
		)

		sorted := listview.SortItems(filtered, field, direction)
		visible := listview.Slice(sorted, page, pageSize)

		writeJSON(w, http.StatusOK, ListResponse{
			Results:    visible,
			Count:      int64(len(filtered)),
			Page:       listview.ClampPage(page, len(filtered), pageSize),
			PageSize:   pageSize,
			TotalPages: listview.TotalPages(len(filtered), pageSize),
		})
	}
}

// TransactionPayload is the client-writable subset of a transaction.
type TransactionPayload struct {
	AccountID       uint            `json:"account_id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	ExecutedAt      time.Time       `json:"executed_at"`
}

func (p *TransactionPayload) validate() string {
	if p.AccountID == 0 {
		return "account_id is required"
	}
	if !model.ValidTransactionType(p.TransactionType) {
		return "invalid transaction_type"
	}
	if !p.Amount.IsPositive() {
		return "amount must be positive"
	}
	if p.ExecutedAt.IsZero() {
		return "executed_at is required"
	}
	return ""
}

// CreateTransactionHandler records a deposit or withdrawal.
func CreateTransactionHandler(
	repo transactionStore,
	accounts accountStore,
	hub *events.Hub,
	summaries cache.Cache,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload TransactionPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if msg := payload.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		account, err := accounts.FindByID(r.Context(), user.ID, payload.AccountID)
		if err != nil {
			logger.WithError(err).Error("failed to verify account for transaction")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if account == nil {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}

		txn := &model.AccountTransaction{
			UserID:          user.ID,
			AccountID:       payload.AccountID,
			TransactionType: payload.TransactionType,
			Amount:          payload.Amount,
			ExecutedAt:      payload.ExecutedAt,
		}

		if err := repo.Create(r.Context(), txn); err != nil {
			logger.WithError(err).Error("failed to create transaction")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		invalidateSummary(r.Context(), summaries, user.ID, txn.AccountID)
		hub.Publish(events.Event{Type: events.TypeAccountsChanged, UserID: user.ID})

		writeJSON(w, http.StatusCreated, txn)
	}
}

// UpdateTransactionHandler replaces the writable fields of a transaction.
func UpdateTransactionHandler(repo transactionStore, hub *events.Hub, summaries cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		id, ok := urlID(r)
		if !ok {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		var payload TransactionPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if msg := payload.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		txn, err := repo.FindByID(r.Context(), user.ID, id)
		if err != nil {
			logger.WithError(err).Error("failed to fetch transaction for update")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if txn == nil {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return
		}

		previousAccount := txn.AccountID
		txn.AccountID = payload.AccountID
		txn.TransactionType = payload.TransactionType
		txn.Amount = payload.Amount
		txn.ExecutedAt = payload.ExecutedAt

		if err := repo.Update(r.Context(), txn); err != nil {
			logger.WithError(err).Error("failed to update transaction")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		invalidateSummary(r.Context(), summaries, user.ID, txn.AccountID, previousAccount)
		hub.Publish(events.Event{Type: events.TypeAccountsChanged, UserID: user.ID})

		writeJSON(w, http.StatusOK, txn)
	}
}

// DeleteTransactionHandler removes a transaction.
func DeleteTransactionHandler(repo transactionStore, hub *events.Hub, summaries cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		id, ok := urlID(r)
		if !ok {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		txn, err := repo.FindByID(r.Context(), user.ID, id)
		if err != nil {
			logger.WithError(err).Error("failed to fetch transaction for delete")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if txn == nil {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return
		}

		if err := repo.Delete(r.Context(), user.ID, id); err != nil {
			if isNotFound(err) {
				http.Error(w, "transaction not found", http.StatusNotFound)
				return
			}
			logger.WithError(err).Error("failed to delete transaction")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		invalidateSummary(r.Context(), summaries, user.ID, txn.AccountID)
		hub.Publish(events.Event{Type: events.TypeAccountsChanged, UserID: user.ID})

		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// DefaultListTransactionsHandler wires the handler to the production repository implementation.
func DefaultListTransactionsHandler() http.HandlerFunc {
	return ListTransactionsHandler(repository.NewTransactionRepository(), repository.NewPreferencesRepository())
}

// DefaultCreateTransactionHandler wires the handler to the production repository implementation.
func DefaultCreateTransactionHandler(hub *events.Hub, summaries cache.Cache) http.HandlerFunc {
	return CreateTransactionHandler(repository.NewTransactionRepository(), repository.NewAccountRepository(), hub, summaries)
}

// DefaultUpdateTransactionHandler wires the handler to the production repository implementation.
func DefaultUpdateTransactionHandler(hub *events.Hub, summaries cache.Cache) http.HandlerFunc {
	return UpdateTransactionHandler(repository.NewTransactionRepository(), hub, summaries)
}

// DefaultDeleteTransactionHandler wires the handler to the production repository implementation.
func DefaultDeleteTransactionHandler(hub *events.Hub, summaries cache.Cache) http.HandlerFunc {
	return DeleteTransactionHandler(repository.NewTransactionRepository(), hub, summaries)
}
