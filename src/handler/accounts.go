package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradejournal/src/auth"
	"tradejournal/src/events"
	"tradejournal/src/listview"
	"tradejournal/src/model"
	"tradejournal/src/repository"
)

type accountStore interface {
	Create(ctx context.Context, account *model.TradingAccount) error
	FindByID(ctx context.Context, userID, id uint) (*model.TradingAccount, error)
	FindAllByUser(ctx context.Context, userID uint) ([]model.TradingAccount, error)
	Update(ctx context.Context, account *model.TradingAccount) error
	Delete(ctx context.Context, userID, id uint) error
	SetDefault(ctx context.Context, userID, id uint) error
	ToggleStatus(ctx context.Context, userID, id uint) (*model.TradingAccount, error)
}

type preferencesReader interface {
	GetOrCreate(ctx context.Context, userID uint) (*model.UserPreferences, error)
}

// accountSortFields maps sortField query values to typed accessors. The keys
// double as the whitelist of sortable columns.
var accountSortFields = map[string]listview.Field[model.TradingAccount]{
	"id":   {Number: func(a model.TradingAccount) float64 { return float64(a.ID) }},
	"name": {String: func(a model.TradingAccount) string { return a.Name }},
	"account_type": {String: func(a model.TradingAccount) string {
		return a.AccountType
	}},
	"status": {String: func(a model.TradingAccount) string { return a.Status }},
	"initial_capital": {Number: func(a model.TradingAccount) float64 {
		return a.InitialCapital.InexactFloat64()
	}},
	"trades_count": {Number: func(a model.TradingAccount) float64 {
		return float64(a.TradesCount)
	}},
	"created_at": {Time: func(a model.TradingAccount) time.Time { return a.CreatedAt }},
}

// ListAccountsHandler loads every account of the user and shapes the result
// through the in-memory pipeline: filter, stable sort, then paginate. The
// page size defaults to the user's items_per_page preference.
func ListAccountsHandler(repo accountStore, prefs preferencesReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		settings, err := prefs.GetOrCreate(r.Context(), user.ID)
		if err != nil {
			logger.WithError(err).Error("failed to load preferences for account list")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		page, pageSize, ok := pagination(r, settings.ItemsPerPage)
		if !ok {
			http.Error(w, "invalid page or pageSize", http.StatusBadRequest)
			return
		}

		query := r.URL.Query()

		if t := query.Get("type"); t != "" && !model.ValidAccountType(t) {
			http.Error(w, "invalid type", http.StatusBadRequest)
			return
		}
		if s := query.Get("status"); s != "" && !model.ValidAccountStatus(s) {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		sortField := query.Get("sortField")
		if sortField == "" {
			sortField = "id"
		}
		field, known := accountSortFields[sortField]
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

		accounts, err := repo.FindAllByUser(r.Context(), user.ID)
		if err != nil {
			logger.WithError(err).Error("failed to list accounts")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		filtered := listview.Filter(accounts,
			listview.Equals(query.Get("type"), func(a model.TradingAccount) string {
				return a.AccountType
			}),
			listview.Equals(query.Get("status"), func(a model.TradingAccount) string {
				return a.Status
			}),
			listview.Search(query.Get("search"),
				func(a model.TradingAccount) string { return a.Name },
				func(a model.TradingAccount) string { return a.BrokerAccountID },
			),
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

// AccountPayload is the client-writable subset of a trading account.
type AccountPayload struct {
	Name             string          `json:"name"`
	AccountType      string          `json:"account_type"`
	BrokerAccountID  string          `json:"broker_account_id"`
	Currency         string          `json:"currency"`
	Status           string          `json:"status"`
	IsDefault        bool            `json:"is_default"`
	InitialCapital   decimal.Decimal `json:"initial_capital"`
	MLLEnabled       bool            `json:"mll_enabled"`
	MaximumLossLimit decimal.Decimal `json:"maximum_loss_limit"`
}

func (p *AccountPayload) validate() string {
	if p.Name == "" {
		return "name is required"
	}
	if p.AccountType != "" && !model.ValidAccountType(p.AccountType) {
		return "invalid account_type"
	}
	if p.Status != "" && !model.ValidAccountStatus(p.Status) {
		return "invalid status"
	}
	if p.InitialCapital.IsNegative() {
		return "initial_capital must not be negative"
	}
	if p.MLLEnabled && !p.MaximumLossLimit.IsPositive() {
		return "maximum_loss_limit must be positive when mll_enabled"
	}
	return ""
}

func (p *AccountPayload) apply(account *model.TradingAccount) {
	account.Name = p.Name
	account.BrokerAccountID = p.BrokerAccountID
	account.IsDefault = p.IsDefault
	account.InitialCapital = p.InitialCapital
	account.MLLEnabled = p.MLLEnabled
	account.MaximumLossLimit = p.MaximumLossLimit

	account.AccountType = p.AccountType
	if account.AccountType == "" {
		account.AccountType = model.AccountTypeOther
	}

	account.Status = p.Status
	if account.Status == "" {
		account.Status = model.AccountStatusActive
	}

	account.Currency = p.Currency
	if account.Currency == "" {
		account.Currency = "USD"
	}
}

// CreateAccountHandler inserts a new trading account for the user.
func CreateAccountHandler(repo accountStore, hub *events.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload AccountPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if msg := payload.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		account := &model.TradingAccount{UserID: user.ID}
		payload.apply(account)

		if err := repo.Create(r.Context(), account); err != nil {
			logger.WithError(err).Error("failed to create account")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		hub.Publish(events.Event{Type: events.TypeAccountsChanged, UserID: user.ID})

		writeJSON(w, http.StatusCreated, account)
	}
}

// GetAccountHandler returns one account or 404.
func GetAccountHandler(repo accountStore) http.HandlerFunc {
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

		account, err := repo.FindByID(r.Context(), user.ID, id)
		if err != nil {
			logger.WithError(err).Error("failed to fetch account")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if account == nil {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, account)
	}
}

// UpdateAccountHandler replaces the writable fields of an account.
func UpdateAccountHandler(repo accountStore, hub *events.Hub) http.HandlerFunc {
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

		var payload AccountPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if msg := payload.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		account, err := repo.FindByID(r.Context(), user.ID, id)
		if err != nil {
			logger.WithError(err).Error("failed to fetch account for update")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if account == nil {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}

		// The default flag only changes through the set-default endpoint so
		// the one-default invariant stays transactional.
		wasDefault := account.IsDefault
		payload.apply(account)
		account.IsDefault = wasDefault

		if err := repo.Update(r.Context(), account); err != nil {
			logger.WithError(err).Error("failed to update account")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		hub.Publish(events.Event{Type: events.TypeAccountsChanged, UserID: user.ID})

		writeJSON(w, http.StatusOK, account)
	}
}

// DeleteAccountHandler removes an account and everything cascading from it.
func DeleteAccountHandler(repo accountStore, hub *events.Hub) http.HandlerFunc {
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

		if err := repo.Delete(r.Context(), user.ID, id); err != nil {
			if isNotFound(err) {
				http.Error(w, "account not found", http.StatusNotFound)
				return
			}
			logger.WithError(err).Error("failed to delete account")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		hub.Publish(events.Event{Type: events.TypeAccountsChanged, UserID: user.ID})

		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// SetDefaultAccountHandler makes one account the user's default.
func SetDefaultAccountHandler(repo accountStore, hub *events.Hub) http.HandlerFunc {
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

		if err := repo.SetDefault(r.Context(), user.ID, id); err != nil {
			if isNotFound(err) {
				http.Error(w, "account not found", http.StatusNotFound)
				return
			}
			logger.WithError(err).Error("failed to set default account")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		hub.Publish(events.Event{Type: events.TypeAccountsChanged, UserID: user.ID})

		writeJSON(w, http.StatusOK, map[string]string{"status": "default set"})
	}
}

// ToggleAccountStatusHandler flips an account between active and inactive.
func ToggleAccountStatusHandler(repo accountStore, hub *events.Hub) http.HandlerFunc {
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

		account, err := repo.ToggleStatus(r.Context(), user.ID, id)
		if err != nil {
			logger.WithError(err).Error("failed to toggle account status")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if account == nil {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}

		hub.Publish(events.Event{Type: events.TypeAccountsChanged, UserID: user.ID})

		writeJSON(w, http.StatusOK, account)
	}
}

// DefaultListAccountsHandler wires the handler to the production repository implementation.
func DefaultListAccountsHandler() http.HandlerFunc {
	return ListAccountsHandler(repository.NewAccountRepository(), repository.NewPreferencesRepository())
}

// DefaultCreateAccountHandler wires the handler to the production repository implementation.
func DefaultCreateAccountHandler(hub *events.Hub) http.HandlerFunc {
	return CreateAccountHandler(repository.NewAccountRepository(), hub)
}

// DefaultGetAccountHandler wires the handler to the production repository implementation.
func DefaultGetAccountHandler() http.HandlerFunc {
	return GetAccountHandler(repository.NewAccountRepository())
}

// DefaultUpdateAccountHandler wires the handler to the production repository implementation.
func DefaultUpdateAccountHandler(hub *events.Hub) http.HandlerFunc {
	return UpdateAccountHandler(repository.NewAccountRepository(), hub)
}

// DefaultDeleteAccountHandler wires the handler to the production repository implementation.
func DefaultDeleteAccountHandler(hub *events.Hub) http.HandlerFunc {
	return DeleteAccountHandler(repository.NewAccountRepository(), hub)
}

// DefaultSetDefaultAccountHandler wires the handler to the production repository implementation.
func DefaultSetDefaultAccountHandler(hub *events.Hub) http.HandlerFunc {
	return SetDefaultAccountHandler(repository.NewAccountRepository(), hub)
}

// DefaultToggleAccountStatusHandler wires the handler to the production repository implementation.
func DefaultToggleAccountStatusHandler(hub *events.Hub) http.HandlerFunc {
	return ToggleAccountStatusHandler(repository.NewAccountRepository(), hub)
}
