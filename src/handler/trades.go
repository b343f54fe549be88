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

type tradeSearcher interface {
	Search(ctx context.Context, options repository.TradeSearchOptions) ([]model.Trade, error)
	Count(ctx context.Context, options repository.TradeSearchOptions) (int64, error)
}

type tradeStore interface {
	Create(ctx context.Context, trade *model.Trade) error
	FindByID(ctx context.Context, userID, id uint) (*model.Trade, error)
	Update(ctx context.Context, trade *model.Trade) error
	Delete(ctx context.Context, userID, id uint) error
}

// SearchTradesHandler lists trades with server-side filters and pagination.
// Unlike accounts and transactions the journal is paginated in SQL, so the
// response count is the authoritative total across all pages.
func SearchTradesHandler(repo tradeSearcher, prefs preferencesReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		settings, err := prefs.GetOrCreate(r.Context(), user.ID)
		if err != nil {
			logger.WithError(err).Error("failed to load preferences for trade search")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		page, pageSize, ok := pagination(r, settings.ItemsPerPage)
		if !ok {
			http.Error(w, "invalid page or pageSize", http.StatusBadRequest)
			return
		}

		query := r.URL.Query()

		var accountID *uint
		if accountParam := query.Get("accountId"); accountParam != "" {
			id, err := strconv.ParseUint(accountParam, 10, 64)
			if err != nil {
				http.Error(w, "invalid accountId", http.StatusBadRequest)
				return
			}
			account := uint(id)
			accountID = &account
		}

		var symbol *string
		if symbolParam := query.Get("symbol"); symbolParam != "" {
			symbol = &symbolParam
		}

		var tradeType *string
		if typeParam := query.Get("tradeType"); typeParam != "" {
			if !model.ValidTradeType(typeParam) {
				http.Error(w, "invalid tradeType", http.StatusBadRequest)
				return
			}
			tradeType = &typeParam
		}

		var entryFrom, entryTo *time.Time
		if fromParam := query.Get("from"); fromParam != "" {
			parsed, err := time.Parse(time.RFC3339, fromParam)
			if err != nil {
				http.Error(w, "invalid from", http.StatusBadRequest)
				return
			}
			entryFrom = &parsed
		}
		if toParam := query.Get("to"); toParam != "" {
			parsed, err := time.Parse(time.RFC3339, toParam)
			if err != nil {
				http.Error(w, "invalid to", http.StatusBadRequest)
				return
			}
			entryTo = &parsed
		}

		options := repository.TradeSearchOptions{
			UserID:      user.ID,
			AccountID:   accountID,
			Symbol:      symbol,
			TradeType:   tradeType,
			EntryAfter:  entryFrom,
			EntryBefore: entryTo,
		}

		count, err := repo.Count(r.Context(), options)
		if err != nil {
			logger.WithError(err).Error("failed to count trades")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Clamp before querying so deleting the last row of the last page
		// lands on the preceding page instead of an empty window.
		page = listview.ClampPage(page, int(count), pageSize)

		options.Limit = pageSize
		options.Offset = (page - 1) * pageSize

		trades, err := repo.Search(r.Context(), options)
		if err != nil {
			logger.WithError(err).Error("failed to search trades")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, ListResponse{
			Results:    trades,
			Count:      count,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: listview.TotalPages(int(count), pageSize),
		})
	}
}

// TradePayload is the client-writable subset of a trade. Exit fields are
// optional; a trade without them is open.
type TradePayload struct {
	AccountID  uint             `json:"account_id"`
	Symbol     string           `json:"symbol"`
	TradeType  string           `json:"trade_type"`
	Size       decimal.Decimal  `json:"size"`
	EntryPrice decimal.Decimal  `json:"entry_price"`
	ExitPrice  *decimal.Decimal `json:"exit_price,omitempty"`
	EntryTime  time.Time        `json:"entry_time"`
	ExitTime   *time.Time       `json:"exit_time,omitempty"`
	Fees       decimal.Decimal  `json:"fees"`
}

func (p *TradePayload) validate() string {
	if p.AccountID == 0 {
		return "account_id is required"
	}
	if p.Symbol == "" {
		return "symbol is required"
	}
	if !model.ValidTradeType(p.TradeType) {
		return "invalid trade_type"
	}
	if !p.Size.IsPositive() {
		return "size must be positive"
	}
	if !p.EntryPrice.IsPositive() {
		return "entry_price must be positive"
	}
	if p.EntryTime.IsZero() {
		return "entry_time is required"
	}
	if (p.ExitPrice == nil) != (p.ExitTime == nil) {
		return "exit_price and exit_time must be set together"
	}
	if p.ExitTime != nil && p.ExitTime.Before(p.EntryTime) {
		return "exit_time must not precede entry_time"
	}
	if p.Fees.IsNegative() {
		return "fees must not be negative"
	}
	return ""
}

func (p *TradePayload) apply(trade *model.Trade) {
	trade.AccountID = p.AccountID
	trade.Symbol = p.Symbol
	trade.TradeType = p.TradeType
	trade.Size = p.Size
	trade.EntryPrice = p.EntryPrice
	trade.ExitPrice = p.ExitPrice
	trade.EntryTime = p.EntryTime
	trade.ExitTime = p.ExitTime
	trade.Fees = p.Fees
}

// CreateTradeHandler journals a new trade against one of the user's accounts.
func CreateTradeHandler(repo tradeStore, accounts accountStore, hub *events.Hub, summaries cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload TradePayload
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
			logger.WithError(err).Error("failed to verify account for trade")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if account == nil {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}

		trade := &model.Trade{UserID: user.ID}
		payload.apply(trade)

		if err := repo.Create(r.Context(), trade); err != nil {
			logger.WithError(err).Error("failed to create trade")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		invalidateSummary(r.Context(), summaries, user.ID, trade.AccountID)
		hub.Publish(events.Event{Type: events.TypeTradesChanged, UserID: user.ID})

		writeJSON(w, http.StatusCreated, trade)
	}
}

// GetTradeHandler returns one trade or 404.
func GetTradeHandler(repo tradeStore) http.HandlerFunc {
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

		trade, err := repo.FindByID(r.Context(), user.ID, id)
		if err != nil {
			logger.WithError(err).Error("failed to fetch trade")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if trade == nil {
			http.Error(w, "trade not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, trade)
	}
}

// UpdateTradeHandler replaces the writable fields of a trade and recomputes
// its PnL.
func UpdateTradeHandler(repo tradeStore, hub *events.Hub, summaries cache.Cache) http.HandlerFunc {
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

		var payload TradePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if msg := payload.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		trade, err := repo.FindByID(r.Context(), user.ID, id)
		if err != nil {
			logger.WithError(err).Error("failed to fetch trade for update")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if trade == nil {
			http.Error(w, "trade not found", http.StatusNotFound)
			return
		}

		previousAccount := trade.AccountID
		payload.apply(trade)

		if err := repo.Update(r.Context(), trade); err != nil {
			logger.WithError(err).Error("failed to update trade")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		invalidateSummary(r.Context(), summaries, user.ID, trade.AccountID, previousAccount)
		hub.Publish(events.Event{Type: events.TypeTradesChanged, UserID: user.ID})

		writeJSON(w, http.StatusOK, trade)
	}
}

// DeleteTradeHandler removes a trade from the journal.
func DeleteTradeHandler(repo tradeStore, hub *events.Hub, summaries cache.Cache) http.HandlerFunc {
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

		trade, err := repo.FindByID(r.Context(), user.ID, id)
		if err != nil {
			logger.WithError(err).Error("failed to fetch trade for delete")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if trade == nil {
			http.Error(w, "trade not found", http.StatusNotFound)
			return
		}

		if err := repo.Delete(r.Context(), user.ID, id); err != nil {
			if isNotFound(err) {
				http.Error(w, "trade not found", http.StatusNotFound)
				return
			}
			logger.WithError(err).Error("failed to delete trade")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		invalidateSummary(r.Context(), summaries, user.ID, trade.AccountID)
		hub.Publish(events.Event{Type: events.TypeTradesChanged, UserID: user.ID})

		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// invalidateSummary drops cached analytics for the touched accounts.
// Failures are logged, never surfaced: the cache has a TTL backstop.
func invalidateSummary(ctx context.Context, summaries cache.Cache, userID uint, accountIDs ...uint) {
	keys := make([]string, 0, len(accountIDs))
	seen := make(map[uint]bool, len(accountIDs))

	for _, id := range accountIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		keys = append(keys, cache.SummaryKey(userID, id))
	}

	if err := summaries.Delete(ctx, keys...); err != nil {
		logger.WithError(err).Warn("failed to invalidate analytics cache")
	}
}

// DefaultSearchTradesHandler wires the handler to the production repository implementation.
func DefaultSearchTradesHandler() http.HandlerFunc {
	return SearchTradesHandler(repository.NewTradeRepository(), repository.NewPreferencesRepository())
}

// DefaultCreateTradeHandler wires the handler to the production repository implementation.
func DefaultCreateTradeHandler(hub *events.Hub, summaries cache.Cache) http.HandlerFunc {
	return CreateTradeHandler(repository.NewTradeRepository(), repository.NewAccountRepository(), hub, summaries)
}

// DefaultGetTradeHandler wires the handler to the production repository implementation.
func DefaultGetTradeHandler() http.HandlerFunc {
	return GetTradeHandler(repository.NewTradeRepository())
}

// DefaultUpdateTradeHandler wires the handler to the production repository implementation.
func DefaultUpdateTradeHandler(hub *events.Hub, summaries cache.Cache) http.HandlerFunc {
	return UpdateTradeHandler(repository.NewTradeRepository(), hub, summaries)
}

// DefaultDeleteTradeHandler wires the handler to the production repository implementation.
func DefaultDeleteTradeHandler(hub *events.Hub, summaries cache.Cache) http.HandlerFunc {
	return DeleteTradeHandler(repository.NewTradeRepository(), hub, summaries)
}
