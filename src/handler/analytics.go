package handler

import (
	"context"
	"net/http"
	"strconv"

	logger "github.com/sirupsen/logrus"

	"tradejournal/src/analytics"
	"tradejournal/src/auth"
	"tradejournal/src/cache"
	"tradejournal/src/model"
	"tradejournal/src/repository"
)

type accountTradeLister interface {
	FindAllByAccount(ctx context.Context, userID, accountID uint) ([]model.Trade, error)
}

type accountTransactionLister interface {
	FindAllByAccount(ctx context.Context, userID, accountID uint) ([]model.AccountTransaction, error)
}

type accountFinder interface {
	FindByID(ctx context.Context, userID, id uint) (*model.TradingAccount, error)
}

// AccountSummaryHandler aggregates one account's realized performance.
// Results are cached per (user, account); mutations on trades or cash flow
// invalidate the entry, the TTL covers anything that slips through.
func AccountSummaryHandler(
	accounts accountFinder,
	trades accountTradeLister,
	txns accountTransactionLister,
	summaries cache.Cache,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		accountParam := r.URL.Query().Get("accountId")
		if accountParam == "" {
			http.Error(w, "accountId is required", http.StatusBadRequest)
			return
		}
		parsed, err := strconv.ParseUint(accountParam, 10, 64)
		if err != nil || parsed == 0 {
			http.Error(w, "invalid accountId", http.StatusBadRequest)
			return
		}
		accountID := uint(parsed)

		account, err := accounts.FindByID(r.Context(), user.ID, accountID)
		if err != nil {
			logger.WithError(err).Error("failed to fetch account for summary")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if account == nil {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}

		key := cache.SummaryKey(user.ID, accountID)

		var summary analytics.Summary
		hit, err := summaries.Get(r.Context(), key, &summary)
		if err != nil {
			logger.WithError(err).Warn("analytics cache read failed")
		}
		if hit {
			writeJSON(w, http.StatusOK, summary)
			return
		}

		accountTrades, err := trades.FindAllByAccount(r.Context(), user.ID, accountID)
		if err != nil {
			logger.WithError(err).Error("failed to load trades for summary")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		accountTxns, err := txns.FindAllByAccount(r.Context(), user.ID, accountID)
		if err != nil {
			logger.WithError(err).Error("failed to load transactions for summary")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		summary = analytics.Summarize(account.InitialCapital, accountTrades, accountTxns)

		if err := summaries.Set(r.Context(), key, summary); err != nil {
			logger.WithError(err).Warn("analytics cache write failed")
		}

		writeJSON(w, http.StatusOK, summary)
	}
}

// DefaultAccountSummaryHandler wires the handler to the production repository implementation.
func DefaultAccountSummaryHandler(summaries cache.Cache) http.HandlerFunc {
	return AccountSummaryHandler(
		repository.NewAccountRepository(),
		repository.NewTradeRepository(),
		repository.NewTransactionRepository(),
		summaries,
	)
}
