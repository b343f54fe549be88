package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/src/cache"
	"tradejournal/src/events"
	"tradejournal/src/model"
	"tradejournal/src/repository"
)

type mockTradeSearcher struct {
	trades      []model.Trade
	count       int64
	err         error
	options     repository.TradeSearchOptions
	calledCount int
}

func (m *mockTradeSearcher) Search(ctx context.Context, options repository.TradeSearchOptions) ([]model.Trade, error) {
	m.calledCount++
	m.options = options
	return m.trades, m.err
}

func (m *mockTradeSearcher) Count(ctx context.Context, options repository.TradeSearchOptions) (int64, error) {
	return m.count, m.err
}

type mockTradeStore struct {
	trade       *model.Trade
	err         error
	calledCount int
}

func (m *mockTradeStore) Create(ctx context.Context, trade *model.Trade) error {
	m.calledCount++
	trade.ID = 42
	trade.ComputePnL()
	return m.err
}

func (m *mockTradeStore) FindByID(ctx context.Context, userID, id uint) (*model.Trade, error) {
	return m.trade, m.err
}

func (m *mockTradeStore) Update(ctx context.Context, trade *model.Trade) error {
	m.calledCount++
	trade.ComputePnL()
	return m.err
}

func (m *mockTradeStore) Delete(ctx context.Context, userID, id uint) error {
	m.calledCount++
	return m.err
}

func TestSearchTradesHandler_Unauthorized(t *testing.T) {
	handler := SearchTradesHandler(&mockTradeSearcher{}, &mockPreferencesReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/trades", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSearchTradesHandler_InvalidTradeType(t *testing.T) {
	handler := SearchTradesHandler(&mockTradeSearcher{}, &mockPreferencesReader{})

	req := authenticated(httptest.NewRequest(http.MethodGet, "/api/trades?tradeType=Sideways", nil), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSearchTradesHandler_FiltersAndPagination(t *testing.T) {
	mockRepo := &mockTradeSearcher{
		trades: []model.Trade{{ID: 1, Symbol: "NQ"}},
		count:  45,
	}
	handler := SearchTradesHandler(mockRepo, &mockPreferencesReader{})

	req := authenticated(httptest.NewRequest(
		http.MethodGet,
		"/api/trades?accountId=3&symbol=NQ&tradeType=Long&from=2026-01-01T00:00:00Z&page=2&pageSize=20",
		nil,
	), 7)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, mockRepo.calledCount)

	assert.Equal(t, uint(7), mockRepo.options.UserID)
	require.NotNil(t, mockRepo.options.AccountID)
	assert.Equal(t, uint(3), *mockRepo.options.AccountID)
	require.NotNil(t, mockRepo.options.Symbol)
	assert.Equal(t, "NQ", *mockRepo.options.Symbol)
	require.NotNil(t, mockRepo.options.TradeType)
	assert.Equal(t, model.TradeTypeLong, *mockRepo.options.TradeType)
	require.NotNil(t, mockRepo.options.EntryAfter)
	assert.Equal(t, 20, mockRepo.options.Limit)
	assert.Equal(t, 20, mockRepo.options.Offset)

	var resp struct {
		Count      int64 `json:"count"`
		Page       int   `json:"page"`
		TotalPages int   `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(45), resp.Count)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 3, resp.TotalPages)
}

func TestSearchTradesHandler_PageBeyondLastClamps(t *testing.T) {
	// 45 rows at pageSize 20 means page 9 lands on page 3.
	mockRepo := &mockTradeSearcher{count: 45}
	handler := SearchTradesHandler(mockRepo, &mockPreferencesReader{})

	req := authenticated(httptest.NewRequest(http.MethodGet, "/api/trades?page=9&pageSize=20", nil), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 40, mockRepo.options.Offset)

	var resp struct {
		Page int `json:"page"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Page)
}

func TestCreateTradeHandler_ExitFieldsMustPair(t *testing.T) {
	handler := CreateTradeHandler(&mockTradeStore{}, &mockAccountStore{}, events.NewHub(), cache.Noop{})

	body := `{
		"account_id": 1,
		"symbol": "ES",
		"trade_type": "Long",
		"size": 2,
		"entry_price": 5000,
		"entry_time": "2026-03-01T14:30:00Z",
		"exit_price": 5010
	}`
	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/trades", jsonBody(body)), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateTradeHandler_UnknownAccount(t *testing.T) {
	handler := CreateTradeHandler(&mockTradeStore{}, &mockAccountStore{}, events.NewHub(), cache.Noop{})

	body := `{
		"account_id": 77,
		"symbol": "ES",
		"trade_type": "Long",
		"size": 2,
		"entry_price": 5000,
		"entry_time": "2026-03-01T14:30:00Z"
	}`
	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/trades", jsonBody(body)), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateTradeHandler_ComputesPnL(t *testing.T) {
	mockRepo := &mockTradeStore{}
	accounts := &mockAccountStore{account: &model.TradingAccount{ID: 1, UserID: 1}}
	handler := CreateTradeHandler(mockRepo, accounts, events.NewHub(), cache.Noop{})

	body := `{
		"account_id": 1,
		"symbol": "ES",
		"trade_type": "Short",
		"size": 2,
		"entry_price": 5000,
		"exit_price": 4990,
		"entry_time": "2026-03-01T14:30:00Z",
		"exit_time": "2026-03-01T15:00:00Z",
		"fees": 4.5
	}`
	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/trades", jsonBody(body)), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, 1, mockRepo.calledCount)

	var created model.Trade
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	// Short 2 @ 5000 exits at 4990: gross 20, net 15.50.
	assert.True(t, created.PnL.Equal(decimal.NewFromInt(20)), "pnl = %s", created.PnL)
	assert.True(t, created.NetPnL.Equal(decimal.RequireFromString("15.5")), "net = %s", created.NetPnL)
}

func TestDeleteTradeHandler_NotFound(t *testing.T) {
	handler := DeleteTradeHandler(&mockTradeStore{}, events.NewHub(), cache.Noop{})

	req := authenticated(httptest.NewRequest(http.MethodDelete, "/api/trades/8", nil), 1)
	req = withURLParam(req, "id", "8")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
