package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tradejournal/src/auth"
	"tradejournal/src/events"
	"tradejournal/src/model"
)

type mockAccountStore struct {
	accounts    []model.TradingAccount
	account     *model.TradingAccount
	err         error
	deleteErr   error
	calledCount int
	deletedID   uint
}

func (m *mockAccountStore) Create(ctx context.Context, account *model.TradingAccount) error {
	m.calledCount++
	account.ID = 99
	return m.err
}

func (m *mockAccountStore) FindByID(ctx context.Context, userID, id uint) (*model.TradingAccount, error) {
	m.calledCount++
	return m.account, m.err
}

func (m *mockAccountStore) FindAllByUser(ctx context.Context, userID uint) ([]model.TradingAccount, error) {
	m.calledCount++
	return m.accounts, m.err
}

func (m *mockAccountStore) Update(ctx context.Context, account *model.TradingAccount) error {
	m.calledCount++
	return m.err
}

func (m *mockAccountStore) Delete(ctx context.Context, userID, id uint) error {
	m.calledCount++
	m.deletedID = id
	return m.deleteErr
}

func (m *mockAccountStore) SetDefault(ctx context.Context, userID, id uint) error {
	m.calledCount++
	return m.err
}

func (m *mockAccountStore) ToggleStatus(ctx context.Context, userID, id uint) (*model.TradingAccount, error) {
	m.calledCount++
	return m.account, m.err
}

type mockPreferencesReader struct {
	prefs *model.UserPreferences
	err   error
}

func (m *mockPreferencesReader) GetOrCreate(ctx context.Context, userID uint) (*model.UserPreferences, error) {
	if m.prefs != nil {
		return m.prefs, m.err
	}
	return model.DefaultPreferences(userID), m.err
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func authenticated(req *http.Request, userID uint) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), auth.UserKey, &model.User{ID: userID}))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestListAccountsHandler_Unauthorized(t *testing.T) {
	handler := ListAccountsHandler(&mockAccountStore{}, &mockPreferencesReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListAccountsHandler_InvalidSortField(t *testing.T) {
	handler := ListAccountsHandler(&mockAccountStore{}, &mockPreferencesReader{})

	req := authenticated(httptest.NewRequest(http.MethodGet, "/api/accounts?sortField=secret", nil), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListAccountsHandler_FilterSortPaginate(t *testing.T) {
	accounts := []model.TradingAccount{
		{ID: 3, Name: "Charlie", AccountType: model.AccountTypeIBKR, Status: model.AccountStatusActive},
		{ID: 1, Name: "alpha", AccountType: model.AccountTypeIBKR, Status: model.AccountStatusActive},
		{ID: 2, Name: "Bravo", AccountType: model.AccountTypeTopstep, Status: model.AccountStatusActive},
		{ID: 4, Name: "delta", AccountType: model.AccountTypeIBKR, Status: model.AccountStatusArchived},
	}
	handler := ListAccountsHandler(&mockAccountStore{accounts: accounts}, &mockPreferencesReader{})

	req := authenticated(httptest.NewRequest(
		http.MethodGet,
		"/api/accounts?type=ibkr&status=active&sortField=name&sortDir=asc&page=1&pageSize=10",
		nil,
	), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Results    []model.TradingAccount `json:"results"`
		Count      int64                  `json:"count"`
		TotalPages int                    `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	// Only the two active ibkr accounts survive the filter, case-folded sort.
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "alpha", resp.Results[0].Name)
	assert.Equal(t, "Charlie", resp.Results[1].Name)
	assert.Equal(t, int64(2), resp.Count)
	assert.Equal(t, 1, resp.TotalPages)
}

func TestListAccountsHandler_PageSizeFromPreferences(t *testing.T) {
	accounts := make([]model.TradingAccount, 12)
	for i := range accounts {
		accounts[i] = model.TradingAccount{ID: uint(i + 1), Name: "acct", Status: model.AccountStatusActive}
	}

	prefs := model.DefaultPreferences(1)
	prefs.ItemsPerPage = 5

	handler := ListAccountsHandler(
		&mockAccountStore{accounts: accounts},
		&mockPreferencesReader{prefs: prefs},
	)

	req := authenticated(httptest.NewRequest(http.MethodGet, "/api/accounts", nil), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Results    []model.TradingAccount `json:"results"`
		PageSize   int                    `json:"page_size"`
		TotalPages int                    `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Len(t, resp.Results, 5)
	assert.Equal(t, 5, resp.PageSize)
	assert.Equal(t, 3, resp.TotalPages)
}

func TestListAccountsHandler_OutOfRangePageClamps(t *testing.T) {
	accounts := []model.TradingAccount{
		{ID: 1, Name: "only", Status: model.AccountStatusActive},
	}
	handler := ListAccountsHandler(&mockAccountStore{accounts: accounts}, &mockPreferencesReader{})

	req := authenticated(httptest.NewRequest(http.MethodGet, "/api/accounts?page=99", nil), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Results []model.TradingAccount `json:"results"`
		Page    int                    `json:"page"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Len(t, resp.Results, 1)
	assert.Equal(t, 1, resp.Page)
}

func TestCreateAccountHandler_InvalidType(t *testing.T) {
	handler := CreateAccountHandler(&mockAccountStore{}, events.NewHub())

	body := `{"name":"My Account","account_type":"etrade"}`
	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/accounts", jsonBody(body)), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateAccountHandler_Success(t *testing.T) {
	mockRepo := &mockAccountStore{}
	handler := CreateAccountHandler(mockRepo, events.NewHub())

	body := `{"name":"Funded","account_type":"topstep","initial_capital":50000}`
	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/accounts", jsonBody(body)), 7)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 1, mockRepo.calledCount)

	var created model.TradingAccount
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, uint(7), created.UserID)
	assert.Equal(t, model.AccountStatusActive, created.Status)
	assert.Equal(t, "USD", created.Currency)
}

func TestDeleteAccountHandler_NotFound(t *testing.T) {
	mockRepo := &mockAccountStore{deleteErr: gorm.ErrRecordNotFound}
	handler := DeleteAccountHandler(mockRepo, events.NewHub())

	req := authenticated(httptest.NewRequest(http.MethodDelete, "/api/accounts/5", nil), 1)
	req = withURLParam(req, "id", "5")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, uint(5), mockRepo.deletedID)
}

func TestToggleAccountStatusHandler_NotFound(t *testing.T) {
	handler := ToggleAccountStatusHandler(&mockAccountStore{}, events.NewHub())

	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/accounts/9/toggle-status", nil), 1)
	req = withURLParam(req, "id", "9")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
