package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/src/checklist"
	"tradejournal/src/events"
	"tradejournal/src/model"
)

type mockStrategyStore struct {
	strategy    *model.Strategy
	strategies  []model.Strategy
	err         error
	calledCount int
}

func (m *mockStrategyStore) Create(ctx context.Context, strategy *model.Strategy) error {
	m.calledCount++
	strategy.ID = 11
	strategy.Version = 1
	return m.err
}

func (m *mockStrategyStore) FindByID(ctx context.Context, userID, id uint) (*model.Strategy, error) {
	return m.strategy, m.err
}

func (m *mockStrategyStore) FindAllByUser(ctx context.Context, userID uint) ([]model.Strategy, error) {
	return m.strategies, m.err
}

func (m *mockStrategyStore) Update(ctx context.Context, strategy *model.Strategy) error {
	m.calledCount++
	strategy.Version++
	return m.err
}

func (m *mockStrategyStore) Delete(ctx context.Context, userID, id uint) error {
	m.calledCount++
	return m.err
}

func checklistStrategy() *model.Strategy {
	return &model.Strategy{
		ID:     5,
		UserID: 1,
		Title:  "Opening range",
		Sections: []model.StrategySection{
			{
				Title: "Before entry",
				Rules: []model.StrategyRule{
					{ID: 10, Text: "Range established"},
					{ID: 11, Text: "Volume confirms"},
				},
			},
			{
				Title: "Risk",
				Rules: []model.StrategyRule{
					{ID: 20, Text: "Stop placed"},
					{ID: 21, Text: "Size within limits"},
				},
			},
		},
	}
}

func TestToggleChecklistHandler_ProgressAdvances(t *testing.T) {
	tracker := checklist.NewTracker()
	handler := ToggleChecklistHandler(&mockStrategyStore{strategy: checklistStrategy()}, tracker)

	body := `{"section_index":0,"rule_id":10}`
	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/strategies/5/checklist/toggle", jsonBody(body)), 1)
	req = withURLParam(req, "id", "5")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp checklistResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, 1, resp.Progress.Checked)
	assert.Equal(t, 4, resp.Progress.Total)
	assert.Equal(t, 25, resp.Progress.Percentage)
	assert.True(t, resp.Checked[checklist.Key(0, 10)])
}

func TestToggleChecklistHandler_TogglingTwiceUnchecks(t *testing.T) {
	tracker := checklist.NewTracker()
	handler := ToggleChecklistHandler(&mockStrategyStore{strategy: checklistStrategy()}, tracker)

	for i := 0; i < 2; i++ {
		body := `{"section_index":1,"rule_id":20}`
		req := authenticated(httptest.NewRequest(http.MethodPost, "/api/strategies/5/checklist/toggle", jsonBody(body)), 1)
		req = withURLParam(req, "id", "5")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		if i == 1 {
			var resp checklistResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, 0, resp.Progress.Checked)
			assert.Equal(t, 0, resp.Progress.Percentage)
		}
	}
}

func TestToggleChecklistHandler_UnknownRule(t *testing.T) {
	handler := ToggleChecklistHandler(&mockStrategyStore{strategy: checklistStrategy()}, checklist.NewTracker())

	body := `{"section_index":0,"rule_id":999}`
	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/strategies/5/checklist/toggle", jsonBody(body)), 1)
	req = withURLParam(req, "id", "5")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestResetChecklistHandler_ClearsProgress(t *testing.T) {
	tracker := checklist.NewTracker()
	tracker.Toggle(1, 5, checklist.Key(0, 10))
	tracker.Toggle(1, 5, checklist.Key(1, 21))

	handler := ResetChecklistHandler(&mockStrategyStore{strategy: checklistStrategy()}, tracker)

	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/strategies/5/checklist/reset", nil), 1)
	req = withURLParam(req, "id", "5")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp checklistResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Empty(t, resp.Checked)
	assert.Equal(t, 0, resp.Progress.Percentage)

	assert.Empty(t, tracker.Checked(1, 5))
}

func TestGetChecklistHandler_NotFound(t *testing.T) {
	handler := GetChecklistHandler(&mockStrategyStore{}, checklist.NewTracker())

	req := authenticated(httptest.NewRequest(http.MethodGet, "/api/strategies/404/checklist", nil), 1)
	req = withURLParam(req, "id", "404")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateStrategyHandler_ValidatesTree(t *testing.T) {
	handler := CreateStrategyHandler(&mockStrategyStore{}, events.NewHub())

	body := `{"title":"Plan","sections":[{"title":"","rules":[{"text":"x"}]}]}`
	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/strategies", jsonBody(body)), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateStrategyHandler_DefaultsToDraft(t *testing.T) {
	mockRepo := &mockStrategyStore{}
	handler := CreateStrategyHandler(mockRepo, events.NewHub())

	body := `{"title":"Plan","sections":[{"title":"Entry","rules":[{"text":"Wait for confirmation"}]}]}`
	req := authenticated(httptest.NewRequest(http.MethodPost, "/api/strategies", jsonBody(body)), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var created model.Strategy
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, model.StrategyStatusDraft, created.Status)
	assert.Equal(t, 1, created.RuleCount())
}
