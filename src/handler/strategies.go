package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradejournal/src/auth"
	"tradejournal/src/checklist"
	"tradejournal/src/events"
	"tradejournal/src/listview"
	"tradejournal/src/model"
	"tradejournal/src/repository"
)

type strategyStore interface {
	Create(ctx context.Context, strategy *model.Strategy) error
	FindByID(ctx context.Context, userID, id uint) (*model.Strategy, error)
	FindAllByUser(ctx context.Context, userID uint) ([]model.Strategy, error)
	Update(ctx context.Context, strategy *model.Strategy) error
	Delete(ctx context.Context, userID, id uint) error
}

var strategySortFields = map[string]listview.Field[model.Strategy]{
	"id":         {Number: func(s model.Strategy) float64 { return float64(s.ID) }},
	"title":      {String: func(s model.Strategy) string { return s.Title }},
	"status":     {String: func(s model.Strategy) string { return s.Status }},
	"updated_at": {Time: func(s model.Strategy) time.Time { return s.UpdatedAt }},
}

// ListStrategiesHandler lists the user's strategies without their section
// trees, shaped through the in-memory pipeline.
func ListStrategiesHandler(repo strategyStore, prefs preferencesReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		settings, err := prefs.GetOrCreate(r.Context(), user.ID)
		if err != nil {
			logger.WithError(err).Error("failed to load preferences for strategy list")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		page, pageSize, ok := pagination(r, settings.ItemsPerPage)
		if !ok {
			http.Error(w, "invalid page or pageSize", http.StatusBadRequest)
			return
		}

		query := r.URL.Query()

		if s := query.Get("status"); s != "" && !model.ValidStrategyStatus(s) {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		sortField := query.Get("sortField")
		if sortField == "" {
			sortField = "id"
		}
		field, known := strategySortFields[sortField]
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

		strategies, err := repo.FindAllByUser(r.Context(), user.ID)
		if err != nil {
			logger.WithError(err).Error("failed to list strategies")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		filtered := listview.Filter(strategies,
			listview.Equals(query.Get("status"), func(s model.Strategy) string {
				return s.Status
			}),
			listview.Search(query.Get("search"),
				func(s model.Strategy) string { return s.Title },
				func(s model.Strategy) string { return s.Description },
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

// StrategyPayload carries the whole strategy tree. On update the tree
// replaces the stored one wholesale.
type StrategyPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Sections    []struct {
		Title string `json:"title"`
		Rules []struct {
			Text string `json:"text"`
		} `json:"rules"`
	} `json:"sections"`
}

func (p *StrategyPayload) validate() string {
	if p.Title == "" {
		return "title is required"
	}
	if p.Status != "" && !model.ValidStrategyStatus(p.Status) {
		return "invalid status"
	}
	for _, section := range p.Sections {
		if section.Title == "" {
			return "section title is required"
		}
		for _, rule := range section.Rules {
			if rule.Text == "" {
				return "rule text is required"
			}
		}
	}
	return ""
}

func (p *StrategyPayload) tree() []model.StrategySection {
	sections := make([]model.StrategySection, 0, len(p.Sections))

	for _, s := range p.Sections {
		section := model.StrategySection{Title: s.Title}
		for _, r := range s.Rules {
			section.Rules = append(section.Rules, model.StrategyRule{Text: r.Text})
		}
		sections = append(sections, section)
	}

	return sections
}

// CreateStrategyHandler stores a new strategy with its section tree.
func CreateStrategyHandler(repo strategyStore, hub *events.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload StrategyPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if msg := payload.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		strategy := &model.Strategy{
			UserID:      user.ID,
			Title:       payload.Title,
			Description: payload.Description,
			Status:      payload.Status,
			Sections:    payload.tree(),
		}
		if strategy.Status == "" {
			strategy.Status = model.StrategyStatusDraft
		}

		if err := repo.Create(r.Context(), strategy); err != nil {
			logger.WithError(err).Error("failed to create strategy")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		hub.Publish(events.Event{Type: events.TypeStrategiesChanged, UserID: user.ID})

		writeJSON(w, http.StatusCreated, strategy)
	}
}

// GetStrategyHandler returns one strategy with its full section tree.
func GetStrategyHandler(repo strategyStore) http.HandlerFunc {
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

		strategy, err := repo.FindByID(r.Context(), user.ID, id)
		if err != nil {
			logger.WithError(err).Error("failed to fetch strategy")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if strategy == nil {
			http.Error(w, "strategy not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, strategy)
	}
}

// UpdateStrategyHandler replaces a strategy's fields and tree, bumping its
// version. The checklist for the strategy resets because rule identities
// change with the tree.
func UpdateStrategyHandler(repo strategyStore, tracker *checklist.Tracker, hub *events.Hub) http.HandlerFunc {
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

		var payload StrategyPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if msg := payload.validate(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		strategy, err := repo.FindByID(r.Context(), user.ID, id)
		if err != nil {
			logger.WithError(err).Error("failed to fetch strategy for update")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if strategy == nil {
			http.Error(w, "strategy not found", http.StatusNotFound)
			return
		}

		strategy.Title = payload.Title
		strategy.Description = payload.Description
		if payload.Status != "" {
			strategy.Status = payload.Status
		}
		strategy.Sections = payload.tree()

		if err := repo.Update(r.Context(), strategy); err != nil {
			logger.WithError(err).Error("failed to update strategy")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		tracker.Reset(user.ID, strategy.ID)
		hub.Publish(events.Event{Type: events.TypeStrategiesChanged, UserID: user.ID})

		writeJSON(w, http.StatusOK, strategy)
	}
}

// DeleteStrategyHandler removes a strategy and its tree.
func DeleteStrategyHandler(repo strategyStore, tracker *checklist.Tracker, hub *events.Hub) http.HandlerFunc {
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
				http.Error(w, "strategy not found", http.StatusNotFound)
				return
			}
			logger.WithError(err).Error("failed to delete strategy")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		tracker.Reset(user.ID, id)
		hub.Publish(events.Event{Type: events.TypeStrategiesChanged, UserID: user.ID})

		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

type checklistResponse struct {
	StrategyID uint               `json:"strategy_id"`
	Checked    map[string]bool    `json:"checked"`
	Progress   checklist.Progress `json:"progress"`
}

// GetChecklistHandler reports checklist progress for a strategy. The checked
// set lives in memory only; a restart starts everyone at zero.
func GetChecklistHandler(repo strategyStore, tracker *checklist.Tracker) http.HandlerFunc {
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

		strategy, err := repo.FindByID(r.Context(), user.ID, id)
		if err != nil {
			logger.WithError(err).Error("failed to fetch strategy for checklist")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if strategy == nil {
			http.Error(w, "strategy not found", http.StatusNotFound)
			return
		}

		checked := tracker.Checked(user.ID, strategy.ID)

		writeJSON(w, http.StatusOK, checklistResponse{
			StrategyID: strategy.ID,
			Checked:    checked,
			Progress:   checklist.ComputeProgress(strategy, checked),
		})
	}
}

// ToggleChecklistHandler flips one rule checkbox and returns the recomputed
// progress. Unknown rules answer 400 so stale clients notice the tree moved.
func ToggleChecklistHandler(repo strategyStore, tracker *checklist.Tracker) http.HandlerFunc {
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

		var payload struct {
			SectionIndex int  `json:"section_index"`
			RuleID       uint `json:"rule_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		strategy, err := repo.FindByID(r.Context(), user.ID, id)
		if err != nil {
			logger.WithError(err).Error("failed to fetch strategy for checklist toggle")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if strategy == nil {
			http.Error(w, "strategy not found", http.StatusNotFound)
			return
		}

		if !ruleExists(strategy, payload.SectionIndex, payload.RuleID) {
			http.Error(w, "unknown rule", http.StatusBadRequest)
			return
		}

		tracker.Toggle(user.ID, strategy.ID, checklist.Key(payload.SectionIndex, payload.RuleID))

		checked := tracker.Checked(user.ID, strategy.ID)

		writeJSON(w, http.StatusOK, checklistResponse{
			StrategyID: strategy.ID,
			Checked:    checked,
			Progress:   checklist.ComputeProgress(strategy, checked),
		})
	}
}

// ResetChecklistHandler clears the user's checked set for a strategy.
func ResetChecklistHandler(repo strategyStore, tracker *checklist.Tracker) http.HandlerFunc {
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

		strategy, err := repo.FindByID(r.Context(), user.ID, id)
		if err != nil {
			logger.WithError(err).Error("failed to fetch strategy for checklist reset")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if strategy == nil {
			http.Error(w, "strategy not found", http.StatusNotFound)
			return
		}

		tracker.Reset(user.ID, strategy.ID)

		writeJSON(w, http.StatusOK, checklistResponse{
			StrategyID: strategy.ID,
			Checked:    map[string]bool{},
			Progress:   checklist.ComputeProgress(strategy, nil),
		})
	}
}

func ruleExists(strategy *model.Strategy, sectionIndex int, ruleID uint) bool {
	if sectionIndex < 0 || sectionIndex >= len(strategy.Sections) {
		return false
	}
	for _, rule := range strategy.Sections[sectionIndex].Rules {
		if rule.ID == ruleID {
			return true
		}
	}
	return false
}

// DefaultListStrategiesHandler wires the handler to the production repository implementation.
func DefaultListStrategiesHandler() http.HandlerFunc {
	return ListStrategiesHandler(repository.NewStrategyRepository(), repository.NewPreferencesRepository())
}

// DefaultCreateStrategyHandler wires the handler to the production repository implementation.
func DefaultCreateStrategyHandler(hub *events.Hub) http.HandlerFunc {
	return CreateStrategyHandler(repository.NewStrategyRepository(), hub)
}

// DefaultGetStrategyHandler wires the handler to the production repository implementation.
func DefaultGetStrategyHandler() http.HandlerFunc {
	return GetStrategyHandler(repository.NewStrategyRepository())
}

// DefaultUpdateStrategyHandler wires the handler to the production repository implementation.
func DefaultUpdateStrategyHandler(tracker *checklist.Tracker, hub *events.Hub) http.HandlerFunc {
	return UpdateStrategyHandler(repository.NewStrategyRepository(), tracker, hub)
}

// DefaultDeleteStrategyHandler wires the handler to the production repository implementation.
func DefaultDeleteStrategyHandler(tracker *checklist.Tracker, hub *events.Hub) http.HandlerFunc {
	return DeleteStrategyHandler(repository.NewStrategyRepository(), tracker, hub)
}

// DefaultGetChecklistHandler wires the handler to the production repository implementation.
func DefaultGetChecklistHandler(tracker *checklist.Tracker) http.HandlerFunc {
	return GetChecklistHandler(repository.NewStrategyRepository(), tracker)
}

// DefaultToggleChecklistHandler wires the handler to the production repository implementation.
func DefaultToggleChecklistHandler(tracker *checklist.Tracker) http.HandlerFunc {
	return ToggleChecklistHandler(repository.NewStrategyRepository(), tracker)
}

// DefaultResetChecklistHandler wires the handler to the production repository implementation.
func DefaultResetChecklistHandler(tracker *checklist.Tracker) http.HandlerFunc {
	return ResetChecklistHandler(repository.NewStrategyRepository(), tracker)
}
