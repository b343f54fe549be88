package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultPageSize = 20

// ListResponse is the envelope of every list endpoint. Clients consume
// results plus the authoritative count/total_pages.
type ListResponse struct {
	Results    interface{} `json:"results"`
	Count      int64       `json:"count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// isNotFound unwraps the repository's 404 signal.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

// urlID parses the {id} route parameter.
func urlID(r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// pagination parses page/pageSize query params. A zero defaultSize falls
// back to the package default. Invalid values are an error, absent values
// use the defaults.
func pagination(r *http.Request, defaultSize int) (page, pageSize int, ok bool) {
	if defaultSize <= 0 {
		defaultSize = defaultPageSize
	}

	page = 1
	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		parsed, err := strconv.Atoi(pageParam)
		if err != nil || parsed <= 0 {
			return 0, 0, false
		}
		page = parsed
	}

	pageSize = defaultSize
	if sizeParam := r.URL.Query().Get("pageSize"); sizeParam != "" {
		parsed, err := strconv.Atoi(sizeParam)
		if err != nil || parsed <= 0 {
			return 0, 0, false
		}
		pageSize = parsed
	}

	return page, pageSize, true
}
