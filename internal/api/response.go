// Package api is the HTTP edge: chi routes, the JSON envelope, bearer
// authentication, and the single place where service errors become statuses.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/oakward/identity/internal/pagination"
)

// envelope is the uniform response shape.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// listData is the payload shape for paginated collections.
type listData struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"total_pages"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: true, Message: message})
}

func respondList(w http.ResponseWriter, items any, total int64, page pagination.Params) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: listData{
		Data:       items,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages(total),
	}})
}

// pageParams reads page/limit query parameters and clamps them. Garbage
// values fall back to the defaults rather than erroring.
func pageParams(r *http.Request) pagination.Params {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return pagination.Normalize(page, limit)
}
