package ingress

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/errorstats"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

// Response renders itself to an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON renders v with the given status.
func JSON(status int, v any) Response {
	return jsonResponse{status: status, body: v}
}

// ErrorBody is the shape of every failed API response.
type ErrorBody struct {
	Success   bool                   `json:"success"`
	Error     string                 `json:"error"`
	ErrorType notification.ErrorType `json:"errorType,omitempty"`
	Details   []string               `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// SendBody is returned by the synchronous and queue send endpoints.
type SendBody struct {
	Success        bool   `json:"success"`
	NotificationID string `json:"notificationId"`
	Message        string `json:"message"`
	Timestamp      string `json:"timestamp"`
}

type BulkBody struct {
	Success    bool         `json:"success"`
	Total      int          `json:"total"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Results    []BulkResult `json:"results"`
	Timestamp  string       `json:"timestamp"`
}

// BulkResult is one entry of a bulk response, indexed by its position in
// the request.
type BulkResult struct {
	Index          int                    `json:"index"`
	NotificationID string                 `json:"notificationId,omitempty"`
	Success        bool                   `json:"success"`
	ErrorType      notification.ErrorType `json:"errorType,omitempty"`
	Error          string                 `json:"error,omitempty"`
	Details        []string               `json:"details,omitempty"`
}

type HistoryBody struct {
	Success       bool                  `json:"success"`
	UserID        string                `json:"userId"`
	Count         int                   `json:"count"`
	Notifications []notification.Record `json:"notifications"`
	Timestamp     string                `json:"timestamp"`
}

type StatsBody struct {
	Success   bool                `json:"success"`
	Date      string              `json:"date"`
	Total     int64               `json:"total"`
	Buckets   []errorstats.Bucket `json:"buckets"`
	Timestamp string              `json:"timestamp"`
}

func stamp(t time.Time) string {
	return notification.FormatTime(t)
}

// methodNotAllowedBody keeps the single field shape clients already parse.
type methodNotAllowedBody struct {
	Error string `json:"error"`
}
