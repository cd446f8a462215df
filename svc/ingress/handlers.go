package ingress

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/logger"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/requestid"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/errorstats"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/schema"
)

const (
	messageSent   = "Notification sent successfully"
	messageQueued = "Notification queued successfully"
)

func (s *Server) send(r *http.Request) Response {
	body, err := s.readBody(r)
	if err != nil {
		return s.failure(r, err)
	}
	id, err := s.adapter.Handle(r.Context(), body)
	if err != nil {
		return s.failure(r, err)
	}
	return JSON(http.StatusOK, SendBody{
		Success:        true,
		NotificationID: id,
		Message:        messageSent,
		Timestamp:      stamp(s.now()),
	})
}

// enqueue stamps id and createdAt when absent and hands the body to the
// batch worker. The payload itself is validated by the worker.
func (s *Server) enqueue(r *http.Request) Response {
	if s.publisher == nil {
		return s.failure(r, ErrQueueDisabled)
	}
	body, err := s.readBody(r)
	if err != nil {
		return s.failure(r, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return s.failure(r, schema.ErrMalformed)
	}
	id := stringField(fields, "id")
	if id == "" {
		id = stringField(fields, "uuid")
	}
	if id == "" {
		id = uuid.NewString()
		fields["id"], _ = json.Marshal(id)
	}
	if stringField(fields, "createdAt") == "" {
		fields["createdAt"], _ = json.Marshal(stamp(s.now()))
	}
	value, err := json.Marshal(fields)
	if err != nil {
		return s.failure(r, err)
	}

	headers := map[string]string{}
	if rid := requestid.FromContext(r.Context()); rid != "" {
		headers["x-request-id"] = rid
	}
	if err := s.publisher.Publish(r.Context(), id, value, headers); err != nil {
		return s.failure(r, err)
	}
	s.logger.InfoContext(r.Context(), "notification queued", logger.NotificationID(id))
	return JSON(http.StatusOK, SendBody{
		Success:        true,
		NotificationID: id,
		Message:        messageQueued,
		Timestamp:      stamp(s.now()),
	})
}

type bulkRequest struct {
	Notifications []json.RawMessage `json:"notifications"`
}

// bulk validates every envelope first. Only valid ones are sent; invalid
// ones are reported at their request index.
func (s *Server) bulk(r *http.Request) Response {
	body, err := s.readBody(r)
	if err != nil {
		return s.failure(r, err)
	}
	var req bulkRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return s.failure(r, schema.ErrMalformed)
	}
	if len(req.Notifications) == 0 {
		return s.failure(r, ErrEmptyBatch)
	}
	if len(req.Notifications) > MaxBulkItems {
		return s.failure(r, ErrTooManyItems)
	}

	results := make([]BulkResult, len(req.Notifications))
	envs := make([]notification.Envelope, 0, len(req.Notifications))
	positions := make([]int, 0, len(req.Notifications))
	for i, raw := range req.Notifications {
		env, err := schema.ValidateEnvelope(raw)
		if err != nil {
			kind, _ := Classify(err)
			results[i] = BulkResult{Index: i, ErrorType: kind, Error: err.Error(), Details: details(err)}
			continue
		}
		envs = append(envs, env)
		positions = append(positions, i)
	}

	for _, br := range s.svc.SendBulk(r.Context(), envs) {
		i := positions[br.Index]
		results[i] = BulkResult{
			Index:          i,
			NotificationID: br.NotificationID,
			Success:        br.Success,
			ErrorType:      notification.ErrorType(br.ErrorType),
			Error:          br.Error,
		}
	}

	out := BulkBody{Total: len(results), Results: results, Timestamp: stamp(s.now())}
	for _, res := range results {
		if res.Success {
			out.Successful++
		} else {
			out.Failed++
		}
	}
	out.Success = out.Failed == 0
	return JSON(http.StatusOK, out)
}

type testRequest struct {
	Email string `json:"email"`
}

func (s *Server) sendTest(r *http.Request) Response {
	body, err := s.readBody(r)
	if err != nil {
		return s.failure(r, err)
	}
	var req testRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return s.failure(r, schema.ErrMalformed)
	}
	id, err := s.svc.SendTest(r.Context(), req.Email)
	if err != nil {
		return s.failure(r, err)
	}
	return JSON(http.StatusOK, SendBody{
		Success:        true,
		NotificationID: id,
		Message:        messageSent,
		Timestamp:      stamp(s.now()),
	})
}

func (s *Server) history(r *http.Request) Response {
	userID := chi.URLParam(r, "userID")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return s.failure(r, ErrInvalidLimit)
		}
		limit = n
	}
	records, err := s.svc.History(r.Context(), userID, limit)
	if err != nil {
		return s.failure(r, err)
	}
	if records == nil {
		records = []notification.Record{}
	}
	return JSON(http.StatusOK, HistoryBody{
		Success:       true,
		UserID:        userID,
		Count:         len(records),
		Notifications: records,
		Timestamp:     stamp(s.now()),
	})
}

// errorStats serves one UTC day of rollups, today when date is omitted.
func (s *Server) errorStats(r *http.Request) Response {
	if s.stats == nil {
		return s.failure(r, ErrStatsDisabled)
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.now().UTC().Format(time.DateOnly)
	}
	buckets, err := s.stats.Day(r.Context(), date)
	if err != nil {
		return s.failure(r, err)
	}
	if buckets == nil {
		buckets = []errorstats.Bucket{}
	}
	out := StatsBody{Success: true, Date: date, Buckets: buckets, Timestamp: stamp(s.now())}
	for _, b := range buckets {
		out.Total += b.Count
	}
	return JSON(http.StatusOK, out)
}

func (s *Server) readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrBodyTooLarge
		}
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}
	return body, nil
}

// failure maps err to its HTTP status. Client errors carry a fixed message;
// everything else is logged and answered with 500.
func (s *Server) failure(r *http.Request, err error) Response {
	out := ErrorBody{Error: err.Error(), Timestamp: stamp(s.now())}
	status := http.StatusBadRequest

	switch {
	case errors.Is(err, ErrEmptyBody):
		out.Error = "Request body is required"
	case errors.Is(err, ErrBodyTooLarge):
		status = http.StatusRequestEntityTooLarge
		out.Error = "Request body is too large"
	case errors.Is(err, schema.ErrMalformed):
		out.Error = "Invalid JSON in request body"
		out.ErrorType = notification.ErrorParse
	case errors.Is(err, schema.ErrInvalid):
		out.Error = "Validation failed"
		out.ErrorType = notification.ErrorValidation
		out.Details = details(err)
	case errors.Is(err, ErrQueueDisabled), errors.Is(err, ErrStatsDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrTooManyItems),
		errors.Is(err, ErrInvalidLimit), errors.Is(err, errorstats.ErrInvalidDate):
	case notification.KindOf(err) == notification.ErrorValidation:
		out.ErrorType = notification.ErrorValidation
	default:
		status = http.StatusInternalServerError
		var de *notification.DeliveryError
		if errors.As(err, &de) {
			out.ErrorType = de.Kind
		}
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	return JSON(status, out)
}

func details(err error) []string {
	if se, ok := schema.AsError(err); ok {
		return se.Messages()
	}
	return nil
}

func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok {
		return ""
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v
}
