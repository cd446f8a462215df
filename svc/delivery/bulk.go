package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/async"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/logger"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/validator"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

const (
	DefaultWaveSize  = 10
	DefaultWavePause = time.Second

	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100

	TestUserID   = "test-user"
	TestFullName = "Test User"
)

// BulkResult is the outcome of one envelope of a bulk send.
type BulkResult struct {
	Index          int    `json:"index"`
	NotificationID string `json:"notificationId,omitempty"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	ErrorType      string `json:"errorType,omitempty"`
}

// SendBulk processes envs in waves of at most the configured size. Each wave
// runs concurrently and is joined before the pause that precedes the next
// one. When ctx ends between waves, the remaining envelopes are reported as
// failed without being attempted.
func (s *Service) SendBulk(ctx context.Context, envs []notification.Envelope) []BulkResult {
	results := make([]BulkResult, 0, len(envs))
	for start := 0; start < len(envs); start += s.waveSize {
		if start > 0 && !sleep(ctx, s.wavePause) {
			for i := start; i < len(envs); i++ {
				results = append(results, BulkResult{Index: i, Error: ctx.Err().Error(), ErrorType: string(notification.ErrorProcessingFailed)})
			}
			break
		}

		end := min(start+s.waveSize, len(envs))
		wave := async.Map(ctx, envs[start:end], s.Process)
		for i, r := range wave {
			res := BulkResult{Index: start + i, NotificationID: r.Value, Success: r.Err == nil}
			if r.Err != nil {
				res.Error = r.Err.Error()
				res.ErrorType = string(notification.KindOf(r.Err))
			}
			results = append(results, res)
		}
		s.logger.InfoContext(ctx, "bulk wave processed",
			logger.BatchSize(end-start),
			"wave_start", start,
		)
	}
	return results
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// SendTest sends a WELCOME notification to addr on behalf of the test user.
func (s *Service) SendTest(ctx context.Context, addr string) (string, error) {
	if err := validator.Apply(validator.ValidEmail("userEmail", addr)); err != nil {
		return "", &notification.DeliveryError{
			Kind: notification.ErrorValidation,
			Err:  fmt.Errorf("%w: %w", ErrInvalidRecipient, err),
		}
	}
	return s.Process(ctx, notification.Envelope{
		Type:      notification.TypeWelcome,
		UserEmail: addr,
		UserID:    TestUserID,
		CreatedAt: s.now(),
		Payload:   notification.WelcomeData{FullName: TestFullName},
	})
}

// History returns the newest records of userID. A non-positive limit means
// DefaultHistoryLimit and larger limits are capped at MaxHistoryLimit.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]notification.Record, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	records, err := s.store.History(ctx, userID, limit)
	if err != nil {
		return nil, &notification.DeliveryError{Kind: notification.ErrorStore, Err: err}
	}
	return records, nil
}
