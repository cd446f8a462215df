package errorstats

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/logger"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/store"
)

// StatisticSink accepts error statistics.
type StatisticSink interface {
	AppendStatistic(ctx context.Context, stat notification.ErrorStatistic) error
}

// Sink writes error records to a primary store.ErrorSink and statistics to
// the primary plus every rollup. A rollup failure is logged and never hides
// a successful primary write.
type Sink struct {
	primary store.ErrorSink
	rollups []StatisticSink
	logger  *slog.Logger
}

func NewSink(primary store.ErrorSink, log *slog.Logger, rollups ...StatisticSink) *Sink {
	if log == nil {
		log = slog.Default()
	}
	return &Sink{
		primary: primary,
		rollups: rollups,
		logger:  log.With(logger.Component("errorstats")),
	}
}

func (s *Sink) AppendError(ctx context.Context, rec notification.ErrorRecord) error {
	return s.primary.AppendError(ctx, rec)
}

func (s *Sink) AppendStatistic(ctx context.Context, stat notification.ErrorStatistic) error {
	err := s.primary.AppendStatistic(ctx, stat)
	for _, r := range s.rollups {
		if rerr := r.AppendStatistic(ctx, stat); rerr != nil {
			s.logger.WarnContext(ctx, "error statistic rollup failed",
				logger.ErrorType(stat.ErrorType),
				logger.Error(rerr),
			)
			if err != nil {
				err = errors.Join(err, rerr)
			}
		}
	}
	return err
}

var _ store.ErrorSink = (*Sink)(nil)
