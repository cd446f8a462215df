package errorstats_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/errorstats"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/store"
)

type mockRollup struct {
	mock.Mock
}

func (m *mockRollup) AppendStatistic(ctx context.Context, stat notification.ErrorStatistic) error {
	return m.Called(ctx, stat).Error(0)
}

var now = time.Date(2025, 6, 1, 17, 4, 0, 0, time.UTC)

func TestSink(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stat := notification.NewErrorStatistic(notification.ErrorParse, "", now)

	t.Run("fans statistics out", func(t *testing.T) {
		t.Parallel()
		primary := store.NewMemoryStore()
		r1, r2 := &mockRollup{}, &mockRollup{}
		r1.On("AppendStatistic", ctx, stat).Return(nil).Once()
		r2.On("AppendStatistic", ctx, stat).Return(nil).Once()

		sink := errorstats.NewSink(primary, nil, r1, r2)
		require.NoError(t, sink.AppendStatistic(ctx, stat))

		assert.Len(t, primary.Statistics(), 1)
		r1.AssertExpectations(t)
		r2.AssertExpectations(t)
	})

	t.Run("rollup failure alone is swallowed", func(t *testing.T) {
		t.Parallel()
		primary := store.NewMemoryStore()
		r := &mockRollup{}
		r.On("AppendStatistic", ctx, stat).Return(errors.New("redis down")).Once()

		sink := errorstats.NewSink(primary, nil, r)
		assert.NoError(t, sink.AppendStatistic(ctx, stat))
		assert.Len(t, primary.Statistics(), 1)
	})

	t.Run("error records go to the primary only", func(t *testing.T) {
		t.Parallel()
		primary := store.NewMemoryStore()
		r := &mockRollup{}

		sink := errorstats.NewSink(primary, nil, r)
		rec := notification.NewErrorRecord(notification.ErrorParse, notification.SourceDeadLetter, now)
		require.NoError(t, sink.AppendError(ctx, rec))

		assert.Len(t, primary.Errors(), 1)
		r.AssertNotCalled(t, "AppendStatistic", mock.Anything, mock.Anything)
	})
}
