package syncloop

import (
	"context"
	"errors"
	"sitecraft/models"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detailWithCode(code string) *models.ProjectDetail {
	return &models.ProjectDetail{Project: models.Project{CurrentCode: code}}
}

func TestRun_FetchesImmediately(t *testing.T) {
	var fetches atomic.Int32
	done := make(chan struct{})

	p := &Poller{
		Interval: time.Hour,
		Fetch: func(ctx context.Context) (*models.ProjectDetail, error) {
			if fetches.Add(1) == 1 {
				close(done)
			}
			return detailWithCode(""), nil
		},
	}

	err := p.Run(context.Background(), done)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetches.Load())
}

func TestRun_StopsWhenDoneCloses(t *testing.T) {
	var fetches atomic.Int32
	done := make(chan struct{})

	p := &Poller{
		Interval: 5 * time.Millisecond,
		Fetch: func(ctx context.Context) (*models.ProjectDetail, error) {
			if fetches.Add(1) == 3 {
				close(done)
			}
			return detailWithCode(""), nil
		},
	}

	finished := make(chan error, 1)
	go func() { finished <- p.Run(context.Background(), done) }()

	select {
	case err := <-finished:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after done closed")
	}

	stopped := fetches.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, fetches.Load(), "no fetches after Run returned")
	assert.GreaterOrEqual(t, stopped, int32(3))
}

func TestRun_StopWhenCode(t *testing.T) {
	tests := []struct {
		name         string
		stopWhenCode bool
		wantStop     bool
	}{
		{name: "stops once code appears", stopWhenCode: true, wantStop: true},
		{name: "keeps polling without the flag", stopWhenCode: false, wantStop: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fetches atomic.Int32
			var updates []string

			p := &Poller{
				Interval:     5 * time.Millisecond,
				StopWhenCode: tt.stopWhenCode,
				Fetch: func(ctx context.Context) (*models.ProjectDetail, error) {
					if fetches.Add(1) >= 2 {
						return detailWithCode("<html></html>"), nil
					}
					return detailWithCode(""), nil
				},
				OnUpdate: func(d *models.ProjectDetail) { updates = append(updates, d.CurrentCode) },
			}

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			err := p.Run(ctx, nil)
			if tt.wantStop {
				require.NoError(t, err)
				assert.Equal(t, int32(2), fetches.Load())
				assert.Equal(t, []string{"", "<html></html>"}, updates)
			} else {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
				assert.Greater(t, fetches.Load(), int32(2))
			}
		})
	}
}

func TestRun_ErrorsKeepPolling(t *testing.T) {
	var fetches atomic.Int32
	var reported atomic.Int32
	done := make(chan struct{})
	boom := errors.New("connection refused")

	p := &Poller{
		Interval: 5 * time.Millisecond,
		Fetch: func(ctx context.Context) (*models.ProjectDetail, error) {
			n := fetches.Add(1)
			if n < 3 {
				return nil, boom
			}
			close(done)
			return detailWithCode(""), nil
		},
		OnError: func(err error) {
			assert.ErrorIs(t, err, boom)
			reported.Add(1)
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx, done))
	assert.Equal(t, int32(2), reported.Load())
}

func TestRun_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := &Poller{
		Interval: time.Hour,
		Fetch: func(ctx context.Context) (*models.ProjectDetail, error) {
			cancel()
			return detailWithCode(""), nil
		},
	}

	err := p.Run(ctx, make(chan struct{}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_RequiresFetch(t *testing.T) {
	p := &Poller{}
	assert.ErrorIs(t, p.Run(context.Background(), nil), ErrNoFetch)
}
