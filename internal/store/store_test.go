package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"OilPulse/internal/domain/models"
	"OilPulse/internal/domain/repository"
	"OilPulse/pkg/logger"
	"OilPulse/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	next  func() (*repository.Artifacts, error)
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(context.Context) (*repository.Artifacts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.next()
}

func artifacts(prices ...float64) *repository.Artifacts {
	a := &repository.Artifacts{
		Changepoint: models.ChangepointResult{
			ChangePointDate: models.NewDate(2020, time.January, 3),
			PriceBefore:     50,
			PriceAfter:      52,
		},
		Events: []models.Event{{Date: models.NewDate(2020, time.January, 2), EventType: "OPEC_Decision"}},
	}
	for i, p := range prices {
		a.Prices = append(a.Prices, models.PriceObservation{Date: models.NewDate(2020, time.January, i+1), Price: p})
	}
	return a
}

func newStore(src repository.ArtifactSource) *Store {
	return New(src, metrics.Nop{}, logger.Nop())
}

func TestCurrentBeforeLoadIsUnavailable(t *testing.T) {
	s := newStore(&fakeSource{next: func() (*repository.Artifacts, error) { return artifacts(1), nil }})
	_, err := s.Current()
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestLoadIsIdempotent(t *testing.T) {
	src := &fakeSource{next: func() (*repository.Artifacts, error) { return artifacts(50, 51), nil }}
	s := newStore(src)

	first, err := s.Load(context.Background())
	require.NoError(t, err)
	second, err := s.Load(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, uint64(1), first.Generation)
	assert.Equal(t, "fake", first.Source)
}

func TestReloadFailureKeepsPreviousSnapshot(t *testing.T) {
	fail := false
	src := &fakeSource{next: func() (*repository.Artifacts, error) {
		if fail {
			return nil, errors.New("disk gone")
		}
		return artifacts(50, 51), nil
	}}
	s := newStore(src)

	prev, err := s.Load(context.Background())
	require.NoError(t, err)

	fail = true
	_, err = s.Reload(context.Background())
	require.Error(t, err)

	cur, err := s.Current()
	require.NoError(t, err)
	assert.Same(t, prev, cur)
}

func TestReloadRejectsInvalidArtifacts(t *testing.T) {
	src := &fakeSource{next: func() (*repository.Artifacts, error) { return artifacts(50, -1), nil }}
	s := newStore(src)

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
	_, err = s.Current()
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestReloadInstallsNewGenerationAndNotifies(t *testing.T) {
	price := 50.0
	src := &fakeSource{next: func() (*repository.Artifacts, error) {
		price++
		return artifacts(price), nil
	}}
	s := newStore(src)

	var seen []uint64
	s.Subscribe(func(snap *Snapshot) { seen = append(seen, snap.Generation) })

	_, err := s.Load(context.Background())
	require.NoError(t, err)
	snap, err := s.Reload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(2), snap.Generation)
	assert.Equal(t, 52.0, snap.Prices[0].Price)
	assert.Equal(t, []uint64{1, 2}, seen)
}

func TestConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	n := 0
	src := &fakeSource{next: func() (*repository.Artifacts, error) {
		n++
		a := artifacts()
		// every price in generation g equals g
		for i := 0; i < 50; i++ {
			a.Prices = append(a.Prices, models.PriceObservation{
				Date:  models.NewDate(2020, time.January, 1).AddDays(i),
				Price: float64(n),
			})
		}
		return a, nil
	}}
	s := newStore(src)
	_, err := s.Load(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				snap, err := s.Current()
				if !assert.NoError(t, err) {
					return
				}
				want := snap.Prices[0].Price
				for _, p := range snap.Prices {
					if p.Price != want {
						t.Errorf("mixed snapshot: %v vs %v", p.Price, want)
						return
					}
				}
				assert.Equal(t, float64(snap.Generation), want)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		_, err := s.Reload(context.Background())
		require.NoError(t, err)
	}
	cancel()
	wg.Wait()
}
