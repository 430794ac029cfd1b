// Package store holds the loaded analysis artifacts as an immutable snapshot.
//
// Readers take the current *Snapshot with one atomic load and never lock. A reload
// builds a complete new snapshot off to the side and installs it with a single
// pointer swap, so a reader sees either the old artifacts or the new ones, never a mix.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"OilPulse/internal/domain/models"
	"OilPulse/internal/domain/repository"
	"OilPulse/pkg/logger"
)

// Snapshot is one validated, read-only generation of the artifacts.
type Snapshot struct {
	Generation  uint64
	LoadedAt    time.Time
	Source      string
	Prices      []models.PriceObservation
	Events      []models.Event
	Changepoint models.ChangepointResult
}

// Listener is notified after a new snapshot is installed.
type Listener func(*Snapshot)

// Store owns the current snapshot.
type Store struct {
	source  repository.ArtifactSource
	metrics repository.Metrics
	log     *logger.Logger

	current atomic.Pointer[Snapshot]
	reload  sync.Mutex
	gen     uint64

	subMu     sync.RWMutex
	listeners []Listener
}

// New creates an empty store reading from source.
func New(source repository.ArtifactSource, metrics repository.Metrics, log *logger.Logger) *Store {
	return &Store{
		source:  source,
		metrics: metrics,
		log:     log.With(logger.String("component", "store")),
	}
}

// Current returns the installed snapshot, or ErrDataUnavailable before the first
// successful load.
func (s *Store) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, fmt.Errorf("%w: artifacts have not been loaded", models.ErrDataUnavailable)
	}
	return snap, nil
}

// Load returns the installed snapshot, loading it first if nothing is installed yet.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}
	s.reload.Lock()
	defer s.reload.Unlock()
	// another caller may have finished while we waited
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}
	return s.reloadLocked(ctx)
}

// Reload re-reads every artifact and installs the result. On failure the previous
// snapshot stays in place and the error is returned.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.reload.Lock()
	defer s.reload.Unlock()
	return s.reloadLocked(ctx)
}

// Subscribe registers fn for every future installation.
func (s *Store) Subscribe(fn Listener) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) reloadLocked(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	name := s.source.Name()

	artifacts, err := s.source.Fetch(ctx)
	if err == nil {
		err = artifacts.Normalize()
	}
	elapsed := time.Since(start)
	s.metrics.RecordLoad(name, err == nil, elapsed.Seconds())
	if err != nil {
		if !errors.Is(err, models.ErrDataUnavailable) {
			err = fmt.Errorf("%w: %v", models.ErrDataUnavailable, err)
		}
		s.metrics.RecordError("snapshot_load")
		s.log.Error("Snapshot load failed",
			logger.String("source", name),
			logger.Duration("elapsed_ms", elapsed),
			logger.Bool("serving_previous", s.current.Load() != nil),
			logger.Error(err),
		)
		return nil, err
	}

	s.gen++
	snap := &Snapshot{
		Generation:  s.gen,
		LoadedAt:    time.Now().UTC(),
		Source:      name,
		Prices:      artifacts.Prices,
		Events:      artifacts.Events,
		Changepoint: artifacts.Changepoint,
	}
	s.current.Store(snap)

	s.metrics.RecordSnapshot(snap.Generation, len(snap.Prices), len(snap.Events))
	s.log.Info("Snapshot installed",
		logger.Uint64("generation", snap.Generation),
		logger.String("source", name),
		logger.Int("prices", len(snap.Prices)),
		logger.Int("events", len(snap.Events)),
		logger.String("change_point_date", snap.Changepoint.ChangePointDate.String()),
		logger.Duration("elapsed_ms", elapsed),
	)

	s.subMu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.subMu.RUnlock()
	for _, fn := range listeners {
		fn(snap)
	}
	return snap, nil
}
