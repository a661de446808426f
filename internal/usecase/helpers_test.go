package usecase

import (
	"context"
	"errors"
	"sync"

	"RegimeWatch/internal/domain/models"
)

type fakeMetrics struct {
	mu     sync.Mutex
	events map[string]int
	errors map[string]int
	alerts map[string]int
	regime models.Regime
	last   models.Metrics
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{events: map[string]int{}, errors: map[string]int{}, alerts: map[string]int{}}
}

func (f *fakeMetrics) RecordEvent(kind string) {
	f.mu.Lock()
	f.events[kind]++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	f.errors[kind]++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordReconnect(string) {}
func (f *fakeMetrics) RecordQueueDepth(int)   {}

func (f *fakeMetrics) RecordRegime(_ string, r models.Regime) {
	f.mu.Lock()
	f.regime = r
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordMetrics(_ string, m models.Metrics) {
	f.mu.Lock()
	f.last = m
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordAlert(channel, result string) {
	f.mu.Lock()
	f.alerts[channel+"/"+result]++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordLatency(string, float64) {}

func (f *fakeMetrics) count(m map[string]int, k string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return m[k]
}

type fakeNotifier struct {
	name  string
	fails int

	mu    sync.Mutex
	calls int
	sent  []string
}

func (n *fakeNotifier) Name() string { return n.name }

func (n *fakeNotifier) SendAlert(_ context.Context, regime string, _ models.Metrics) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.calls <= n.fails {
		return errors.New("channel unavailable")
	}
	n.sent = append(n.sent, regime)
	return nil
}

func (n *fakeNotifier) snapshot() (int, []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls, append([]string(nil), n.sent...)
}

type memStore struct {
	mu    sync.Mutex
	saved []models.Snapshot
	err   error
}

func (s *memStore) Save(_ context.Context, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, snap)
	return nil
}

func (s *memStore) Latest(context.Context) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return models.Snapshot{}, errors.New("empty")
	}
	return s.saved[len(s.saved)-1], nil
}

type recordingSink struct {
	mu  sync.Mutex
	got []models.Transition
}

func (r *recordingSink) Enqueue(tr models.Transition) bool {
	r.mu.Lock()
	r.got = append(r.got, tr)
	r.mu.Unlock()
	return true
}
