package sink

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrSimInternal    = errors.New("500 Internal Server Error")
	ErrSimTooMany     = errors.New("429 Too Many Requests")
	ErrSimSlowDown    = errors.New("503 SlowDown")
	ErrUnknownProfile = errors.New("sink: unknown sim profile")
)

// Sim latency profiles.
const (
	ProfileFast   = "fast"   // 10-50ms
	ProfileMedium = "medium" // 100-300ms
	ProfileSlow   = "slow"   // 1-2s
	ProfileSpike  = "spike"  // usually 20ms, 5% take 2s
	ProfileError  = "error"  // fast, 20% 500 and 20% 429
)

type SimConfig struct {
	Profile string `mapstructure:"profile"`
	// MaxInflight rejects writes with 503 SlowDown while more than this
	// many are in flight. 0 disables throttling.
	MaxInflight int `mapstructure:"max_inflight"`
	// TimeScale multiplies every simulated latency; 0 means 1.
	TimeScale float64 `mapstructure:"time_scale"`
	Seed      int64   `mapstructure:"seed"`
}

// Sim is an in-memory backend that simulates latency, throttling and
// random failures. It records sizes, not bodies.
type Sim struct {
	cfg      SimConfig
	inflight atomic.Int64

	rngMu sync.Mutex
	rng   *rand.Rand

	mu      sync.RWMutex
	objects map[string]objectMeta
}

func NewSim(cfg SimConfig) (*Sim, error) {
	if cfg.Profile == "" {
		cfg.Profile = ProfileFast
	}
	switch cfg.Profile {
	case ProfileFast, ProfileMedium, ProfileSlow, ProfileSpike, ProfileError:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, cfg.Profile)
	}
	if cfg.TimeScale <= 0 {
		cfg.TimeScale = 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sim{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		objects: make(map[string]objectMeta),
	}, nil
}

func (s *Sim) Name() string { return "sim" }

// Inflight reports writes currently being simulated.
func (s *Sim) Inflight() int64 { return s.inflight.Load() }

func (s *Sim) Put(ctx context.Context, key string, body []byte) error {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)

	if s.cfg.MaxInflight > 0 && n > int64(s.cfg.MaxInflight) {
		_ = s.sleep(ctx, 5*time.Millisecond)
		return &OpError{Backend: "sim", Op: "put", Key: key, Err: ErrSimSlowDown}
	}

	latency, failure := s.draw()
	if err := s.sleep(ctx, latency); err != nil {
		return &OpError{Backend: "sim", Op: "put", Key: key, Err: err}
	}
	if failure != nil {
		return &OpError{Backend: "sim", Op: "put", Key: key, Err: failure}
	}

	s.mu.Lock()
	s.objects[key] = objectMeta{Size: int64(len(body)), LastModified: time.Now().UTC()}
	s.mu.Unlock()
	return nil
}

// draw picks the latency and outcome of the next write for the profile.
func (s *Sim) draw() (time.Duration, error) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	ms := func(lo, span int) time.Duration {
		return time.Duration(s.rng.Intn(span)+lo) * time.Millisecond
	}

	switch s.cfg.Profile {
	case ProfileMedium:
		return ms(100, 200), nil
	case ProfileSlow:
		return ms(1000, 1000), nil
	case ProfileSpike:
		if s.rng.Float32() < 0.05 {
			return 2 * time.Second, nil
		}
		return 20 * time.Millisecond, nil
	case ProfileError:
		d := ms(10, 40)
		switch r := s.rng.Float32(); {
		case r < 0.2:
			return d, ErrSimInternal
		case r < 0.4:
			return d, ErrSimTooMany
		}
		return d, nil
	default:
		return ms(10, 40), nil
	}
}

func (s *Sim) sleep(ctx context.Context, d time.Duration) error {
	d = time.Duration(float64(d) * s.cfg.TimeScale)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Sim) List(_ context.Context, prefix string) ([]Item, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()
	sort.Strings(keys)

	var folders, files []Item
	seen := make(map[string]bool)
	for _, key := range keys {
		rest := key[len(prefix):]
		if i := strings.Index(rest, "/"); i >= 0 {
			folder := prefix + rest[:i+1]
			if !seen[folder] {
				seen[folder] = true
				folders = append(folders, Item{Key: folder, Type: TypeFolder})
			}
			continue
		}
		s.mu.RLock()
		m, ok := s.objects[key]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		modified := m.LastModified
		files = append(files, Item{Key: key, Size: m.Size, LastModified: &modified, Type: TypeFile})
	}
	return append(folders, files...), nil
}

func (s *Sim) DeletePrefix(_ context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, ErrEmptyPrefix
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			delete(s.objects, k)
			n++
		}
	}
	return n, nil
}

func (s *Sim) Close() error { return nil }
