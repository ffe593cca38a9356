package lifecycle

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/BettaJiayi/pixverse-webui/internal/domain"
	"github.com/BettaJiayi/pixverse-webui/internal/history"
	"github.com/BettaJiayi/pixverse-webui/internal/infra"
)

// Gateway is the external generation service as seen by the lifecycle core:
// one call to create a job, one to query its coarse status.
type Gateway interface {
	Submit(ctx context.Context, spec domain.JobSpec) (string, error)
	Status(ctx context.Context, id string) (domain.StatusResult, error)
}

// Outcome describes how a poll session ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"

	// OutcomeTimeout means the tick budget ran out; the stored status is
	// left as it was for a later manual re-check.
	OutcomeTimeout Outcome = "timeout"
)

// Hooks let a presentation layer observe state changes. All callbacks are
// optional and run synchronously on the polling goroutine; they must not call
// back into the Manager.
type Hooks struct {
	OnStatus   func(id string, res domain.StatusResult)
	OnProgress func(estimate float64)
	OnEnd      func(id string, outcome Outcome)
	OnError    func(id string, err error)
}

// Options tunes the poll schedule. Zero values fall back to the production
// defaults: a 4 second interval, a 90 tick budget (about six minutes) and an
// 800 ms progress step.
type Options struct {
	PollInterval     time.Duration
	MaxTicks         int
	ProgressInterval time.Duration
	Hooks            Hooks
}

// session is one active polling run. At most one exists per Manager.
type session struct {
	jobID string
	ticks int
	done  bool
	timer *repeater
}

// Manager orchestrates the job lifecycle: validate and submit, register the
// running record, then drive the single poll session until a terminal status
// or the tick budget ends it. Every submission form routes through here.
type Manager struct {
	gateway  Gateway
	store    *history.Store
	logger   infra.Logger
	interval time.Duration
	maxTicks int
	hooks    Hooks
	animator *Animator

	mu     sync.Mutex
	active *session
}

// NewManager wires the lifecycle core together.
func NewManager(gateway Gateway, store *history.Store, logger infra.Logger, opts Options) *Manager {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 4 * time.Second
	}
	if opts.MaxTicks <= 0 {
		opts.MaxTicks = 90
	}
	m := &Manager{
		gateway:  gateway,
		store:    store,
		logger:   logger,
		interval: opts.PollInterval,
		maxTicks: opts.MaxTicks,
		hooks:    opts.Hooks,
	}
	m.animator = NewAnimator(opts.ProgressInterval, opts.Hooks.OnProgress)
	return m
}

// Submit validates the job inputs, delegates to the gateway, registers a running
// record and starts polling the new job. Validation failures and upstream
// errors abort the flow without touching the store.
func (m *Manager) Submit(ctx context.Context, spec domain.JobSpec) (string, error) {
	spec.Type = domain.NormalizeType(spec.Type)
	if err := spec.Validate(); err != nil {
		return "", err
	}
	id, err := m.gateway.Submit(ctx, spec)
	if err != nil {
		return "", err
	}
	m.store.Upsert(domain.JobRecord{
		ID:         id,
		Type:       spec.Type,
		Prompt:     spec.Prompt,
		Style:      spec.Style,
		Seed:       spec.Seed,
		CreatedAt:  time.Now(),
		LastStatus: domain.StatusRunning,
	})
	m.logger.Info().Str("video_id", id).Str("type", string(spec.Type)).Msg("lifecycle: job submitted")
	return id, m.Track(id)
}

// Track starts a poll session for the given job, replacing any session that
// is already live. The first status query fires immediately, the rest on the
// configured interval.
func (m *Manager) Track(id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrEmptyJobID
	}

	m.mu.Lock()
	if prev := m.active; prev != nil {
		prev.done = true
		prev.timer.Stop()
		prev.timer = nil
	}
	s := &session{jobID: id}
	m.active = s
	m.mu.Unlock()

	m.animator.Reset()
	m.tick(s)

	m.mu.Lock()
	if m.active == s && !s.done {
		s.timer = startRepeater(m.interval, func() { m.tick(s) })
	}
	m.mu.Unlock()
	return nil
}

// Stop tears down the active session, if any. The history store keeps the
// job's last known status.
func (m *Manager) Stop() {
	m.mu.Lock()
	if s := m.active; s != nil {
		s.done = true
		s.timer.Stop()
		s.timer = nil
		m.active = nil
	}
	m.mu.Unlock()
	m.animator.Reset()
}

// Active returns the id of the job currently being polled.
func (m *Manager) Active() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return "", false
	}
	return m.active.jobID, true
}

// Progress returns the cosmetic estimate of the active session.
func (m *Manager) Progress() float64 {
	return m.animator.Estimate()
}

// tick performs one status query for the session. The session pointer is
// re-checked after the network call returns so a stale in-flight response
// from a replaced session never mutates shared state.
func (m *Manager) tick(s *session) {
	m.mu.Lock()
	if m.active != s || s.done {
		m.mu.Unlock()
		return
	}
	s.ticks++
	if s.ticks > m.maxTicks {
		s.done = true
		timer := s.timer
		s.timer = nil
		m.mu.Unlock()

		timer.Stop()
		m.animator.Halt()
		m.logger.Warn().Str("video_id", s.jobID).Int("ticks", m.maxTicks).Msg("lifecycle: poll budget exhausted")
		if m.hooks.OnEnd != nil {
			m.hooks.OnEnd(s.jobID, OutcomeTimeout)
		}
		return
	}
	id := s.jobID
	m.mu.Unlock()

	res, err := m.gateway.Status(context.Background(), id)

	m.mu.Lock()
	if m.active != s || s.done {
		// The session moved on while the query was in flight.
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.mu.Unlock()
		// Transient: keep the schedule, keep the stored status.
		m.animator.Reset()
		m.logger.Warn().Err(err).Str("video_id", id).Msg("lifecycle: status query failed")
		if m.hooks.OnError != nil {
			m.hooks.OnError(id, err)
		}
		return
	}
	var stopped *repeater
	terminal := res.Code.Terminal()
	if terminal {
		s.done = true
		stopped = s.timer
		s.timer = nil
	}
	m.mu.Unlock()

	if res.Code == domain.StatusUnknown {
		// Unmapped code: tick-local unknown, nothing stored.
		m.animator.Reset()
		if m.hooks.OnStatus != nil {
			m.hooks.OnStatus(id, res)
		}
		return
	}

	m.store.Upsert(domain.JobRecord{
		ID:         id,
		LastStatus: res.Code,
		URL:        res.URL,
		Seed:       res.Seed,
	})
	if m.hooks.OnStatus != nil {
		m.hooks.OnStatus(id, res)
	}

	switch {
	case terminal:
		stopped.Stop()
		m.animator.Finish()
		m.logger.Info().Str("video_id", id).Str("status", res.Code.Label()).Msg("lifecycle: job finished")
		if m.hooks.OnEnd != nil {
			m.hooks.OnEnd(id, outcomeFor(res.Code))
		}
	case res.Code == domain.StatusRunning:
		m.animator.EnterRunning()
	}
}

func outcomeFor(code domain.StatusCode) Outcome {
	switch code {
	case domain.StatusCompleted:
		return OutcomeCompleted
	case domain.StatusRejected:
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}
