package render

import (
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/papercomputeco/thoughtwire/pkg/logger"
	"github.com/papercomputeco/thoughtwire/pkg/sse"
)

// DefaultWindow is the default coalescing window for narration fragments.
const DefaultWindow = 300 * time.Millisecond

// Segment is one committed unit of the visible transcript.
type Segment struct {
	// Type is the event type that produced the segment.
	Type string

	// Text is the transformed, display-ready text.
	Text string

	// Final is set when the event that produced the segment was final.
	Final bool
}

// Surface receives committed segments in order. Commit is called with the
// scheduler's lock held and must not call back into the Scheduler.
type Surface interface {
	Commit(seg Segment)
}

// SurfaceFunc adapts a function to a Surface.
type SurfaceFunc func(seg Segment)

// Commit calls f(seg).
func (f SurfaceFunc) Commit(seg Segment) { f(seg) }

// Timer is a pending one-shot action.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Stats counts scheduler activity for one stream.
type Stats struct {
	Events     int
	Suppressed int
	Commits    int
	TimerFires int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithProfile sets the device profile. ProfileAuto is treated as verbose;
// resolve it with DetectProfile first.
func WithProfile(p Profile) Option {
	return func(s *Scheduler) {
		if p == ProfileCompact {
			s.profile = ProfileCompact
		} else {
			s.profile = ProfileVerbose
		}
	}
}

// WithWindow sets the coalescing window.
func WithWindow(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithPolicies replaces the policy table.
func WithPolicies(p Policies) Option {
	return func(s *Scheduler) {
		s.policies = p
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithAfterFunc overrides time.AfterFunc.
func WithAfterFunc(f AfterFunc) Option {
	return func(s *Scheduler) {
		s.afterFunc = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// Scheduler throttles transcript updates for one stream. Narration fragments
// are buffered and committed at sentence boundaries or once the coalescing
// window has passed since the last commit; every other shown type is
// committed immediately, after any buffered narration so order is kept.
//
// Scheduler implements sse.Sink. Create one per stream and call End when the
// stream finishes, however it finishes.
type Scheduler struct {
	mu sync.Mutex

	surface   Surface
	policies  Policies
	profile   Profile
	window    time.Duration
	now       func() time.Time
	afterFunc AfterFunc
	logger    *slog.Logger

	pending     strings.Builder
	pendingType string
	lastFlush   time.Time
	timer       Timer
	gen         uint64
	ended       bool
	stats       Stats
}

// NewScheduler creates a Scheduler committing to surface.
func NewScheduler(surface Surface, opts ...Option) *Scheduler {
	s := &Scheduler{
		surface:   surface,
		policies:  DefaultPolicies,
		profile:   ProfileVerbose,
		window:    DefaultWindow,
		now:       time.Now,
		afterFunc: stdAfterFunc,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Event routes ev according to its policy. Events after End are ignored.
func (s *Scheduler) Event(ev sse.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return nil
	}
	s.stats.Events++

	pol := s.policies.Lookup(ev.Type)
	if !pol.Visible(s.profile) {
		s.stats.Suppressed++
		return nil
	}

	if pol.Flush == FlushCoalesce {
		s.coalesceLocked(ev.Type, ev.Message)
		return nil
	}

	s.flushLocked()
	s.commitLocked(Segment{Type: ev.Type, Text: pol.Apply(ev.Message), Final: ev.Final})
	return nil
}

// End forces a final flush of buffered narration and cancels any pending
// timer. It is safe to call more than once.
func (s *Scheduler) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return
	}
	s.flushLocked()
	s.ended = true
}

// Stats returns the scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Pending returns the buffered, not yet committed narration.
func (s *Scheduler) Pending() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.String()
}

func (s *Scheduler) coalesceLocked(eventType, fragment string) {
	if s.pending.Len() > 0 && s.pendingType != eventType {
		s.flushLocked()
	}
	s.pendingType = eventType
	s.pending.WriteString(fragment)

	since := s.now().Sub(s.lastFlush)
	if endsSentence(fragment) || since >= s.window {
		s.flushLocked()
		return
	}

	// One-shot deferred flush, replaced by every new fragment.
	s.stopTimerLocked()
	s.gen++
	gen := s.gen
	s.timer = s.afterFunc(s.window-since, func() {
		s.fire(gen)
	})
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer fragment, a flush or End replaced this timer.
	if gen != s.gen || s.ended {
		return
	}
	s.timer = nil
	s.stats.TimerFires++
	s.flushLocked()
}

func (s *Scheduler) flushLocked() {
	s.stopTimerLocked()
	s.gen++

	if s.pending.Len() == 0 {
		return
	}

	text := s.pending.String()
	s.pending.Reset()
	s.lastFlush = s.now()

	pol := s.policies.Lookup(s.pendingType)
	s.commitLocked(Segment{Type: s.pendingType, Text: pol.Apply(text)})
}

func (s *Scheduler) commitLocked(seg Segment) {
	s.stats.Commits++
	s.logger.Debug("committing segment", "type", seg.Type, "bytes", len(seg.Text))
	s.surface.Commit(seg)
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// endsSentence reports whether fragment ends in sentence-terminal
// punctuation, ignoring trailing whitespace and closing quotes.
func endsSentence(fragment string) bool {
	trimmed := strings.TrimRightFunc(fragment, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '\'' || r == ')' || r == '”' || r == '’'
	})
	if trimmed == "" {
		return false
	}

	switch r := []rune(trimmed); r[len(r)-1] {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	default:
		return false
	}
}
