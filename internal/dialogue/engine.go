package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/meeting_agent/internal/extract"
	"github.com/omriShneor/meeting_agent/internal/session"
	"github.com/omriShneor/meeting_agent/internal/timeutil"
)

const DefaultDurationMinutes = 60

// EventSpec is everything needed to create a calendar event
type EventSpec struct {
	Title           string    `json:"title"`
	Person          string    `json:"person"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	Timezone        string    `json:"timezone"`
	EventRef        string    `json:"event_ref,omitempty"`
}

// End returns the event end time
func (e EventSpec) End() time.Time {
	return e.Start.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// TurnResult is the outcome of one user message
type TurnResult struct {
	Reply      string
	Stage      session.Stage
	FinalEvent *EventSpec
}

// CalendarGateway creates the event once the user confirms. The returned
// reference (usually a link) may be empty.
type CalendarGateway interface {
	CreateEvent(ctx context.Context, ev EventSpec) (string, error)
}

// BookingRecorder persists completed bookings
type BookingRecorder interface {
	RecordBooking(ctx context.Context, userID string, ev EventSpec) error
}

// Notifier announces completed bookings
type Notifier interface {
	NotifyBooking(ctx context.Context, userID string, ev EventSpec) error
}

// Config holds engine settings
type Config struct {
	DurationMinutes int
	Timezone        string
	AllowPastDates  bool
}

// Option configures optional Engine collaborators
type Option func(*Engine)

// WithRecorder stores every successful booking
func WithRecorder(r BookingRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithNotifier announces every successful booking. It may be given more than once.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifiers = append(e.notifiers, n)
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the wall clock, for tests
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine drives the per-user conversation from first message to booked event
type Engine struct {
	store     *session.Store
	extractor extract.Extractor
	dates     *timeutil.Parser
	gateway   CalendarGateway
	recorder  BookingRecorder
	notifiers []Notifier
	logger    *zap.Logger
	now       func() time.Time

	cfg Config
	loc *time.Location
}

// NewEngine creates an Engine. An unknown timezone falls back to UTC.
func NewEngine(store *session.Store, extractor extract.Extractor, dates *timeutil.Parser, gateway CalendarGateway, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		extractor: extractor,
		dates:     dates,
		gateway:   gateway,
		logger:    zap.NewNop(),
		now:       time.Now,
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.cfg.DurationMinutes <= 0 {
		e.cfg.DurationMinutes = DefaultDurationMinutes
	}
	loc, fallback := timeutil.ResolveLocation(e.cfg.Timezone)
	if fallback && e.cfg.Timezone != "" {
		e.logger.Warn("unknown timezone, using UTC", zap.String("timezone", e.cfg.Timezone))
	}
	e.loc = loc
	e.cfg.Timezone = loc.String()

	return e
}

// HandleTurn processes one message from userID and returns the reply to show.
// Turns for the same user are serialized.
func (e *Engine) HandleTurn(ctx context.Context, userID, text string) (*TurnResult, error) {
	userID = strings.TrimSpace(userID)
	text = strings.TrimSpace(text)
	if userID == "" || text == "" {
		return nil, ErrInvalidInput
	}

	unlock := e.store.Lock(userID)
	defer unlock()

	_, existed := e.store.Get(userID)
	st := e.store.GetOrCreate(userID)
	now := e.now().In(e.loc)

	if st.Stage == session.StageConfirm {
		return e.handleConfirmation(ctx, st, text), nil
	}

	snapshot := st.Clone()

	if !absorbDirected(st, text) {
		res := e.extractor.Extract(ctx, text, now)
		if !res.Success {
			if existed {
				st.Restore(snapshot)
			} else {
				e.store.Delete(userID)
			}
			e.logger.Warn("extraction failed",
				zap.String("user_id", userID),
				zap.String("reason", res.ErrorMessage),
			)
			return nil, &ExtractionError{Reason: res.ErrorMessage, RawReply: res.RawReply, Err: res.Err}
		}
		applyExtraction(st, res)
	}

	outcome := resolveDate(st, e.dates, now, e.cfg.AllowPastDates)
	reply := nextPrompt(st, outcome, e.loc)
	e.store.Touch(st)

	e.logger.Debug("turn handled",
		zap.String("user_id", userID),
		zap.String("stage", st.Stage.String()),
	)

	return &TurnResult{Reply: reply, Stage: st.Stage}, nil
}

// Reset discards any conversation for userID
func (e *Engine) Reset(userID string) {
	unlock := e.store.Lock(userID)
	defer unlock()
	e.store.Delete(userID)
}

// Snapshot returns a copy of the current state for userID
func (e *Engine) Snapshot(userID string) (*session.State, bool) {
	unlock := e.store.Lock(userID)
	defer unlock()

	st, ok := e.store.Get(userID)
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

func (e *Engine) handleConfirmation(ctx context.Context, st *session.State, text string) *TurnResult {
	switch classifyConfirmation(text) {
	case confirmYes:
		return e.book(ctx, st)
	case confirmNo:
		e.store.Delete(st.UserID)
		e.logger.Info("booking cancelled by user", zap.String("user_id", st.UserID))
		return &TurnResult{Reply: msgCancelled, Stage: session.StageInit}
	default:
		e.store.Touch(st)
		return &TurnResult{Reply: confirmationPrompt(st, e.loc), Stage: session.StageConfirm}
	}
}

// book creates the event. The session is discarded whether or not the gateway succeeds.
func (e *Engine) book(ctx context.Context, st *session.State) *TurnResult {
	ev := EventSpec{
		Title:           *st.Title,
		Person:          *st.Person,
		Start:           *st.ResolvedDateTime,
		DurationMinutes: e.cfg.DurationMinutes,
		Timezone:        e.cfg.Timezone,
	}

	ref, err := e.gateway.CreateEvent(ctx, ev)
	e.store.Delete(st.UserID)
	if err != nil {
		e.logger.Error("failed to create calendar event",
			zap.String("user_id", st.UserID),
			zap.Error(err),
		)
		return &TurnResult{Reply: bookingFailedMessage(err), Stage: session.StageInit}
	}

	ev.EventRef = ref
	st.Stage = session.StageDone

	e.logger.Info("meeting booked",
		zap.String("user_id", st.UserID),
		zap.String("title", ev.Title),
		zap.Time("start", ev.Start),
		zap.String("event_ref", ref),
	)

	if e.recorder != nil {
		if err := e.recorder.RecordBooking(ctx, st.UserID, ev); err != nil {
			e.logger.Warn("failed to record booking", zap.String("user_id", st.UserID), zap.Error(err))
		}
	}
	for _, n := range e.notifiers {
		if err := n.NotifyBooking(ctx, st.UserID, ev); err != nil {
			e.logger.Warn("failed to send booking notification", zap.String("user_id", st.UserID), zap.Error(err))
		}
	}

	return &TurnResult{Reply: bookedMessage(ev, e.loc), Stage: session.StageDone, FinalEvent: &ev}
}

// String implements fmt.Stringer for log output
func (e EventSpec) String() string {
	return fmt.Sprintf("%s with %s at %s", e.Title, e.Person, e.Start.Format(time.RFC3339))
}
