package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"therapy-agent/internal/emotion"
	"therapy-agent/internal/llm"
	"therapy-agent/pkg"
)

// Mode is the chat context the clinician is conversing in.
type Mode string

const (
	// ModeUnset means no context has been chosen yet; sends are rejected.
	ModeUnset Mode = "unset"
	// ModeHistorical spans all of the patient's sessions.
	ModeHistorical Mode = "historical"
	// ModeSessionScoped restricts the conversation to an explicitly
	// selected subset of sessions.
	ModeSessionScoped Mode = "session"
)

var (
	// ErrNoContext is returned when a message is sent before a chat
	// context has been selected.
	ErrNoContext = errors.New("no chat context selected")
	// ErrEmptyMessage is returned for blank or whitespace-only message
	// text, before any payload or network work.
	ErrEmptyMessage = errors.New("message text is empty")
	// ErrEmptySelection is returned when sending in session-scoped mode
	// with no sessions selected.
	ErrEmptySelection = errors.New("select at least one session")
	// ErrUnknownSession is returned when a toggled id does not belong to
	// the patient.
	ErrUnknownSession = errors.New("unknown session")
	// ErrConversationSwitched is returned when the chat context changed
	// while a send was waiting on the agent.  The reply belongs to the
	// old conversation and is dropped; the new conversation's log is
	// left untouched.
	ErrConversationSwitched = errors.New("conversation switched before the reply arrived")
)

// SessionDataSource supplies parsed emotion data for a patient's sessions.
// *RecordSource satisfies it.
type SessionDataSource interface {
	PatientSessions(ctx context.Context, patientID int) ([]emotion.SessionData, error)
}

// Controller drives one patient's agent conversation.  It owns the chat
// context state (mode plus session selection), the aggregated emotion
// context derived from it, and the append-only message log.  All mutable
// state lives behind one mutex: a selection toggle recomputes the
// aggregate to completion before returning, so a send can never observe a
// half-updated selection.
type Controller struct {
	mu      sync.Mutex
	patient int
	source  SessionDataSource
	agent   llm.Client
	log     *zap.Logger

	mode           Mode
	selection      map[int]bool
	aggregate      emotion.Aggregated
	conversationID uuid.UUID
	messages       []pkg.ChatMessage
}

// NewController constructs a controller for one patient in the unset mode.
func NewController(patientID int, source SessionDataSource, agent llm.Client, log *zap.Logger) *Controller {
	return &Controller{
		patient:   patientID,
		source:    source,
		agent:     agent,
		log:       log,
		mode:      ModeUnset,
		selection: map[int]bool{},
		aggregate: emotion.Aggregate(nil),
	}
}

// SelectHistorical switches to the historical context: the aggregate is
// recomputed over all of the patient's sessions, any prior session
// selection is discarded, and the conversation restarts with a fresh
// welcome log.  On a fetch error no state changes.
func (c *Controller) SelectHistorical(ctx context.Context) error {
	sessions, err := c.source.PatientSessions(ctx, c.patient)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = ModeHistorical
	c.selection = map[int]bool{}
	c.aggregate = emotion.Aggregate(sessions)
	c.resetLog(WelcomeHistorical)
	return nil
}

// SelectSessionScoped switches to the session-scoped context with an empty
// selection and a fresh welcome log.  The caller then opens its session
// picker and toggles ids via ToggleSession.
func (c *Controller) SelectSessionScoped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = ModeSessionScoped
	c.selection = map[int]bool{}
	c.aggregate = emotion.Aggregate(nil)
	c.resetLog(WelcomeSessionScoped)
}

// ToggleSession flips one session's membership in the selection and
// synchronously recomputes the aggregate over the selected sessions.
// Toggling the same id twice restores both the selection and the
// aggregate.  Only valid in session-scoped mode.
func (c *Controller) ToggleSession(ctx context.Context, sessionID int) error {
	c.mu.Lock()
	mode := c.mode
	c.mu.Unlock()
	if mode != ModeSessionScoped {
		return fmt.Errorf("toggle session in %s mode: %w", mode, ErrNoContext)
	}

	sessions, err := c.source.PatientSessions(ctx, c.patient)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// The mode may have changed while the fetch ran without the lock; a
	// selection must never survive into the historical context.
	if c.mode != ModeSessionScoped {
		return fmt.Errorf("toggle session in %s mode: %w", c.mode, ErrNoContext)
	}
	if c.selection[sessionID] {
		delete(c.selection, sessionID)
	} else {
		known := false
		for _, s := range sessions {
			if s.ID == sessionID {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("session %d: %w", sessionID, ErrUnknownSession)
		}
		c.selection[sessionID] = true
	}
	c.aggregate = emotion.Aggregate(c.selected(sessions))
	return nil
}

// SendMessage validates the pending text, hands the current emotion
// context to the agent, and appends the clinician's message plus the
// agent's reply to the log.  On any failure the log is untouched and the
// error is retryable: the caller keeps the typed text and may resend.
func (c *Controller) SendMessage(ctx context.Context, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}

	c.mu.Lock()
	conversation := c.conversationID
	req, err := c.buildRequest(ctx, trimmed)
	c.mu.Unlock()
	if err != nil {
		return "", err
	}

	reply, err := c.agent.Recommend(ctx, req)
	if err != nil {
		c.log.Warn("agent unavailable", zap.Int("patient_id", c.patient), zap.Error(err))
		return "", fmt.Errorf("agent: %w", err)
	}

	now := time.Now().UTC()
	c.mu.Lock()
	defer c.mu.Unlock()
	// A context switch while the agent was thinking started a fresh
	// conversation; the two logs are independent and never merged, so a
	// late reply to the old one is dropped.
	if c.conversationID != conversation {
		c.log.Info("dropping reply for switched conversation", zap.Int("patient_id", c.patient))
		return "", ErrConversationSwitched
	}
	c.messages = append(c.messages,
		pkg.ChatMessage{Role: pkg.RoleUser, Content: trimmed, Timestamp: now},
		pkg.ChatMessage{Role: pkg.RoleAgent, Content: reply, Timestamp: now},
	)
	return reply, nil
}

// buildRequest constructs the outbound payload for the current state.
// Caller holds the mutex.
func (c *Controller) buildRequest(ctx context.Context, text string) (llm.AgentRequest, error) {
	switch c.mode {
	case ModeHistorical:
		return llm.AgentRequest{
			Message:   text,
			PatientID: c.patient,
			SessionEmotions: map[string]llm.EmotionPayload{
				llm.HistoricalBucket: {Timeline: c.aggregate.Timeline, Summary: c.aggregate.Summary},
			},
		}, nil
	case ModeSessionScoped:
		if len(c.selection) == 0 {
			return llm.AgentRequest{}, ErrEmptySelection
		}
		sessions, err := c.source.PatientSessions(ctx, c.patient)
		if err != nil {
			return llm.AgentRequest{}, fmt.Errorf("load sessions: %w", err)
		}
		req := llm.AgentRequest{
			Message:         text,
			PatientID:       c.patient,
			SessionIDs:      c.selectedIDs(),
			SessionEmotions: map[string]llm.EmotionPayload{},
		}
		for _, s := range c.selected(sessions) {
			req.SessionEmotions[strconv.Itoa(s.ID)] = llm.EmotionPayload{
				Timeline: s.Timeline,
				Summary:  s.Summary,
			}
		}
		return req, nil
	default:
		return llm.AgentRequest{}, ErrNoContext
	}
}

// Mode reports the current chat context.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Selection returns the selected session ids in ascending order.
func (c *Controller) Selection() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedIDs()
}

// Messages returns a copy of the conversation log.
func (c *Controller) Messages() []pkg.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]pkg.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Context returns the current aggregated emotion context.
func (c *Controller) Context() emotion.Aggregated {
	c.mu.Lock()
	defer c.mu.Unlock()
	return emotion.Aggregated{
		Timeline: copyTimeline(c.aggregate.Timeline),
		Summary:  copySummary(c.aggregate.Summary),
	}
}

// ConversationID identifies the current conversation; it changes on every
// context switch.
func (c *Controller) ConversationID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// resetLog starts a fresh conversation with a single welcome message.
// Caller holds the mutex.
func (c *Controller) resetLog(welcome string) {
	c.conversationID = uuid.New()
	c.messages = []pkg.ChatMessage{{
		Role:      pkg.RoleAgent,
		Content:   welcome,
		Timestamp: time.Now().UTC(),
	}}
}

// selected filters sessions down to the current selection, preserving the
// source order.  Caller holds the mutex.
func (c *Controller) selected(sessions []emotion.SessionData) []emotion.SessionData {
	out := make([]emotion.SessionData, 0, len(c.selection))
	for _, s := range sessions {
		if c.selection[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

// selectedIDs returns the selection in ascending order.  Caller holds the
// mutex.
func (c *Controller) selectedIDs() []int {
	ids := make([]int, 0, len(c.selection))
	for id := range c.selection {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func copyTimeline(t emotion.Timeline) emotion.Timeline {
	out := emotion.Timeline{}
	for sec, label := range t {
		out[sec] = label
	}
	return out
}

func copySummary(s emotion.Summary) emotion.Summary {
	out := emotion.Summary{}
	for label, count := range s {
		out[label] = count
	}
	return out
}
