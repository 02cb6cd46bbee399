package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"therapy-agent/internal/core"
	"therapy-agent/internal/db"
	"therapy-agent/internal/emotion"
	"therapy-agent/pkg"
)

// Store is the subset of the repository the handlers need.  *db.Repository
// satisfies it.
type Store interface {
	CreatePatient(ctx context.Context, name string, age int, observations *string) (*pkg.Patient, error)
	ListPatients(ctx context.Context) ([]pkg.Patient, error)
	GetPatient(ctx context.Context, patientID int) (*pkg.Patient, error)
	CreateSession(ctx context.Context, patientID int, date time.Time, results string) (*pkg.Session, error)
	ListSessions(ctx context.Context, patientID int) ([]pkg.Session, error)
	GetSession(ctx context.Context, patientID, sessionID int) (*pkg.Session, error)
	UpdateSessionObservation(ctx context.Context, patientID, sessionID int, text string) error
	CreateNote(ctx context.Context, patientID int, text string) (*pkg.Note, error)
	ListNotes(ctx context.Context, patientID int) ([]pkg.Note, error)
}

// SessionNotifier announces newly stored sessions.  *db.Notifier satisfies
// it.
type SessionNotifier interface {
	SessionAnalyzed(ctx context.Context, sessionID int) error
}

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be passed to http.ListenAndServe.
type Server struct {
	Repo     Store
	Source   core.SessionDataSource
	Chat     *core.ChatService
	Notifier SessionNotifier
	Log      *zap.Logger
}

// NewServer constructs a Server.
func NewServer(repo Store, source core.SessionDataSource, chat *core.ChatService, notifier SessionNotifier, log *zap.Logger) *Server {
	return &Server{Repo: repo, Source: source, Chat: chat, Notifier: notifier, Log: log}
}

// ServeHTTP dispatches incoming requests based on the URL path.  Minimal
// routing logic is implemented here to keep dependencies light.  Every
// route lives under /api/patients.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "api" || parts[1] != "patients" {
		http.NotFound(w, r)
		return
	}
	rest := parts[2:]

	// /api/patients
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodPost:
			s.handleCreatePatient(w, r)
		case http.MethodGet:
			s.handleListPatients(w, r)
		default:
			http.NotFound(w, r)
		}
		return
	}

	patientID, err := strconv.Atoi(rest[0])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	rest = rest[1:]

	switch {
	// /api/patients/{id}
	case len(rest) == 0 && r.Method == http.MethodGet:
		s.handleGetPatient(w, r, patientID)

	// /api/patients/{id}/sessions
	case len(rest) == 1 && rest[0] == "sessions" && r.Method == http.MethodPost:
		s.handleCreateSession(w, r, patientID)
	case len(rest) == 1 && rest[0] == "sessions" && r.Method == http.MethodGet:
		s.handleListSessions(w, r, patientID)

	// /api/patients/{id}/sessions/{sid} and .../observation
	case len(rest) >= 2 && rest[0] == "sessions":
		sessionID, err := strconv.Atoi(rest[1])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		switch {
		case len(rest) == 2 && r.Method == http.MethodGet:
			s.handleSessionDetail(w, r, patientID, sessionID)
		case len(rest) == 3 && rest[2] == "observation" && r.Method == http.MethodPut:
			s.handleUpdateObservation(w, r, patientID, sessionID)
		default:
			http.NotFound(w, r)
		}

	// /api/patients/{id}/notes
	case len(rest) == 1 && rest[0] == "notes" && r.Method == http.MethodPost:
		s.handleCreateNote(w, r, patientID)
	case len(rest) == 1 && rest[0] == "notes" && r.Method == http.MethodGet:
		s.handleListNotes(w, r, patientID)

	// /api/patients/{id}/analytics/...
	case len(rest) == 2 && rest[0] == "analytics" && rest[1] == "summary" && r.Method == http.MethodGet:
		s.handleAnalyticsSummary(w, r, patientID)
	case len(rest) == 2 && rest[0] == "analytics" && rest[1] == "by-session" && r.Method == http.MethodGet:
		s.handleAnalyticsBySession(w, r, patientID)

	// /api/patients/{id}/agent/...
	case len(rest) == 2 && rest[0] == "agent" && rest[1] == "context" && r.Method == http.MethodPost:
		s.handleAgentContext(w, r, patientID)
	case len(rest) == 4 && rest[0] == "agent" && rest[1] == "sessions" && rest[3] == "toggle" && r.Method == http.MethodPost:
		sessionID, err := strconv.Atoi(rest[2])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		s.handleAgentToggle(w, r, patientID, sessionID)
	case len(rest) == 2 && rest[0] == "agent" && rest[1] == "chat" && r.Method == http.MethodPost:
		s.handleAgentSend(w, r, patientID)
	case len(rest) == 2 && rest[0] == "agent" && rest[1] == "chat" && r.Method == http.MethodGet:
		s.handleAgentHistory(w, r, patientID)

	default:
		http.NotFound(w, r)
	}
}

// handleCreatePatient registers a patient from a JSON body.
func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name         string  `json:"name"`
		Age          int     `json:"age"`
		Observations *string `json:"observations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Name) == "" || body.Age < 0 {
		s.writeError(w, http.StatusBadRequest, "name is required and age must be non-negative")
		return
	}
	patient, err := s.Repo.CreatePatient(r.Context(), body.Name, body.Age, body.Observations)
	if err != nil {
		s.serverError(w, "create patient", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, patient)
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.Repo.ListPatients(r.Context())
	if err != nil {
		s.serverError(w, "list patients", err)
		return
	}
	if patients == nil {
		patients = []pkg.Patient{}
	}
	s.writeJSON(w, http.StatusOK, patients)
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request, patientID int) {
	patient, err := s.Repo.GetPatient(r.Context(), patientID)
	if errors.Is(err, db.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "patient not found")
		return
	}
	if err != nil {
		s.serverError(w, "get patient", err)
		return
	}
	s.writeJSON(w, http.StatusOK, patient)
}

// handleCreateSession stores an analyzed recording's results blob and
// notifies listeners.  The blob is persisted verbatim, even when it is not
// valid JSON: parsing stays lenient and read-side.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request, patientID int) {
	var body struct {
		Date    *time.Time `json:"date"`
		Results string     `json:"results"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Results) == "" {
		s.writeError(w, http.StatusBadRequest, "results is required")
		return
	}
	date := time.Now().UTC()
	if body.Date != nil {
		date = *body.Date
	}
	session, err := s.Repo.CreateSession(r.Context(), patientID, date, body.Results)
	if err != nil {
		s.serverError(w, "create session", err)
		return
	}
	if err := s.Notifier.SessionAnalyzed(r.Context(), session.ID); err != nil {
		s.Log.Warn("session notify failed", zap.Int("session_id", session.ID), zap.Error(err))
	}
	s.writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request, patientID int) {
	sessions, err := s.Repo.ListSessions(r.Context(), patientID)
	if err != nil {
		s.serverError(w, "list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []pkg.Session{}
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

// handleSessionDetail returns one session together with its parsed record,
// display segments and per-emotion classifications.
func (s *Server) handleSessionDetail(w http.ResponseWriter, r *http.Request, patientID, sessionID int) {
	session, err := s.Repo.GetSession(r.Context(), patientID, sessionID)
	if errors.Is(err, db.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.serverError(w, "get session", err)
		return
	}
	record := emotion.ParseRecord(session.Results)
	classifications := map[string]emotion.Classification{}
	for label := range record.Summary {
		classifications[label] = emotion.Classify(label)
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":         session,
		"record":          record,
		"segments":        emotion.SegmentTimeline(record.Timeline),
		"classifications": classifications,
	})
}

func (s *Server) handleUpdateObservation(w http.ResponseWriter, r *http.Request, patientID, sessionID int) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.Repo.UpdateSessionObservation(r.Context(), patientID, sessionID, body.Text)
	if errors.Is(err, db.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.serverError(w, "update observation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request, patientID int) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	note, err := s.Repo.CreateNote(r.Context(), patientID, body.Text)
	if err != nil {
		s.serverError(w, "create note", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, note)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request, patientID int) {
	notes, err := s.Repo.ListNotes(r.Context(), patientID)
	if err != nil {
		s.serverError(w, "list notes", err)
		return
	}
	if notes == nil {
		notes = []pkg.Note{}
	}
	s.writeJSON(w, http.StatusOK, notes)
}

// handleAnalyticsSummary returns the combined emotion counts across all of
// a patient's sessions.
func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request, patientID int) {
	data, err := s.Source.PatientSessions(r.Context(), patientID)
	if err != nil {
		s.serverError(w, "load emotion data", err)
		return
	}
	agg := emotion.Aggregate(data)
	s.writeJSON(w, http.StatusOK, sortedCounts(agg.Summary))
}

// handleAnalyticsBySession returns each session's own emotion counts keyed
// by session id, with the session date for labelling.
func (s *Server) handleAnalyticsBySession(w http.ResponseWriter, r *http.Request, patientID int) {
	sessions, err := s.Repo.ListSessions(r.Context(), patientID)
	if err != nil {
		s.serverError(w, "list sessions", err)
		return
	}
	data, err := s.Source.PatientSessions(r.Context(), patientID)
	if err != nil {
		s.serverError(w, "load emotion data", err)
		return
	}
	byID := map[int]emotion.SessionData{}
	for _, d := range data {
		byID[d.ID] = d
	}
	type sessionEntry struct {
		Date     time.Time          `json:"date"`
		Emotions []pkg.EmotionCount `json:"emotions"`
	}
	out := map[string]sessionEntry{}
	for _, sess := range sessions {
		out[strconv.Itoa(sess.ID)] = sessionEntry{
			Date:     sess.Date,
			Emotions: sortedCounts(byID[sess.ID].Summary),
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleAgentContext switches the patient's chat context.  Switching always
// restarts the conversation with a fresh welcome log.
func (s *Server) handleAgentContext(w http.ResponseWriter, r *http.Request, patientID int) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	controller := s.Chat.Controller(patientID)
	switch core.Mode(body.Mode) {
	case core.ModeHistorical:
		if err := controller.SelectHistorical(r.Context()); err != nil {
			s.serverError(w, "select historical context", err)
			return
		}
	case core.ModeSessionScoped:
		controller.SelectSessionScoped()
	default:
		s.writeError(w, http.StatusBadRequest, "mode must be \"historical\" or \"session\"")
		return
	}
	s.writeChatState(w, controller)
}

// handleAgentToggle flips one session in the session-scoped selection.
func (s *Server) handleAgentToggle(w http.ResponseWriter, r *http.Request, patientID, sessionID int) {
	controller := s.Chat.Controller(patientID)
	if err := controller.ToggleSession(r.Context(), sessionID); err != nil {
		switch {
		case errors.Is(err, core.ErrNoContext):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, core.ErrUnknownSession):
			s.writeError(w, http.StatusNotFound, err.Error())
		default:
			s.serverError(w, "toggle session", err)
		}
		return
	}
	s.writeChatState(w, controller)
}

// handleAgentSend forwards one clinician message to the agent.  Validation
// failures are the clinician's to fix; an unreachable agent maps to 502
// and leaves the conversation log untouched so the send can be retried.
func (s *Server) handleAgentSend(w http.ResponseWriter, r *http.Request, patientID int) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	controller := s.Chat.Controller(patientID)
	reply, err := controller.SendMessage(r.Context(), body.Message)
	switch {
	case errors.Is(err, core.ErrEmptyMessage),
		errors.Is(err, core.ErrEmptySelection),
		errors.Is(err, core.ErrNoContext):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, core.ErrConversationSwitched):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.Log.Warn("agent send failed", zap.Int("patient_id", patientID), zap.Error(err))
		s.writeError(w, http.StatusBadGateway, "agent unavailable, please retry")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"recommendations": reply})
}

func (s *Server) handleAgentHistory(w http.ResponseWriter, r *http.Request, patientID int) {
	s.writeChatState(w, s.Chat.Controller(patientID))
}

// writeChatState renders the controller's read-only view.
func (s *Server) writeChatState(w http.ResponseWriter, c *core.Controller) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"mode":              c.Mode(),
		"selected_sessions": c.Selection(),
		"conversation_id":   c.ConversationID(),
		"messages":          c.Messages(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Error("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.Log.Error(op, zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

// sortedCounts renders a summary as a stable list: highest count first,
// ties by label.
func sortedCounts(summary emotion.Summary) []pkg.EmotionCount {
	counts := make([]pkg.EmotionCount, 0, len(summary))
	for label, count := range summary {
		counts = append(counts, pkg.EmotionCount{Emotion: label, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Emotion < counts[j].Emotion
	})
	return counts
}
