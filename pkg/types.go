package pkg

import "time"

// Patient is a person under care at the clinic.  Observations hold
// free-text clinical context supplied when the patient is registered.
type Patient struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Observations *string   `json:"observations,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents one analyzed therapy recording.  Results is the raw
// serialized emotion record produced by the recognition pipeline; it is
// written once when the recording is analyzed and never updated.  Only the
// clinician observation is mutable.
type Session struct {
	ID          int       `json:"id"`
	PatientID   int       `json:"patient_id"`
	Date        time.Time `json:"date"`
	Results     string    `json:"results"`
	Observation *string   `json:"observation,omitempty"`
}

// Note is a free-form clinician note attached to a patient, independent of
// any session.
type Note struct {
	ID        int       `json:"id"`
	PatientID int       `json:"patient_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRole describes who authored a chat message.  There are only two
// roles: the clinician and the agent.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleAgent ChatRole = "agent"
)

// ChatMessage is one entry in the append-only agent conversation log.
type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// EmotionCount pairs an emotion label with its occurrence count, the shape
// the analytics endpoints return for summaries.
type EmotionCount struct {
	Emotion string `json:"emotion"`
	Count   int    `json:"count"`
}
