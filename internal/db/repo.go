package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"therapy-agent/pkg"
)

// ErrNotFound is returned when a patient or session does not exist.
var ErrNotFound = errors.New("not found")

// Repository wraps database operations for patients, therapy sessions and
// notes.  A single postgres database backs all three.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a new Repository from an existing sql.DB.
// The caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// CreatePatient registers a new patient.
func (r *Repository) CreatePatient(ctx context.Context, name string, age int, observations *string) (*pkg.Patient, error) {
	var p pkg.Patient
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO patients (name, age, observations)
         VALUES ($1, $2, $3)
         RETURNING id, name, age, observations, created_at`,
		name, age, observations,
	).Scan(&p.ID, &p.Name, &p.Age, &p.Observations, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPatients returns all patients ordered by name.
func (r *Repository) ListPatients(ctx context.Context) ([]pkg.Patient, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, age, observations, created_at
         FROM patients
         ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var patients []pkg.Patient
	for rows.Next() {
		var p pkg.Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Age, &p.Observations, &p.CreatedAt); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// GetPatient retrieves one patient by id.
func (r *Repository) GetPatient(ctx context.Context, patientID int) (*pkg.Patient, error) {
	var p pkg.Patient
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, age, observations, created_at
         FROM patients
         WHERE id = $1`, patientID,
	).Scan(&p.ID, &p.Name, &p.Age, &p.Observations, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("patient %d: %w", patientID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateSession stores an analyzed therapy recording for a patient.  The
// results blob is stored verbatim; parsing is the engine's concern.
func (r *Repository) CreateSession(ctx context.Context, patientID int, date time.Time, results string) (*pkg.Session, error) {
	var s pkg.Session
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO therapy_sessions (patient_id, date, results)
         VALUES ($1, $2, $3)
         RETURNING id, patient_id, date, results, observation`,
		patientID, date, results,
	).Scan(&s.ID, &s.PatientID, &s.Date, &s.Results, &s.Observation)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns a patient's therapy sessions ordered by date.
func (r *Repository) ListSessions(ctx context.Context, patientID int) ([]pkg.Session, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, patient_id, date, results, observation
         FROM therapy_sessions
         WHERE patient_id = $1
         ORDER BY date ASC, id ASC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []pkg.Session
	for rows.Next() {
		var s pkg.Session
		if err := rows.Scan(&s.ID, &s.PatientID, &s.Date, &s.Results, &s.Observation); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetSession retrieves one of a patient's sessions.
func (r *Repository) GetSession(ctx context.Context, patientID, sessionID int) (*pkg.Session, error) {
	var s pkg.Session
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, patient_id, date, results, observation
         FROM therapy_sessions
         WHERE id = $1 AND patient_id = $2`, sessionID, patientID,
	).Scan(&s.ID, &s.PatientID, &s.Date, &s.Results, &s.Observation)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %d: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSessionObservation sets the clinician observation on a session.
// The emotion data itself is never partially updated.
func (r *Repository) UpdateSessionObservation(ctx context.Context, patientID, sessionID int, text string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE therapy_sessions
         SET observation = $1
         WHERE id = $2 AND patient_id = $3`,
		text, sessionID, patientID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("session %d: %w", sessionID, ErrNotFound)
	}
	return nil
}

// CreateNote attaches a free-form note to a patient.
func (r *Repository) CreateNote(ctx context.Context, patientID int, text string) (*pkg.Note, error) {
	var n pkg.Note
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO patient_notes (patient_id, text)
         VALUES ($1, $2)
         RETURNING id, patient_id, text, created_at`,
		patientID, text,
	).Scan(&n.ID, &n.PatientID, &n.Text, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNotes returns a patient's notes ordered by creation time.
func (r *Repository) ListNotes(ctx context.Context, patientID int) ([]pkg.Note, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, patient_id, text, created_at
         FROM patient_notes
         WHERE patient_id = $1
         ORDER BY created_at ASC, id ASC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notes []pkg.Note
	for rows.Next() {
		var n pkg.Note
		if err := rows.Scan(&n.ID, &n.PatientID, &n.Text, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
