package db

import (
	"context"
	"database/sql"
	"strconv"
)

// Notifier wraps the NOTIFY mechanism in PostgreSQL.  A notification is
// sent on the configured channel whenever a newly analyzed session is
// stored, so dashboards watching a patient can refresh without polling.
type Notifier struct {
	DB      *sql.DB
	Channel string
}

// NewNotifier constructs a new Notifier.  The channel should match the
// NOTIFY_CHANNEL environment variable.
func NewNotifier(db *sql.DB, channel string) *Notifier {
	return &Notifier{DB: db, Channel: channel}
}

// SessionAnalyzed announces a freshly stored session on the channel.  The
// payload is the session id.
func (n *Notifier) SessionAnalyzed(ctx context.Context, sessionID int) error {
	_, err := n.DB.ExecContext(ctx,
		"SELECT pg_notify($1, $2)", n.Channel, strconv.Itoa(sessionID))
	return err
}
