package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/workbridge/workbridge-server/internal/store"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInvalidMessage is returned when an appended message is missing
// required fields or carries an unknown kind.
var ErrInvalidMessage = errors.New("invalid message")

const schema = `
CREATE TABLE IF NOT EXISTS clients (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	gender        TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS freelancers (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	country       TEXT NOT NULL DEFAULT '',
	bio           TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	sender_id     TEXT NOT NULL,
	receiver_id   TEXT NOT NULL,
	sender_kind   TEXT NOT NULL CHECK (sender_kind IN ('Client', 'Freelancer')),
	receiver_kind TEXT NOT NULL CHECK (receiver_kind IN ('Client', 'Freelancer')),
	body          TEXT NOT NULL,
	kind          TEXT NOT NULL DEFAULT 'message' CHECK (kind IN ('message', 'request')),
	created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages (sender_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages (receiver_id, created_at);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function
// after the schema is applied. Useful for tests to seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}

	if setup != nil {
		if err := setup(s.db); err != nil {
			s.db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== MessageStore implementation ====

// AppendMessage persists a message, assigning the server id and timestamp.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *store.Message) (*store.Message, error) {
	kind := msg.Kind
	if kind == "" {
		kind = store.MessageKindMessage
	}
	if err := validateMessage(msg, kind); err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC()

	query := `
		INSERT INTO messages (sender_id, receiver_id, sender_kind, receiver_kind, body, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		msg.SenderID, msg.ReceiverID, msg.SenderKind, msg.ReceiverKind, msg.Body, kind, createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	saved := *msg
	saved.ID = id
	saved.Kind = kind
	saved.CreatedAt = createdAt
	return &saved, nil
}

func validateMessage(msg *store.Message, kind store.MessageKind) error {
	switch {
	case msg.SenderID == "":
		return fmt.Errorf("%w: sender id is empty", ErrInvalidMessage)
	case msg.ReceiverID == "":
		return fmt.Errorf("%w: receiver id is empty", ErrInvalidMessage)
	case msg.SenderID == msg.ReceiverID:
		return fmt.Errorf("%w: sender and receiver are the same", ErrInvalidMessage)
	case !msg.SenderKind.Valid():
		return fmt.Errorf("%w: unknown sender kind %q", ErrInvalidMessage, msg.SenderKind)
	case !msg.ReceiverKind.Valid():
		return fmt.Errorf("%w: unknown receiver kind %q", ErrInvalidMessage, msg.ReceiverKind)
	case msg.Body == "":
		return fmt.Errorf("%w: body is empty", ErrInvalidMessage)
	case kind != store.MessageKindMessage && kind != store.MessageKindRequest:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, kind)
	}
	return nil
}

// ListConversation returns all messages between the two users in either
// direction, ascending by creation time.
func (s *SQLiteStore) ListConversation(ctx context.Context, userA, userB string) ([]*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, sender_kind, receiver_kind, body, kind, created_at
		FROM messages
		WHERE (sender_id = ?1 AND receiver_id = ?2)
		   OR (sender_id = ?2 AND receiver_id = ?1)
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListChatPartners returns the latest message per distinct partner for the
// given user, newest conversation first. Timestamp ties break by id so the
// ordering is stable across repeated calls.
func (s *SQLiteStore) ListChatPartners(ctx context.Context, userID string) ([]*store.ChatPartner, error) {
	query := `
		SELECT partner_id, partner_kind, body, created_at
		FROM (
			SELECT
				CASE WHEN sender_id = ?1 THEN receiver_id ELSE sender_id END AS partner_id,
				CASE WHEN sender_id = ?1 THEN receiver_kind ELSE sender_kind END AS partner_kind,
				body,
				created_at,
				id,
				ROW_NUMBER() OVER (
					PARTITION BY CASE WHEN sender_id = ?1 THEN receiver_id ELSE sender_id END
					ORDER BY created_at DESC, id DESC
				) AS rn
			FROM messages
			WHERE sender_id = ?1 OR receiver_id = ?1
		)
		WHERE rn = 1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query chat partners: %w", err)
	}
	defer rows.Close()

	partners := make([]*store.ChatPartner, 0)
	for rows.Next() {
		var p store.ChatPartner
		if err := rows.Scan(&p.PartnerID, &p.PartnerKind, &p.LastMessage, &p.LastMessageAt); err != nil {
			return nil, fmt.Errorf("scan chat partner: %w", err)
		}
		partners = append(partners, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat partners: %w", err)
	}

	return partners, nil
}

// ListRequests returns request-kind messages addressed to the user, newest first.
func (s *SQLiteStore) ListRequests(ctx context.Context, receiverID string) ([]*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, sender_kind, receiver_kind, body, kind, created_at
		FROM messages
		WHERE receiver_id = ? AND kind = 'request'
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]*store.Message, error) {
	messages := make([]*store.Message, 0)
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(
			&m.ID,
			&m.SenderID,
			&m.ReceiverID,
			&m.SenderKind,
			&m.ReceiverKind,
			&m.Body,
			&m.Kind,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// ==== ClientStore implementation ====

// CreateClient inserts a new client account.
func (s *SQLiteStore) CreateClient(ctx context.Context, c *store.Client) (*store.Client, error) {
	query := `
		INSERT INTO clients (id, name, email, password_hash, gender, phone)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, c.ID, c.Name, c.Email, c.PasswordHash, c.Gender, c.Phone)
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}

	return s.GetClientByID(ctx, c.ID)
}

// GetClientByID retrieves a client by id.
func (s *SQLiteStore) GetClientByID(ctx context.Context, id string) (*store.Client, error) {
	query := `
		SELECT id, name, email, password_hash, gender, phone, created_at
		FROM clients
		WHERE id = ?
	`
	return s.scanClient(s.db.QueryRowContext(ctx, query, id))
}

// GetClientByEmail retrieves a client by email.
func (s *SQLiteStore) GetClientByEmail(ctx context.Context, email string) (*store.Client, error) {
	query := `
		SELECT id, name, email, password_hash, gender, phone, created_at
		FROM clients
		WHERE email = ?
	`
	return s.scanClient(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteStore) scanClient(row *sql.Row) (*store.Client, error) {
	var c store.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Gender, &c.Phone, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("query client: %w", err)
	}

	return &c, nil
}

// ==== FreelancerStore implementation ====

// CreateFreelancer inserts a new freelancer account.
func (s *SQLiteStore) CreateFreelancer(ctx context.Context, f *store.Freelancer) (*store.Freelancer, error) {
	query := `
		INSERT INTO freelancers (id, name, username, email, password_hash, country, bio)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, f.ID, f.Name, f.Username, f.Email, f.PasswordHash, f.Country, f.Bio)
	if err != nil {
		return nil, fmt.Errorf("insert freelancer: %w", err)
	}

	return s.GetFreelancerByID(ctx, f.ID)
}

// GetFreelancerByID retrieves a freelancer by id.
func (s *SQLiteStore) GetFreelancerByID(ctx context.Context, id string) (*store.Freelancer, error) {
	query := `
		SELECT id, name, username, email, password_hash, country, bio, created_at
		FROM freelancers
		WHERE id = ?
	`
	return s.scanFreelancer(s.db.QueryRowContext(ctx, query, id))
}

// GetFreelancerByEmail retrieves a freelancer by email.
func (s *SQLiteStore) GetFreelancerByEmail(ctx context.Context, email string) (*store.Freelancer, error) {
	query := `
		SELECT id, name, username, email, password_hash, country, bio, created_at
		FROM freelancers
		WHERE email = ?
	`
	return s.scanFreelancer(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteStore) scanFreelancer(row *sql.Row) (*store.Freelancer, error) {
	var f store.Freelancer
	err := row.Scan(&f.ID, &f.Name, &f.Username, &f.Email, &f.PasswordHash, &f.Country, &f.Bio, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("freelancer: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("query freelancer: %w", err)
	}

	return &f, nil
}
