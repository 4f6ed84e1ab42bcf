package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/proposalagent/backend/internal/domain"
)

const proposalSchema = `
CREATE TABLE IF NOT EXISTS proposals (
	id TEXT PRIMARY KEY,
	proposal_number TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	customer_email TEXT NOT NULL DEFAULT '',
	conversation_notes TEXT NOT NULL,
	analysis TEXT,
	line_items TEXT NOT NULL,
	subtotal INTEGER NOT NULL,
	tax INTEGER NOT NULL,
	total INTEGER NOT NULL,
	status TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	approved_at TEXT,
	rejected_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_proposals_created_at ON proposals(created_at);
CREATE INDEX IF NOT EXISTS idx_proposals_status ON proposals(status);
`

const proposalColumns = `id, proposal_number, customer_name, customer_email, conversation_notes,
	analysis, line_items, subtotal, tax, total, status, notes,
	created_at, updated_at, approved_at, rejected_at`

// SQLiteProposalRepository persists proposals in a SQLite database
type SQLiteProposalRepository struct {
	conn *sql.DB
}

// NewSQLiteProposalRepository opens the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func NewSQLiteProposalRepository(path string) (*SQLiteProposalRepository, error) {
	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writes
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(proposalSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create proposals table: %w", err)
	}

	return &SQLiteProposalRepository{conn: conn}, nil
}

// Close closes the database
func (r *SQLiteProposalRepository) Close() error {
	return r.conn.Close()
}

// Create inserts a proposal
func (r *SQLiteProposalRepository) Create(ctx context.Context, p *domain.Proposal) error {
	if p == nil || p.ID == "" {
		return domain.ErrInvalidRequest
	}

	args, err := proposalArgs(p)
	if err != nil {
		return err
	}

	_, err = r.conn.ExecContext(ctx, `INSERT INTO proposals (`+proposalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", err)
	}
	return nil
}

// Get loads a proposal by id
func (r *SQLiteProposalRepository) Get(ctx context.Context, id string) (*domain.Proposal, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id = ?`, id)
	p, err := scanProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProposalNotFound
	}
	return p, err
}

// List returns all proposals, newest first
func (r *SQLiteProposalRepository) List(ctx context.Context) ([]*domain.Proposal, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT `+proposalColumns+` FROM proposals ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}
	defer rows.Close()

	proposals := []*domain.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate proposals: %w", err)
	}
	return proposals, nil
}

// Update rewrites the mutable fields of a proposal
func (r *SQLiteProposalRepository) Update(ctx context.Context, p *domain.Proposal) error {
	if p == nil {
		return domain.ErrInvalidRequest
	}

	res, err := r.conn.ExecContext(ctx, `UPDATE proposals
		SET status = ?, notes = ?, updated_at = ?, approved_at = ?, rejected_at = ?
		WHERE id = ?`,
		string(p.Status), p.Notes, formatTime(p.UpdatedAt),
		nullableTime(p.ApprovedAt), nullableTime(p.RejectedAt), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update proposal: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrProposalNotFound
	}
	return nil
}

func proposalArgs(p *domain.Proposal) ([]interface{}, error) {
	var analysis sql.NullString
	if p.Analysis != nil {
		data, err := json.Marshal(p.Analysis)
		if err != nil {
			return nil, fmt.Errorf("failed to encode analysis: %w", err)
		}
		analysis = sql.NullString{String: string(data), Valid: true}
	}

	items := p.LineItems
	if items == nil {
		items = []domain.LineItem{}
	}
	lineItems, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode line items: %w", err)
	}

	return []interface{}{
		p.ID, p.ProposalNumber, p.CustomerName, p.CustomerEmail, p.ConversationNotes,
		analysis, string(lineItems), p.Subtotal, p.Tax, p.Total, string(p.Status), p.Notes,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt), nullableTime(p.ApprovedAt), nullableTime(p.RejectedAt),
	}, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProposal(s scanner) (*domain.Proposal, error) {
	var (
		p                    domain.Proposal
		status               string
		analysis             sql.NullString
		lineItems            string
		createdAt, updatedAt string
		approvedAt           sql.NullString
		rejectedAt           sql.NullString
	)

	err := s.Scan(&p.ID, &p.ProposalNumber, &p.CustomerName, &p.CustomerEmail, &p.ConversationNotes,
		&analysis, &lineItems, &p.Subtotal, &p.Tax, &p.Total, &status, &p.Notes,
		&createdAt, &updatedAt, &approvedAt, &rejectedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan proposal: %w", err)
	}

	p.Status = domain.ProposalStatus(status)

	if analysis.Valid {
		p.Analysis = &domain.AnalysisResult{}
		if err := json.Unmarshal([]byte(analysis.String), p.Analysis); err != nil {
			return nil, fmt.Errorf("failed to decode analysis: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(lineItems), &p.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if p.ApprovedAt, err = parseNullableTime(approvedAt); err != nil {
		return nil, err
	}
	if p.RejectedAt, err = parseNullableTime(rejectedAt); err != nil {
		return nil, err
	}

	return &p, nil
}

// Timestamps are stored as fixed-width UTC text so ORDER BY created_at sorts chronologically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
