// Package store persists generated protocols. The local sqlite store
// doubles as the read path for the CLI and the dashboard page; the
// Supabase sink is write-only.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/arbilina/lumi-agent-engine/internal/domain"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when no protocol exists for a user
var ErrNotFound = errors.New("protocol not found")

// Record is one persisted protocol row
type Record struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Protocol  domain.Protocol  `json:"protocol_data"`
	RawInputs domain.RawInputs `json:"raw_inputs"`
	CreatedAt time.Time        `json:"created_at"`
}

// Store handles database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveProtocol appends a protocol row. Implements the engine sink.
func (s *Store) SaveProtocol(ctx context.Context, userID string, protocol domain.Protocol, raw domain.RawInputs) error {
	protocolJSON, err := json.Marshal(protocol)
	if err != nil {
		return fmt.Errorf("marshal protocol: %w", err)
	}
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal raw inputs: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO protocols (id, user_id, protocol_data, raw_inputs, created_at) VALUES (?, ?, ?, ?, ?)",
		uuid.New().String(), userID, string(protocolJSON), string(rawJSON), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert protocol: %w", err)
	}
	return nil
}

// LatestProtocol returns the most recent protocol for a user
func (s *Store) LatestProtocol(userID string) (*Record, error) {
	row := s.db.QueryRow(
		"SELECT id, user_id, protocol_data, raw_inputs, created_at FROM protocols WHERE user_id = ? ORDER BY created_at DESC LIMIT 1",
		userID,
	)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get protocol: %w", err)
	}
	return rec, nil
}

// ListProtocols returns recent protocol rows with pagination
func (s *Store) ListProtocols(limit, offset int) ([]Record, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, protocol_data, raw_inputs, created_at FROM protocols ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list protocols: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan protocol: %w", err)
		}
		records = append(records, *rec)
	}

	return records, nil
}

// HasProtocol reports whether any protocol exists for the user
func (s *Store) HasProtocol(userID string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM protocols WHERE user_id = ?",
		userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count protocols: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var protocolJSON, rawJSON string

	if err := row.Scan(&rec.ID, &rec.UserID, &protocolJSON, &rawJSON, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(protocolJSON), &rec.Protocol); err != nil {
		return nil, fmt.Errorf("unmarshal protocol: %w", err)
	}
	if err := json.Unmarshal([]byte(rawJSON), &rec.RawInputs); err != nil {
		return nil, fmt.Errorf("unmarshal raw inputs: %w", err)
	}
	return &rec, nil
}
