// Package store persists finalized estimates and the business profile
// used when rendering them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Estimate statuses. A saved estimate starts as a draft and becomes
// sent once it has been emailed to the client.
const (
	StatusDraft = "draft"
	StatusSent  = "sent"
)

// Estimate is a saved estimate with its line items resolved.
type Estimate struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	Description   string    `json:"description"`
	Notes         string    `json:"notes,omitempty"`
	ClientName    string    `json:"client_name,omitempty"`
	ClientPhone   string    `json:"client_phone,omitempty"`
	ClientEmail   string    `json:"client_email,omitempty"`
	ClientAddress string    `json:"client_address,omitempty"`
	Items         []Item    `json:"items"`
	Total         float64   `json:"total"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Item is one line of an estimate. Quantity and Price are resolved
// values; unknowns were already collapsed to zero when the draft was
// finalized.
type Item struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// LineTotal is the item's contribution to the estimate total.
func (i Item) LineTotal() float64 {
	return i.Quantity * i.Price
}

// BusinessProfile holds the letterhead details stamped onto exported
// estimates.
type BusinessProfile struct {
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EstimateStore defines the interface for estimate persistence.
type EstimateStore interface {
	SaveEstimate(ctx context.Context, est *Estimate) error
	GetEstimate(ctx context.Context, id string) (*Estimate, error)
	ListEstimates(ctx context.Context, limit, offset int) ([]*Estimate, error)
	DeleteEstimate(ctx context.Context, id string) error

	SaveBusinessProfile(ctx context.Context, profile *BusinessProfile) error
	GetBusinessProfile(ctx context.Context) (*BusinessProfile, error)

	Ping(ctx context.Context) error
	Close() error
}

// SQLiteStore implements EstimateStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at path and ensures
// the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS estimates (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'draft',
		description TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		client_name TEXT NOT NULL DEFAULT '',
		client_phone TEXT NOT NULL DEFAULT '',
		client_email TEXT NOT NULL DEFAULT '',
		client_address TEXT NOT NULL DEFAULT '',
		deleted_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS estimate_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		estimate_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		quantity REAL NOT NULL DEFAULT 0,
		price REAL NOT NULL DEFAULT 0,
		FOREIGN KEY (estimate_id) REFERENCES estimates(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS business_profiles (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_items_estimate ON estimate_items(estimate_id);
	CREATE INDEX IF NOT EXISTS idx_estimates_created ON estimates(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveEstimate inserts a new estimate or replaces an existing one.
// Line items are rewritten wholesale in the same transaction.
func (s *SQLiteStore) SaveEstimate(ctx context.Context, est *Estimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if est.ID == "" {
		return fmt.Errorf("estimate ID is required")
	}

	now := time.Now()
	if est.CreatedAt.IsZero() {
		est.CreatedAt = now
	}
	est.UpdatedAt = now
	if est.Status == "" {
		est.Status = StatusDraft
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO estimates (id, status, description, notes, client_name, client_phone, client_email, client_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			description = excluded.description,
			notes = excluded.notes,
			client_name = excluded.client_name,
			client_phone = excluded.client_phone,
			client_email = excluded.client_email,
			client_address = excluded.client_address,
			updated_at = excluded.updated_at
	`, est.ID, est.Status, est.Description, est.Notes, est.ClientName, est.ClientPhone, est.ClientEmail, est.ClientAddress, est.CreatedAt, est.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save estimate: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM estimate_items WHERE estimate_id = ?`, est.ID); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	for i, item := range est.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO estimate_items (estimate_id, position, name, quantity, price)
			VALUES (?, ?, ?, ?, ?)
		`, est.ID, i, item.Name, item.Quantity, item.Price)
		if err != nil {
			return fmt.Errorf("failed to save item: %w", err)
		}
	}

	return tx.Commit()
}

// GetEstimate retrieves an estimate by ID. Soft-deleted estimates are
// not returned. A missing estimate yields (nil, nil).
func (s *SQLiteStore) GetEstimate(ctx context.Context, id string) (*Estimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, description, notes, client_name, client_phone, client_email, client_address, created_at, updated_at
		FROM estimates WHERE id = ? AND deleted_at IS NULL
	`, id)

	est, err := scanEstimate(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}

	if err := s.loadItems(ctx, est); err != nil {
		return nil, err
	}
	return est, nil
}

// ListEstimates returns estimates ordered by creation time, newest
// first. Soft-deleted estimates are excluded.
func (s *SQLiteStore) ListEstimates(ctx context.Context, limit, offset int) ([]*Estimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, description, notes, client_name, client_phone, client_email, client_address, created_at, updated_at
		FROM estimates
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	defer rows.Close()

	var estimates []*Estimate
	for rows.Next() {
		est, err := scanEstimate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		estimates = append(estimates, est)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}

	for _, est := range estimates {
		if err := s.loadItems(ctx, est); err != nil {
			return nil, err
		}
	}

	return estimates, nil
}

// DeleteEstimate soft-deletes an estimate. The row and its items stay
// in place so the delete can be reverted out of band.
func (s *SQLiteStore) DeleteEstimate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE estimates SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL
	`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete estimate: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("estimate not found: %s", id)
	}
	return nil
}

// SaveBusinessProfile creates or replaces the single business profile.
func (s *SQLiteStore) SaveBusinessProfile(ctx context.Context, profile *BusinessProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.UpdatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO business_profiles (id, name, phone, email, address, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			email = excluded.email,
			address = excluded.address,
			updated_at = excluded.updated_at
	`, profile.Name, profile.Phone, profile.Email, profile.Address, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save business profile: %w", err)
	}
	return nil
}

// GetBusinessProfile returns the business profile, or (nil, nil) when
// none has been saved yet.
func (s *SQLiteStore) GetBusinessProfile(ctx context.Context) (*BusinessProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT name, phone, email, address, updated_at FROM business_profiles WHERE id = 1
	`)

	var p BusinessProfile
	err := row.Scan(&p.Name, &p.Phone, &p.Email, &p.Address, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get business profile: %w", err)
	}
	return &p, nil
}

// Ping verifies the database connection for readiness checks.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) loadItems(ctx context.Context, est *Estimate) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, quantity, price FROM estimate_items
		WHERE estimate_id = ?
		ORDER BY position ASC
	`, est.ID)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	defer rows.Close()

	est.Items = nil
	est.Total = 0
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.Name, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("failed to scan item: %w", err)
		}
		est.Items = append(est.Items, item)
		est.Total += item.LineTotal()
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEstimate(row rowScanner) (*Estimate, error) {
	var est Estimate
	err := row.Scan(&est.ID, &est.Status, &est.Description, &est.Notes, &est.ClientName, &est.ClientPhone, &est.ClientEmail, &est.ClientAddress, &est.CreatedAt, &est.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &est, nil
}
