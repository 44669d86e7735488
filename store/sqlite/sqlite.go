/*
Package sqlite provides a SQLite-backed implementation of schedule persistence.

PURPOSE:
  Stores service definitions and their schedule rows. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

REGENERATION SAFETY:
  ReplaceSchedules is the only write path that swaps a service's
  schedule set, and it runs the supplied build callback inside the same
  database transaction that reads the existing rows. A linked payment
  can therefore never be observed by one regeneration and dropped by a
  concurrent one.

KEY TABLES:
  services:          Service definitions (JSON config plus queryable columns)
  service_schedules: One row per billing period

INDEXES:
  - idx_schedules_service: Per-service listing (hot path)
  - idx_schedules_status:  Overdue sweep filtering
  - idx_schedules_due:     Next-due lookups
  - idx_services_public:   Public ID resolution for the API

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/finanzas.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  rows, err := store.ReplaceSchedules(ctx, svc.ID, func(existing []schedule.ServiceSchedule) ([]schedule.ServiceSchedule, error) {
      return schedule.Regenerate(svc, overrides, existing, schedule.Today())
  })

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - schedule/regenerate.go: The pure rebuild logic ReplaceSchedules wraps
  - factory/service.go: JSON codec used for the definition column
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/notluquis/finanzas-service-engine/factory"
	"github.com/notluquis/finanzas-service-engine/schedule"
)

var (
	// ErrServiceNotFound is returned when a service ID resolves to nothing.
	ErrServiceNotFound = errors.New("service not found")

	// ErrScheduleNotFound is returned when a schedule ID resolves to nothing.
	ErrScheduleNotFound = errors.New("schedule not found")
)

// Store persists services and their schedules using SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	factory *factory.ServiceFactory
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, factory: factory.NewServiceFactory()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Service definitions
	CREATE TABLE IF NOT EXISTS services (
		id TEXT PRIMARY KEY,
		public_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		definition_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_services_public
		ON services(public_id) WHERE public_id != '';
	CREATE INDEX IF NOT EXISTS idx_services_status
		ON services(status);

	-- One row per billing period of a service
	CREATE TABLE IF NOT EXISTS service_schedules (
		id TEXT PRIMARY KEY,
		service_id TEXT NOT NULL REFERENCES services(id),
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		emission_date TEXT NOT NULL,
		due_date TEXT NOT NULL,
		expected_amount TEXT NOT NULL,
		late_fee_amount TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'PENDING',
		transaction_id INTEGER,
		paid_amount TEXT,
		paid_date TEXT,
		note TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_schedules_service
		ON service_schedules(service_id, period_start);
	CREATE INDEX IF NOT EXISTS idx_schedules_status
		ON service_schedules(status);
	CREATE INDEX IF NOT EXISTS idx_schedules_due
		ON service_schedules(due_date);

	-- A transaction settles at most one schedule row
	CREATE UNIQUE INDEX IF NOT EXISTS idx_schedules_transaction
		ON service_schedules(transaction_id) WHERE transaction_id IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SERVICE STORE
// =============================================================================

// SaveService inserts or updates a service definition.
func (s *Store) SaveService(ctx context.Context, svc schedule.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	definition, err := json.Marshal(s.factory.ToJSON(svc))
	if err != nil {
		return fmt.Errorf("failed to encode service: %w", err)
	}

	query := `
		INSERT INTO services (id, public_id, name, category, status, definition_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			public_id = excluded.public_id,
			name = excluded.name,
			category = excluded.category,
			status = excluded.status,
			definition_json = excluded.definition_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query,
		string(svc.ID), svc.PublicID, svc.Name, svc.Category, string(svc.Status),
		string(definition), now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &schedule.ConflictError{Reason: fmt.Sprintf("public_id %q already in use", svc.PublicID)}
		}
		return fmt.Errorf("failed to save service: %w", err)
	}
	return nil
}

// GetService retrieves a service by ID.
func (s *Store) GetService(ctx context.Context, id schedule.ServiceID) (schedule.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getServiceBy(ctx, s.db, "id", string(id))
}

// GetServiceByPublicID retrieves a service by its public identifier.
func (s *Store) GetServiceByPublicID(ctx context.Context, publicID string) (schedule.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getServiceBy(ctx, s.db, "public_id", publicID)
}

func (s *Store) getServiceBy(ctx context.Context, db querier, column, value string) (schedule.Service, error) {
	var definition string
	err := db.QueryRowContext(ctx,
		"SELECT definition_json FROM services WHERE "+column+" = ?",
		value,
	).Scan(&definition)

	if err == sql.ErrNoRows {
		return schedule.Service{}, ErrServiceNotFound
	}
	if err != nil {
		return schedule.Service{}, fmt.Errorf("failed to load service: %w", err)
	}

	return s.decodeService(definition)
}

// ListServices returns all services ordered by name.
func (s *Store) ListServices(ctx context.Context) ([]schedule.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT definition_json FROM services ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []schedule.Service
	for rows.Next() {
		var definition string
		if err := rows.Scan(&definition); err != nil {
			return nil, err
		}
		svc, err := s.decodeService(definition)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

// ArchiveService marks a service ARCHIVED. Its schedule rows are kept.
func (s *Store) ArchiveService(ctx context.Context, id schedule.ServiceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	svc, err := s.getServiceBy(ctx, sqlTx, "id", string(id))
	if err != nil {
		return err
	}
	svc.Status = schedule.ServiceArchived

	definition, err := json.Marshal(s.factory.ToJSON(svc))
	if err != nil {
		return fmt.Errorf("failed to encode service: %w", err)
	}

	_, err = sqlTx.ExecContext(ctx,
		"UPDATE services SET status = ?, definition_json = ?, updated_at = ? WHERE id = ?",
		string(schedule.ServiceArchived), string(definition),
		time.Now().UTC().Format(time.RFC3339), string(id),
	)
	if err != nil {
		return fmt.Errorf("failed to archive service: %w", err)
	}

	return sqlTx.Commit()
}

func (s *Store) decodeService(definition string) (schedule.Service, error) {
	var sj factory.ServiceJSON
	if err := json.Unmarshal([]byte(definition), &sj); err != nil {
		return schedule.Service{}, fmt.Errorf("failed to decode service: %w", err)
	}
	return s.factory.FromJSON(sj)
}

// =============================================================================
// SCHEDULE STORE
// =============================================================================

// ListSchedules returns all schedule rows of a service ordered by period.
func (s *Store) ListSchedules(ctx context.Context, serviceID schedule.ServiceID) ([]schedule.ServiceSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listSchedules(ctx, s.db, serviceID)
}

func (s *Store) listSchedules(ctx context.Context, db querier, serviceID schedule.ServiceID) ([]schedule.ServiceSchedule, error) {
	query := `
		SELECT id, service_id, period_start, period_end, emission_date, due_date,
		       expected_amount, late_fee_amount, status, transaction_id, paid_amount, paid_date, note
		FROM service_schedules
		WHERE service_id = ?
		ORDER BY period_start ASC
	`

	rows, err := db.QueryContext(ctx, query, string(serviceID))
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []schedule.ServiceSchedule
	for rows.Next() {
		row, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, row)
	}
	return schedules, rows.Err()
}

// GetSchedule retrieves a single schedule row by ID.
func (s *Store) GetSchedule(ctx context.Context, id schedule.ScheduleID) (schedule.ServiceSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getSchedule(ctx, s.db, id)
}

func (s *Store) getSchedule(ctx context.Context, db querier, id schedule.ScheduleID) (schedule.ServiceSchedule, error) {
	query := `
		SELECT id, service_id, period_start, period_end, emission_date, due_date,
		       expected_amount, late_fee_amount, status, transaction_id, paid_amount, paid_date, note
		FROM service_schedules
		WHERE id = ?
	`

	rows, err := db.QueryContext(ctx, query, string(id))
	if err != nil {
		return schedule.ServiceSchedule{}, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return schedule.ServiceSchedule{}, err
		}
		return schedule.ServiceSchedule{}, ErrScheduleNotFound
	}
	return scanSchedule(rows)
}

// ReplaceSchedules atomically swaps a service's schedule set. The build
// callback receives the rows currently stored and returns the rows that
// should replace them; the read and the swap happen in one transaction.
func (s *Store) ReplaceSchedules(ctx context.Context, serviceID schedule.ServiceID, build func(existing []schedule.ServiceSchedule) ([]schedule.ServiceSchedule, error)) ([]schedule.ServiceSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	existing, err := s.listSchedules(ctx, sqlTx, serviceID)
	if err != nil {
		return nil, err
	}

	replacement, err := build(existing)
	if err != nil {
		return nil, err
	}

	if _, err := sqlTx.ExecContext(ctx,
		"DELETE FROM service_schedules WHERE service_id = ?", string(serviceID),
	); err != nil {
		return nil, fmt.Errorf("failed to clear schedules: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, row := range replacement {
		if err := insertSchedule(ctx, sqlTx, row, now); err != nil {
			return nil, err
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit schedules: %w", err)
	}
	return replacement, nil
}

// UpdateScheduleWith applies a mutation to one schedule row inside a
// transaction and returns the stored result.
func (s *Store) UpdateScheduleWith(ctx context.Context, id schedule.ScheduleID, mutate func(schedule.ServiceSchedule) (schedule.ServiceSchedule, error)) (schedule.ServiceSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return schedule.ServiceSchedule{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	row, err := s.getSchedule(ctx, sqlTx, id)
	if err != nil {
		return schedule.ServiceSchedule{}, err
	}

	updated, err := mutate(row)
	if err != nil {
		return schedule.ServiceSchedule{}, err
	}
	if updated.ID != row.ID || updated.ServiceID != row.ServiceID {
		return schedule.ServiceSchedule{}, &schedule.ConflictError{
			ScheduleID: row.ID,
			Reason:     "mutation must not change row identity",
		}
	}

	if err := updateSchedule(ctx, sqlTx, updated); err != nil {
		return schedule.ServiceSchedule{}, err
	}

	if err := sqlTx.Commit(); err != nil {
		return schedule.ServiceSchedule{}, fmt.Errorf("failed to commit schedule: %w", err)
	}
	return updated, nil
}

// UpdateSchedule overwrites one schedule row.
func (s *Store) UpdateSchedule(ctx context.Context, row schedule.ServiceSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return updateSchedule(ctx, s.db, row)
}

func insertSchedule(ctx context.Context, db execer, row schedule.ServiceSchedule, now string) error {
	query := `
		INSERT INTO service_schedules
		(id, service_id, period_start, period_end, emission_date, due_date,
		 expected_amount, late_fee_amount, status, transaction_id, paid_amount, paid_date, note,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		string(row.ID), string(row.ServiceID),
		row.PeriodStart.String(), row.PeriodEnd.String(),
		row.EmissionDate.String(), row.DueDate.String(),
		row.ExpectedAmount.String(), row.LateFeeAmount.String(),
		string(row.Status),
		nullInt64(row.TransactionID), nullDecimal(row.PaidAmount), nullDate(row.PaidDate),
		row.Note, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &schedule.ConflictError{
				ScheduleID: row.ID,
				Reason:     "transaction already linked to another schedule",
			}
		}
		return fmt.Errorf("failed to insert schedule: %w", err)
	}
	return nil
}

func updateSchedule(ctx context.Context, db execer, row schedule.ServiceSchedule) error {
	query := `
		UPDATE service_schedules SET
			period_start = ?, period_end = ?, emission_date = ?, due_date = ?,
			expected_amount = ?, late_fee_amount = ?, status = ?,
			transaction_id = ?, paid_amount = ?, paid_date = ?, note = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query,
		row.PeriodStart.String(), row.PeriodEnd.String(),
		row.EmissionDate.String(), row.DueDate.String(),
		row.ExpectedAmount.String(), row.LateFeeAmount.String(),
		string(row.Status),
		nullInt64(row.TransactionID), nullDecimal(row.PaidAmount), nullDate(row.PaidDate),
		row.Note,
		time.Now().UTC().Format(time.RFC3339),
		string(row.ID),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &schedule.ConflictError{
				ScheduleID: row.ID,
				Reason:     "transaction already linked to another schedule",
			}
		}
		return fmt.Errorf("failed to update schedule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func scanSchedule(rows *sql.Rows) (schedule.ServiceSchedule, error) {
	var (
		row           schedule.ServiceSchedule
		id, serviceID string
		periodStart   string
		periodEnd     string
		emissionDate  string
		dueDate       string
		expected      string
		lateFee       string
		status        string
		transactionID sql.NullInt64
		paidAmount    sql.NullString
		paidDate      sql.NullString
	)

	err := rows.Scan(
		&id, &serviceID, &periodStart, &periodEnd, &emissionDate, &dueDate,
		&expected, &lateFee, &status, &transactionID, &paidAmount, &paidDate, &row.Note,
	)
	if err != nil {
		return row, fmt.Errorf("failed to scan schedule: %w", err)
	}

	row.ID = schedule.ScheduleID(id)
	row.ServiceID = schedule.ServiceID(serviceID)
	row.Status = schedule.ScheduleStatus(status)

	if row.PeriodStart, err = schedule.ParseDate(periodStart); err != nil {
		return row, fmt.Errorf("corrupt period_start: %w", err)
	}
	if row.PeriodEnd, err = schedule.ParseDate(periodEnd); err != nil {
		return row, fmt.Errorf("corrupt period_end: %w", err)
	}
	if row.EmissionDate, err = schedule.ParseDate(emissionDate); err != nil {
		return row, fmt.Errorf("corrupt emission_date: %w", err)
	}
	if row.DueDate, err = schedule.ParseDate(dueDate); err != nil {
		return row, fmt.Errorf("corrupt due_date: %w", err)
	}

	if row.ExpectedAmount, err = decimal.NewFromString(expected); err != nil {
		return row, fmt.Errorf("corrupt expected_amount: %w", err)
	}
	if row.LateFeeAmount, err = decimal.NewFromString(lateFee); err != nil {
		return row, fmt.Errorf("corrupt late_fee_amount: %w", err)
	}

	if transactionID.Valid {
		v := transactionID.Int64
		row.TransactionID = &v
	}
	if paidAmount.Valid {
		amount, err := decimal.NewFromString(paidAmount.String)
		if err != nil {
			return row, fmt.Errorf("corrupt paid_amount: %w", err)
		}
		row.PaidAmount = &amount
	}
	if paidDate.Valid {
		d, err := schedule.ParseDate(paidDate.String)
		if err != nil {
			return row, fmt.Errorf("corrupt paid_date: %w", err)
		}
		row.PaidDate = &d
	}

	return row, nil
}

// =============================================================================
// HELPERS
// =============================================================================

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullDecimal(v *decimal.Decimal) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}

func nullDate(v *schedule.Date) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
