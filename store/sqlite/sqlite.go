/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists the catalog (room categories and their dynamic pricing configs),
  bookings, the daily analytics series and the cancellation sweep audit
  trail. The same patterns apply to PostgreSQL; see store/postgres.

INTERFACES IMPLEMENTED:
  generic.BookingStore:  Booking persistence + conditional cancel
  generic.HistorySource: Daily analytics series

CONDITIONAL CANCEL:
  CancelIfPending is a single statement:

    UPDATE bookings SET status = 'cancelled', ...
    WHERE id = ? AND status = 'pending'

  One row affected means this caller won. Zero rows means the booking is
  gone or already moved on; a follow-up existence check tells them apart.

KEY TABLES:
  room_categories:    Category definitions (JSON config)
  pricing_configs:    Dynamic pricing per category (JSON config, versioned)
  bookings:           Reservations
  daily_stats:        One row per day of bookings, revenue, occupancy
  cancellation_runs:  Audit trail of sweeps

INDEXES:
  - idx_bookings_status_created:  payment timeout windows
  - idx_bookings_status_checkin:  past check-in window

TIMESTAMPS:
  Stored as fixed-width UTC text (microsecond precision) so that string
  comparison in SQL matches time ordering.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/revenue.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  sweeper := cancellation.NewSweeper(store)

SEE ALSO:
  - generic/store.go: Interface definitions
  - store/postgres/postgres.go: PostgreSQL BookingStore
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/revenue-engine/generic"
)

const (
	tsLayout   = "2006-01-02T15:04:05.000000Z"
	dateLayout = "2006-01-02"
)

func formatTS(t time.Time) string { return t.UTC().Format(tsLayout) }

func parseTS(s string) time.Time {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
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
	CREATE TABLE IF NOT EXISTS room_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pricing_configs (
		category_id TEXT PRIMARY KEY REFERENCES room_categories(id) ON DELETE CASCADE,
		config_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL,
		guest_name TEXT,
		guest_email TEXT,
		status TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		date_from TEXT NOT NULL,
		date_to TEXT NOT NULL,
		total TEXT NOT NULL,
		cancellation_reason TEXT,
		cancelled_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_status_created
		ON bookings(status, created_at);
	CREATE INDEX IF NOT EXISTS idx_bookings_status_checkin
		ON bookings(status, date_from);

	CREATE TABLE IF NOT EXISTS daily_stats (
		day TEXT PRIMARY KEY,
		bookings_count INTEGER NOT NULL,
		revenue TEXT NOT NULL,
		occupancy_rate REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cancellation_runs (
		id TEXT PRIMARY KEY,
		trigger TEXT NOT NULL,
		status TEXT NOT NULL,
		cancelled_count INTEGER NOT NULL DEFAULT 0,
		skipped_count INTEGER NOT NULL DEFAULT 0,
		errors_json TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_cancellation_runs_started
		ON cancellation_runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ROOM CATEGORY STORE
// =============================================================================

// CategoryRecord is a stored room category with its JSON config.
type CategoryRecord struct {
	ID         string
	Name       string
	ConfigJSON string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaveCategory inserts or updates a category.
func (s *Store) SaveCategory(ctx context.Context, c CategoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO room_categories (id, name, config_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`

	now := formatTS(time.Now())
	_, err := s.db.ExecContext(ctx, query, c.ID, c.Name, c.ConfigJSON, now, now)
	return err
}

// GetCategory retrieves a category by ID.
func (s *Store) GetCategory(ctx context.Context, id string) (*CategoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c CategoryRecord
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, config_json, created_at, updated_at FROM room_categories WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Name, &c.ConfigJSON, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, generic.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}

	c.CreatedAt = parseTS(createdAt)
	c.UpdatedAt = parseTS(updatedAt)
	return &c, nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]CategoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, config_json, created_at, updated_at FROM room_categories ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []CategoryRecord
	for rows.Next() {
		var c CategoryRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.ConfigJSON, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTS(createdAt)
		c.UpdatedAt = parseTS(updatedAt)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// DeleteCategory removes a category and its pricing config.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM room_categories WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return generic.ErrCategoryNotFound
	}
	return nil
}

// =============================================================================
// PRICING CONFIG STORE
// =============================================================================

// PricingConfigRecord is the dynamic pricing JSON for one category.
type PricingConfigRecord struct {
	CategoryID string
	ConfigJSON string
	Version    int
	UpdatedAt  time.Time
}

// SavePricingConfig stores a category's pricing config, bumping its version.
func (s *Store) SavePricingConfig(ctx context.Context, p PricingConfigRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO pricing_configs (category_id, config_json, version, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(category_id) DO UPDATE SET
			config_json = excluded.config_json,
			version = pricing_configs.version + 1,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, p.CategoryID, p.ConfigJSON, formatTS(time.Now()))
	return err
}

// GetPricingConfig returns nil (no error) when the category has no dynamic pricing.
func (s *Store) GetPricingConfig(ctx context.Context, categoryID string) (*PricingConfigRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p PricingConfigRecord
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT category_id, config_json, version, updated_at FROM pricing_configs WHERE category_id = ?",
		categoryID,
	).Scan(&p.CategoryID, &p.ConfigJSON, &p.Version, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.UpdatedAt = parseTS(updatedAt)
	return &p, nil
}

// =============================================================================
// BOOKING STORE
// =============================================================================

const bookingColumns = `id, category_id, guest_name, guest_email, status, payment_status,
	date_from, date_to, total, cancellation_reason, cancelled_at, created_at, updated_at`

const insertBooking = `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SaveBooking inserts or replaces a booking.
func (s *Store) SaveBooking(ctx context.Context, b generic.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.execBooking(ctx, insertBooking+`
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			guest_name = excluded.guest_name,
			guest_email = excluded.guest_email,
			status = excluded.status,
			payment_status = excluded.payment_status,
			date_from = excluded.date_from,
			date_to = excluded.date_to,
			total = excluded.total,
			cancellation_reason = excluded.cancellation_reason,
			cancelled_at = excluded.cancelled_at,
			updated_at = excluded.updated_at
	`, b)
	return err
}

// CreateBooking inserts a new booking. An existing id is left untouched and
// reported as ErrBookingExists.
func (s *Store) CreateBooking(ctx context.Context, b generic.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.execBooking(ctx, insertBooking+" ON CONFLICT(id) DO NOTHING", b)
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrBookingExists
	}
	return nil
}

func (s *Store) execBooking(ctx context.Context, query string, b generic.Booking) (int64, error) {
	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := b.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	var cancelledAt *string
	if b.CancelledAt != nil {
		v := formatTS(*b.CancelledAt)
		cancelledAt = &v
	}

	res, err := s.db.ExecContext(ctx, query,
		string(b.ID), string(b.CategoryID), nullString(b.GuestName), nullString(b.GuestEmail),
		string(b.Status), string(b.PaymentStatus),
		formatTS(b.DateFrom), formatTS(b.DateTo), b.Total.String(),
		nullString(b.CancellationReason), cancelledAt,
		formatTS(createdAt), formatTS(updatedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetBooking retrieves a booking by ID.
func (s *Store) GetBooking(ctx context.Context, id generic.BookingID) (*generic.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings, err := s.queryBookings(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", string(id))
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, generic.ErrBookingNotFound
	}
	return &bookings[0], nil
}

// ListBookings returns bookings, newest first. An empty status lists all.
func (s *Store) ListBookings(ctx context.Context, status generic.BookingStatus, limit int) ([]generic.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	if status == "" {
		return s.queryBookings(ctx,
			"SELECT "+bookingColumns+" FROM bookings ORDER BY created_at DESC, id LIMIT ?", limit)
	}
	return s.queryBookings(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE status = ? ORDER BY created_at DESC, id LIMIT ?",
		string(status), limit)
}

// ListPending returns pending bookings matching the filter, oldest first.
func (s *Store) ListPending(ctx context.Context, filter generic.PendingFilter) ([]generic.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + bookingColumns + " FROM bookings WHERE status = ?"
	args := []any{string(generic.StatusPending)}
	if filter.CreatedBefore != nil {
		query += " AND created_at < ?"
		args = append(args, formatTS(*filter.CreatedBefore))
	}
	if filter.CheckInBefore != nil {
		query += " AND date_from < ?"
		args = append(args, formatTS(*filter.CheckInBefore))
	}
	query += " ORDER BY created_at, id"

	return s.queryBookings(ctx, query, args...)
}

// CancelIfPending moves a pending booking to cancelled in one statement.
func (s *Store) CancelIfPending(ctx context.Context, id generic.BookingID, reason string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := formatTS(at)
	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings
		SET status = ?, cancellation_reason = ?, cancelled_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(generic.StatusCancelled), reason, ts, ts, string(id), string(generic.StatusPending))
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings WHERE id = ?", string(id)).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, generic.ErrBookingNotFound
	}
	return false, nil
}

func (s *Store) queryBookings(ctx context.Context, query string, args ...any) ([]generic.Booking, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []generic.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(rows *sql.Rows) (generic.Booking, error) {
	var (
		b                               generic.Booking
		id, categoryID, status, payment string
		guestName, guestEmail, reason   sql.NullString
		dateFrom, dateTo, total         string
		cancelledAt                     sql.NullString
		createdAt, updatedAt            string
	)
	if err := rows.Scan(
		&id, &categoryID, &guestName, &guestEmail, &status, &payment,
		&dateFrom, &dateTo, &total, &reason, &cancelledAt, &createdAt, &updatedAt,
	); err != nil {
		return b, err
	}

	b.ID = generic.BookingID(id)
	b.CategoryID = generic.CategoryID(categoryID)
	b.GuestName = guestName.String
	b.GuestEmail = guestEmail.String
	b.Status = generic.BookingStatus(status)
	b.PaymentStatus = generic.PaymentStatus(payment)
	b.DateFrom = parseTS(dateFrom)
	b.DateTo = parseTS(dateTo)
	b.Total = generic.MustParseDecimal(total)
	b.CancellationReason = reason.String
	if cancelledAt.Valid {
		t := parseTS(cancelledAt.String)
		b.CancelledAt = &t
	}
	b.CreatedAt = parseTS(createdAt)
	b.UpdatedAt = parseTS(updatedAt)
	return b, nil
}

// =============================================================================
// DAILY STATS - History source for the forecaster
// =============================================================================

// SaveDailyStat inserts or replaces one day of analytics.
func (s *Store) SaveDailyStat(ctx context.Context, p generic.HistoricalDataPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_stats (day, bookings_count, revenue, occupancy_rate)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			bookings_count = excluded.bookings_count,
			revenue = excluded.revenue,
			occupancy_rate = excluded.occupancy_rate
	`, p.Date.Format(dateLayout), p.BookingsCount, p.Revenue.String(), p.OccupancyRate)
	return err
}

// SaveDailyStats writes a batch in one transaction.
func (s *Store) SaveDailyStats(ctx context.Context, points []generic.HistoricalDataPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_stats (day, bookings_count, revenue, occupancy_rate)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			bookings_count = excluded.bookings_count,
			revenue = excluded.revenue,
			occupancy_rate = excluded.occupancy_rate
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.Date.Format(dateLayout), p.BookingsCount, p.Revenue.String(), p.OccupancyRate); err != nil {
			return fmt.Errorf("day %s: %w", p.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

// LoadHistory returns the series ordered by day. A zero period loads everything.
func (s *Store) LoadHistory(ctx context.Context, period generic.Period) ([]generic.HistoricalDataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT day, bookings_count, revenue, occupancy_rate FROM daily_stats"
	var args []any
	if !period.IsZero() {
		query += " WHERE day >= ? AND day <= ?"
		args = append(args, period.Start.Format(dateLayout), period.End.Format(dateLayout))
	}
	query += " ORDER BY day"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []generic.HistoricalDataPoint
	for rows.Next() {
		var p generic.HistoricalDataPoint
		var day, revenue string
		if err := rows.Scan(&day, &p.BookingsCount, &revenue, &p.OccupancyRate); err != nil {
			return nil, err
		}
		p.Date, _ = time.Parse(dateLayout, day)
		p.Revenue, _ = decimal.NewFromString(revenue)
		points = append(points, p)
	}
	return points, rows.Err()
}

// =============================================================================
// CANCELLATION RUNS
// =============================================================================

// CancellationRun is the audit record of one sweep.
type CancellationRun struct {
	ID             string
	Trigger        string // scheduler, admin
	Status         string // running, completed, completed_with_errors
	CancelledCount int
	SkippedCount   int
	Errors         []string
	StartedAt      time.Time
	CompletedAt    *time.Time
}

// SaveCancellationRun inserts or updates a run.
func (s *Store) SaveCancellationRun(ctx context.Context, r CancellationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errorsJSON sql.NullString
	if len(r.Errors) > 0 {
		b, err := json.Marshal(r.Errors)
		if err != nil {
			return err
		}
		errorsJSON = sql.NullString{String: string(b), Valid: true}
	}
	var completedAt *string
	if r.CompletedAt != nil {
		v := formatTS(*r.CompletedAt)
		completedAt = &v
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cancellation_runs (id, trigger, status, cancelled_count, skipped_count, errors_json, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			cancelled_count = excluded.cancelled_count,
			skipped_count = excluded.skipped_count,
			errors_json = excluded.errors_json,
			completed_at = excluded.completed_at
	`, r.ID, r.Trigger, r.Status, r.CancelledCount, r.SkippedCount, errorsJSON, formatTS(r.StartedAt), completedAt)
	return err
}

// GetCancellationRuns returns the most recent runs first.
func (s *Store) GetCancellationRuns(ctx context.Context, limit int) ([]CancellationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trigger, status, cancelled_count, skipped_count, errors_json, started_at, completed_at
		FROM cancellation_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []CancellationRun
	for rows.Next() {
		var r CancellationRun
		var errorsJSON, completedAt sql.NullString
		var startedAt string
		if err := rows.Scan(&r.ID, &r.Trigger, &r.Status, &r.CancelledCount, &r.SkippedCount,
			&errorsJSON, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		r.StartedAt = parseTS(startedAt)
		if completedAt.Valid {
			t := parseTS(completedAt.String)
			r.CompletedAt = &t
		}
		if errorsJSON.Valid {
			if err := json.Unmarshal([]byte(errorsJSON.String), &r.Errors); err != nil {
				return nil, fmt.Errorf("run %s: bad errors_json: %w", r.ID, err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset deletes all data. Used by demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"cancellation_runs", "daily_stats", "bookings", "pricing_configs", "room_categories"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var (
	_ generic.BookingStore  = (*Store)(nil)
	_ generic.HistorySource = (*Store)(nil)
)
