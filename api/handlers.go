/*
handlers.go - HTTP API handlers for the revenue engine

PURPOSE:
  Exposes pricing, forecasting and the cancellation sweep via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  the domain packages. The engines never touch storage; handlers load
  their inputs and pass them in.

ENDPOINTS:
  Quotes:
    POST   /api/quotes                          Price a stay

  Catalog:
    GET    /api/categories                      List room categories
    POST   /api/categories                      Create/replace category from JSON
    GET    /api/categories/{id}                 Category with pricing config
    DELETE /api/categories/{id}                 Remove category
    PUT    /api/categories/{id}/pricing         Set dynamic pricing config

  Bookings:
    GET    /api/bookings?status=&limit=         List bookings
    POST   /api/bookings                        Record a booking
    GET    /api/bookings/{id}                   Booking details
    POST   /api/bookings/{id}/cancel            Cancel a pending booking

  Analytics:
    GET    /api/analytics/forecast              Forecast + insights
    GET    /api/analytics/seasonality           Monthly multipliers

  Admin:
    POST   /api/admin/cancellations/run         Run a sweep now
    GET    /api/admin/cancellations/preview     Dry run
    GET    /api/admin/cancellations/runs        Sweep history

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store:    SQLite catalog, pricing configs and sweep audit records
  - Bookings: booking backend (the same SQLite store, or PostgreSQL)
  - Catalog:  JSON to pricing types
  - Engine, Forecaster, Sweeper: the domain engines

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Category or booking not found
  - 409: Booking no longer pending, or booking id already taken
  - 422: Stored catalog cannot serve the request (matrix gap)
  - 500: Internal errors

SECURITY NOTE:
  No authentication. Admin routes must sit behind a gateway in production.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - scheduler.go: Periodic sweeps
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/revenue-engine/cancellation"
	"github.com/warp/revenue-engine/factory"
	"github.com/warp/revenue-engine/forecast"
	"github.com/warp/revenue-engine/generic"
	"github.com/warp/revenue-engine/pricing"
	"github.com/warp/revenue-engine/store/sqlite"
)

const DefaultManualCancelReason = "cancelled by operator"

const (
	maxBodyBytes     = 1 << 20
	defaultDaysAhead = 30
	maxDaysAhead     = 365
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// BookingBackend is what the API needs from booking storage. Both
// store/sqlite and store/postgres implement it.
type BookingBackend interface {
	generic.BookingStore
	generic.HistorySource
	CreateBooking(ctx context.Context, b generic.Booking) error
	ListBookings(ctx context.Context, status generic.BookingStatus, limit int) ([]generic.Booking, error)
	SaveDailyStats(ctx context.Context, points []generic.HistoricalDataPoint) error
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Bookings   BookingBackend
	Catalog    *factory.CatalogFactory
	Engine     *pricing.Engine
	Forecaster forecast.Forecaster
	Sweeper    *cancellation.Sweeper
	Clock      generic.Clock

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler that keeps everything in one SQLite store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Bookings: store,
		Catalog:  factory.NewCatalogFactory(),
		Engine:   pricing.NewEngine(),
		Sweeper:  cancellation.NewSweeper(store),
		Clock:    generic.SystemClock{},
	}
}

// UseBookingBackend moves bookings and daily stats to another backend.
// The catalog and sweep audit trail stay in Store.
func (h *Handler) UseBookingBackend(b BookingBackend) {
	h.Bookings = b
	h.Sweeper.Store = b
}

// SetClock pins "now" for the handler and its engines.
func (h *Handler) SetClock(c generic.Clock) {
	h.Clock = c
	h.Engine.Clock = c
	h.Sweeper.Clock = c
}

func (h *Handler) now() time.Time {
	return generic.NowOr(h.Clock, time.Time{})
}

// =============================================================================
// QUOTE HANDLERS
// =============================================================================

// CreateQuote prices a stay.
// POST /api/quotes
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, q, err := h.quote(r.Context(), req)
	if err != nil {
		writeDomainError(w, "Failed to price stay", err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(req.CategoryID, in, q))
}

// quote loads the category (and its pricing config) and runs the engine.
func (h *Handler) quote(ctx context.Context, req QuoteRequest) (pricing.QuoteInput, *pricing.Quote, error) {
	var in pricing.QuoteInput

	if strings.TrimSpace(req.CategoryID) == "" {
		return in, nil, generic.NewValidationError("category_id", "is required")
	}
	record, err := h.Store.GetCategory(ctx, req.CategoryID)
	if err != nil {
		return in, nil, err
	}
	category, err := h.Catalog.ParseCategory(record.ConfigJSON)
	if err != nil {
		return in, nil, fmt.Errorf("stored category %s: %w", req.CategoryID, err)
	}

	stay, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return in, nil, err
	}
	if err := stay.Validate(); err != nil {
		return in, nil, err
	}
	plan, err := pricing.ParseMealPlan(req.MealPlan)
	if err != nil {
		return in, nil, err
	}

	in = pricing.QuoteInput{
		Category:          *category,
		Stay:              stay,
		Guests:            toGuestSelection(req),
		MealPlan:          plan,
		ExpectedOccupancy: req.ExpectedOccupancy,
	}
	if err := in.Guests.Validate(); err != nil {
		return in, nil, err
	}

	if req.OccupancyTier != "" {
		if in.Tier, err = pricing.ParseOccupancyTier(req.OccupancyTier); err != nil {
			return in, nil, err
		}
	}

	nights := stay.Nights()
	switch {
	case req.MealTotal != nil:
		in.MealTotal = *req.MealTotal
	case req.MealPricePerPerson != nil:
		if req.MealPricePerPerson.IsNegative() {
			return in, nil, generic.NewValidationError("meal_price_per_person", "must not be negative")
		}
		in.MealTotal = pricing.MealCost(*req.MealPricePerPerson, in.Guests, nights)
	}
	switch {
	case req.AddOnsTotal != nil:
		in.AddOnsTotal = *req.AddOnsTotal
	case len(req.AddOns) > 0:
		if in.AddOnsTotal, err = pricing.AddOnCost(toAddOns(req.AddOns), nights); err != nil {
			return in, nil, err
		}
	}

	if req.UseDynamic == nil || *req.UseDynamic {
		pr, err := h.Store.GetPricingConfig(ctx, req.CategoryID)
		if err != nil {
			return in, nil, err
		}
		if pr != nil {
			cfg, err := h.Catalog.ParsePricing(pr.ConfigJSON)
			if err != nil {
				return in, nil, fmt.Errorf("stored pricing for %s: %w", req.CategoryID, err)
			}
			in.Dynamic = cfg
		}
	}

	if req.Now != "" {
		if in.Now, err = time.Parse(time.RFC3339, req.Now); err != nil {
			return in, nil, generic.NewValidationError("now", "expected RFC3339, got %q", req.Now)
		}
	} else {
		in.Now = h.now()
	}

	q, err := h.Engine.Quote(in)
	return in, q, err
}

func toGuestSelection(req QuoteRequest) pricing.GuestSelection {
	g := pricing.GuestSelection{Rooms: req.Rooms, Adults: req.Adults}
	for _, rc := range req.Children {
		g.Children = append(g.Children, pricing.RoomChildren{Room: rc.Room, Ages: rc.Ages})
	}
	return g
}

func toAddOns(dtos []AddOnDTO) []pricing.AddOn {
	addOns := make([]pricing.AddOn, len(dtos))
	for i, a := range dtos {
		addOns[i] = pricing.AddOn{Name: a.Name, Price: a.Price, Quantity: a.Quantity, PerNight: a.PerNight}
	}
	return addOns
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListCategories returns all room categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}

	dtos := make([]CategoryDTO, 0, len(records))
	for _, rec := range records {
		dto, err := h.toCategoryDTO(r.Context(), rec)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load category "+rec.ID, err)
			return
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCategory validates a category JSON and stores its canonical form.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	category, err := h.Catalog.ParseCategory(string(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid category", err)
		return
	}
	canonical, err := h.Catalog.Canonical(*category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode category", err)
		return
	}

	rec := sqlite.CategoryRecord{ID: string(category.ID), Name: category.Name, ConfigJSON: canonical}
	if err := h.Store.SaveCategory(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save category", err)
		return
	}

	saved, err := h.Store.GetCategory(r.Context(), rec.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload category", err)
		return
	}
	dto, err := h.toCategoryDTO(r.Context(), *saved)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load category", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

// GetCategory returns a category and its pricing config.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.Store.GetCategory(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get category", err)
		return
	}
	dto, err := h.toCategoryDTO(r.Context(), *rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load category", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// DeleteCategory removes a category; its pricing config goes with it.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteCategory(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete category", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// PutPricing replaces the dynamic pricing config of a category.
// PUT /api/categories/{id}/pricing
func (h *Handler) PutPricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	rec, err := h.Store.GetCategory(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to get category", err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cfg, err := h.Catalog.ParsePricing(string(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pricing config", err)
		return
	}
	canonical, err := h.Catalog.CanonicalPricing(*cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode pricing config", err)
		return
	}

	if err := h.Store.SavePricingConfig(ctx, sqlite.PricingConfigRecord{CategoryID: id, ConfigJSON: canonical}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save pricing config", err)
		return
	}

	dto, err := h.toCategoryDTO(ctx, *rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load category", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) toCategoryDTO(ctx context.Context, rec sqlite.CategoryRecord) (CategoryDTO, error) {
	dto := CategoryDTO{
		ID:        rec.ID,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
	if err := json.Unmarshal([]byte(rec.ConfigJSON), &dto.Config); err != nil {
		return dto, err
	}

	pr, err := h.Store.GetPricingConfig(ctx, rec.ID)
	if err != nil {
		return dto, err
	}
	if pr != nil {
		var pj factory.PricingJSON
		if err := json.Unmarshal([]byte(pr.ConfigJSON), &pj); err != nil {
			return dto, err
		}
		dto.Pricing = &pj
		dto.PricingVersion = pr.Version
	}
	return dto, nil
}

// =============================================================================
// BOOKING HANDLERS
// =============================================================================

// ListBookings returns bookings, newest first.
// GET /api/bookings?status=pending&limit=50
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	status := generic.BookingStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status", fmt.Errorf("unknown status %q", status))
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		writeDomainError(w, "Invalid limit", err)
		return
	}

	bookings, err := h.Bookings.ListBookings(r.Context(), status, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}

	dtos := make([]BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		dtos = append(dtos, toBookingDTO(b))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBooking records a reservation. Without an explicit total the stay
// is priced first and the quote total is stored.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateBookingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	b, err := h.bookingFromRequest(ctx, req)
	if err != nil {
		writeDomainError(w, "Failed to create booking", err)
		return
	}

	if err := h.Bookings.CreateBooking(ctx, b); err != nil {
		writeDomainError(w, "Failed to save booking", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingDTO(b))
}

func (h *Handler) bookingFromRequest(ctx context.Context, req CreateBookingRequest) (generic.Booking, error) {
	var b generic.Booking

	if strings.TrimSpace(req.CategoryID) == "" {
		return b, generic.NewValidationError("category_id", "is required")
	}
	if strings.TrimSpace(req.GuestName) == "" {
		return b, generic.NewValidationError("guest_name", "is required")
	}
	status := generic.StatusPending
	if req.Status != "" {
		status = generic.BookingStatus(req.Status)
		if !status.Valid() {
			return b, generic.NewValidationError("status", "unknown status %q", req.Status)
		}
	}
	payment := generic.PaymentUnpaid
	if req.PaymentStatus != "" {
		payment = generic.PaymentStatus(req.PaymentStatus)
	}

	stay, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return b, err
	}
	if err := stay.Validate(); err != nil {
		return b, err
	}

	var total decimal.Decimal
	if req.Total != nil {
		if req.Total.IsNegative() {
			return b, generic.NewValidationError("total", "must not be negative")
		}
		if _, err := h.Store.GetCategory(ctx, req.CategoryID); err != nil {
			return b, err
		}
		total = *req.Total
	} else {
		_, q, err := h.quote(ctx, req.QuoteRequest)
		if err != nil {
			return b, err
		}
		total = q.Breakdown.Total
	}

	now := h.now()
	createdAt := now
	if req.CreatedAt != "" {
		if createdAt, err = time.Parse(time.RFC3339, req.CreatedAt); err != nil {
			return b, generic.NewValidationError("created_at", "expected RFC3339, got %q", req.CreatedAt)
		}
	}

	id := req.ID
	if id == "" {
		id = "bk-" + uuid.NewString()
	}

	return generic.Booking{
		ID:            generic.BookingID(id),
		CategoryID:    generic.CategoryID(req.CategoryID),
		GuestName:     req.GuestName,
		GuestEmail:    req.GuestEmail,
		Status:        status,
		PaymentStatus: payment,
		DateFrom:      stay.CheckIn,
		DateTo:        stay.CheckOut,
		Total:         total,
		CreatedAt:     createdAt.UTC(),
		UpdatedAt:     now,
	}, nil
}

// GetBooking returns one booking.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := generic.BookingID(chi.URLParam(r, "id"))

	b, err := h.Bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get booking", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(*b))
}

// CancelBooking cancels one pending booking through the same conditional
// write the sweep uses. A booking that already left pending is a 409.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := generic.BookingID(chi.URLParam(r, "id"))

	var req CancelBookingRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = DefaultManualCancelReason
	}

	ok, err := h.Bookings.CancelIfPending(r.Context(), id, reason, h.now())
	if err == nil && !ok {
		err = generic.ErrNotPending
	}
	if err != nil {
		writeDomainError(w, "Failed to cancel booking", err)
		return
	}

	b, err := h.Bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get booking", err)
		return
	}
	log.Printf("[Bookings] %s cancelled: %s", id, reason)
	writeJSON(w, http.StatusOK, toBookingDTO(*b))
}

// =============================================================================
// ANALYTICS HANDLERS
// =============================================================================

// GetForecast projects one metric and adds dashboard insights.
// GET /api/analytics/forecast?metric=revenue&days_ahead=30&from=2025-01-01&to=2025-12-31
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	metric := forecast.MetricBookings
	if s := q.Get("metric"); s != "" {
		var err error
		if metric, err = forecast.ParseMetric(s); err != nil {
			writeDomainError(w, "Invalid metric", err)
			return
		}
	}
	daysAhead, err := queryInt(r, "days_ahead", defaultDaysAhead)
	if err != nil {
		writeDomainError(w, "Invalid days_ahead", err)
		return
	}
	if daysAhead < 1 || daysAhead > maxDaysAhead {
		writeDomainError(w, "Invalid days_ahead",
			generic.NewValidationError("days_ahead", "must be within 1..%d, got %d", maxDaysAhead, daysAhead))
		return
	}
	period, err := parsePeriod(q.Get("from"), q.Get("to"))
	if err != nil {
		writeDomainError(w, "Invalid period", err)
		return
	}

	history, err := h.Bookings.LoadHistory(r.Context(), period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}

	revenuePatterns := forecast.DetectSeasonality(history, forecast.MetricRevenue)
	patterns := revenuePatterns
	if metric != forecast.MetricRevenue {
		patterns = forecast.DetectSeasonality(history, metric)
	}

	bookings := h.Forecaster.ForecastBookings(history, daysAhead)
	revenue := h.Forecaster.ForecastRevenue(history, daysAhead, revenuePatterns)

	var result forecast.ForecastResult
	switch metric {
	case forecast.MetricBookings:
		result = bookings
	case forecast.MetricRevenue:
		result = revenue
	default:
		result = h.Forecaster.Forecast(metric, history, daysAhead, patterns)
	}

	writeJSON(w, http.StatusOK, ForecastResponse{
		Forecast:         toForecastDTO(result),
		Insights:         forecast.Insights(bookings, revenue, revenuePatterns),
		SeasonalPatterns: toSeasonalPatternDTOs(patterns),
	})
}

// GetSeasonality returns monthly multipliers for a metric (default revenue).
func (h *Handler) GetSeasonality(w http.ResponseWriter, r *http.Request) {
	metric := forecast.MetricRevenue
	if s := r.URL.Query().Get("metric"); s != "" {
		var err error
		if metric, err = forecast.ParseMetric(s); err != nil {
			writeDomainError(w, "Invalid metric", err)
			return
		}
	}

	history, err := h.Bookings.LoadHistory(r.Context(), generic.Period{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}

	patterns := forecast.DetectSeasonality(history, metric)
	resp := SeasonalityResponse{
		Metric:     string(metric),
		DataPoints: len(history),
		Patterns:   toSeasonalPatternDTOs(patterns),
	}
	if peak, low, ok := forecast.Extremes(patterns); ok {
		dtos := toSeasonalPatternDTOs([]forecast.SeasonalPattern{peak, low})
		resp.Peak, resp.Low = &dtos[0], &dtos[1]
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// CANCELLATION HANDLERS
// =============================================================================

// RunCancellations runs one sweep immediately.
// POST /api/admin/cancellations/run
func (h *Handler) RunCancellations(w http.ResponseWriter, r *http.Request) {
	run, result, err := h.runSweep(r.Context(), "admin")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to run cancellation sweep", err)
		return
	}

	writeJSON(w, http.StatusOK, SweepDTO{
		RunID:          run.ID,
		Trigger:        run.Trigger,
		Status:         run.Status,
		StartedAt:      result.StartedAt.Format(time.RFC3339),
		CompletedAt:    result.CompletedAt.Format(time.RFC3339),
		CancelledCount: result.CancelledCount,
		Skipped:        result.Skipped,
		Cancelled:      toCandidateDTOs(result.Cancelled),
		Errors:         nonNil(result.Errors),
	})
}

// PreviewCancellations lists what a sweep would cancel right now.
func (h *Handler) PreviewCancellations(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.Sweeper.Preview(r.Context(), h.now())
	if err != nil {
		writeDomainError(w, "Failed to preview cancellations", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"as_of":      h.now().Format(time.RFC3339),
		"candidates": toCandidateDTOs(candidates),
	})
}

// ListCancellationRuns returns sweep history, newest first.
func (h *Handler) ListCancellationRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeDomainError(w, "Invalid limit", err)
		return
	}

	runs, err := h.Store.GetCancellationRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get cancellation runs", err)
		return
	}

	dtos := make([]CancellationRunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toCancellationRunDTO(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// runSweep runs the sweeper and records the run for audit.
func (h *Handler) runSweep(ctx context.Context, trigger string) (sqlite.CancellationRun, cancellation.Result, error) {
	startTime := h.now()
	run := sqlite.CancellationRun{
		ID:        "sweep-" + uuid.NewString(),
		Trigger:   trigger,
		Status:    "running",
		StartedAt: startTime,
	}
	if err := h.Store.SaveCancellationRun(ctx, run); err != nil {
		return run, cancellation.Result{}, fmt.Errorf("failed to save run record: %w", err)
	}

	result := h.Sweeper.Run(ctx, startTime)

	completedAt := result.CompletedAt
	run.CancelledCount = result.CancelledCount
	run.SkippedCount = result.Skipped
	run.Errors = result.Errors
	run.CompletedAt = &completedAt
	run.Status = "completed"
	if len(result.Errors) > 0 {
		run.Status = "completed_with_errors"
	}

	if err := h.Store.SaveCancellationRun(ctx, run); err != nil {
		return run, result, fmt.Errorf("failed to update run record: %w", err)
	}
	return run, result, nil
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) reset(ctx context.Context) error {
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	if h.Bookings != BookingBackend(h.Store) {
		if err := h.Bookings.Reset(ctx); err != nil {
			return err
		}
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error's category.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	resp := ErrorResponse{Error: message, Details: err.Error()}

	var ve *generic.ValidationError
	var ce *generic.ConfigurationError
	switch {
	case errors.As(err, &ve):
		resp.Field = ve.Field
	case errors.As(err, &ce):
		resp.Field = ce.Key
	}
	writeJSON(w, statusFor(err), resp)
}

func statusFor(err error) int {
	switch {
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, generic.ErrConfiguration):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, generic.NewValidationError(key, "expected an integer, got %q", s)
	}
	return n, nil
}

func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, generic.NewValidationError(field, "is required")
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, generic.NewValidationError(field, "expected YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

func parseStay(checkIn, checkOut string) (generic.DateRange, error) {
	in, err := parseDate("check_in", checkIn)
	if err != nil {
		return generic.DateRange{}, err
	}
	out, err := parseDate("check_out", checkOut)
	if err != nil {
		return generic.DateRange{}, err
	}
	return generic.DateRange{CheckIn: in, CheckOut: out}, nil
}

// parsePeriod accepts both, one or neither bound. A missing bound is open.
func parsePeriod(from, to string) (generic.Period, error) {
	var p generic.Period
	var err error
	if from != "" {
		if p.Start, err = parseDate("from", from); err != nil {
			return p, err
		}
	}
	if to != "" {
		if p.End, err = parseDate("to", to); err != nil {
			return p, err
		}
	}
	if p.IsZero() {
		return p, nil
	}
	if p.Start.IsZero() {
		p.Start = generic.Date(1970, time.January, 1)
	}
	if p.End.IsZero() {
		p.End = generic.Date(9999, time.December, 31)
	}
	if p.End.Before(p.Start) {
		return p, generic.NewValidationError("to", "must not be before from")
	}
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
