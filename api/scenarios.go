/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the stores with realistic
	data for demos of the dashboard: room categories with pricing configs,
	a daily analytics series, and bookings in various states.

AVAILABLE SCENARIOS:

	demo-resort:    Three categories, 15 months of daily stats, mixed bookings
	stale-pending:  Pending bookings inside each cancellation window
	new-property:   Five days of history; forecasts report insufficient data

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create categories and pricing configs via factory presets
 3. Generate the daily stats series
 4. Create bookings (guest names from faker, totals from the quote engine)

Faker is seeded, so a scenario loaded twice on the same day produces the
same data.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "stale-pending"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
  - factory/presets.go: Category and pricing JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/jaswdr/faker"
	"github.com/shopspring/decimal"
	"github.com/warp/revenue-engine/factory"
	"github.com/warp/revenue-engine/generic"
	"github.com/warp/revenue-engine/store/sqlite"
)

const scenarioSeed = 20240601

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "demo-resort",
		Name:        "Demo Resort",
		Description: "Three room categories with dynamic pricing, 15 months of daily stats and a mix of bookings",
	},
	{
		ID:          "stale-pending",
		Name:        "Stale Pending Bookings",
		Description: "Unpaid bookings past each cancellation window, ready for a sweep",
	},
	{
		ID:          "new-property",
		Name:        "New Property",
		Description: "One category and five days of history: forecasts report insufficient data",
	},
}

// Monthly demand shape of the demo resort: winter peak, monsoon trough.
var demoSeasonality = map[time.Month]float64{
	time.January: 1.35, time.February: 1.10, time.March: 1.00, time.April: 0.95,
	time.May: 0.90, time.June: 0.70, time.July: 0.65, time.August: 0.70,
	time.September: 0.85, time.October: 1.00, time.November: 1.15, time.December: 1.45,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the stores and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.loadScenario(r.Context(), req.ScenarioID); err != nil {
		if generic.IsClientError(err) {
			writeDomainError(w, "Unknown scenario", err)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

func (h *Handler) loadScenario(ctx context.Context, id string) error {
	var loader func(context.Context, faker.Faker) error
	switch id {
	case "demo-resort":
		loader = h.loadDemoResortScenario
	case "stale-pending":
		loader = h.loadStalePendingScenario
	case "new-property":
		loader = h.loadNewPropertyScenario
	default:
		return generic.NewValidationError("scenario_id", "unknown scenario %q", id)
	}

	if err := h.reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	fake := faker.NewWithSeed(rand.NewSource(scenarioSeed))
	if err := loader(ctx, fake); err != nil {
		return err
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadDemoResortScenario(ctx context.Context, fake faker.Faker) error {
	categories := []struct {
		id, name string
		rate     float64
		dynamic  bool
	}{
		{"standard", "Standard Room", 1800, false},
		{"deluxe", "Deluxe Room", 2500, true},
		{"suite", "Garden Suite", 4200, true},
	}
	for _, c := range categories {
		pricingJSON := ""
		if c.dynamic {
			pricingJSON = factory.SeasonalPricingJSON(c.rate)
		}
		if err := h.createCategoryFromJSON(ctx, factory.StandardRoomJSON(c.id, c.name, c.rate), pricingJSON); err != nil {
			return err
		}
	}

	today := generic.StartOfDay(h.now())
	history := demoHistory(fake, today, 450, 18, 40)
	if err := h.Bookings.SaveDailyStats(ctx, history); err != nil {
		return fmt.Errorf("daily stats: %w", err)
	}

	plans := []string{"EP", "CP", "MAP", "AP"}
	now := h.now()
	for i := 0; i < 24; i++ {
		c := categories[fake.IntBetween(0, len(categories)-1)]
		checkIn := today.AddDate(0, 0, fake.IntBetween(0, 64)-4)
		nights := fake.IntBetween(1, 5)

		req := QuoteRequest{
			CategoryID: c.id,
			CheckIn:    checkIn.Format(dateLayout),
			CheckOut:   checkIn.AddDate(0, 0, nights).Format(dateLayout),
			Rooms:      1,
			Adults:     fake.IntBetween(1, 3),
			MealPlan:   plans[fake.IntBetween(0, len(plans)-1)],
		}
		_, q, err := h.quote(ctx, req)
		if err != nil {
			return fmt.Errorf("quote for demo booking %d: %w", i, err)
		}

		status := generic.StatusConfirmed
		payment := generic.PaymentPaid
		createdAt := now.Add(-time.Duration(fake.IntBetween(48, 24*30)) * time.Hour)
		switch roll := fake.IntBetween(1, 100); {
		case roll <= 25:
			status, payment = generic.StatusPending, generic.PaymentUnpaid
			createdAt = now.Add(-time.Duration(fake.IntBetween(5, 60*30)) * time.Minute)
		case roll <= 35:
			status, payment = generic.StatusCancelled, generic.PaymentRefunded
		case checkIn.Before(today):
			status = generic.StatusCompleted
		}

		b := generic.Booking{
			ID:            generic.BookingID(fmt.Sprintf("bk-demo-%03d", i+1)),
			CategoryID:    generic.CategoryID(c.id),
			GuestName:     fake.Person().Name(),
			GuestEmail:    fake.Internet().Email(),
			Status:        status,
			PaymentStatus: payment,
			DateFrom:      checkIn,
			DateTo:        checkIn.AddDate(0, 0, nights),
			Total:         q.Breakdown.Total,
			CreatedAt:     createdAt,
			UpdatedAt:     createdAt,
		}
		if status == generic.StatusCancelled {
			cancelledAt := createdAt.Add(2 * time.Hour)
			b.CancelledAt = &cancelledAt
			b.CancellationReason = "guest request"
		}
		if err := h.Bookings.SaveBooking(ctx, b); err != nil {
			return fmt.Errorf("save booking %s: %w", b.ID, err)
		}
	}
	return nil
}

func (h *Handler) loadStalePendingScenario(ctx context.Context, fake faker.Faker) error {
	if err := h.createCategoryFromJSON(ctx, factory.StandardRoomJSON("standard", "Standard Room", 2000), ""); err != nil {
		return err
	}

	now := h.now()
	today := generic.StartOfDay(now)
	groups := []struct {
		prefix  string
		count   int
		status  generic.BookingStatus
		age     time.Duration
		checkIn time.Time
	}{
		{"unpaid-1h", 3, generic.StatusPending, 2 * time.Hour, today.AddDate(0, 0, 10)},
		{"unpaid-24h", 2, generic.StatusPending, 30 * time.Hour, today.AddDate(0, 0, 14)},
		{"past-checkin", 2, generic.StatusPending, 20 * time.Minute, today.AddDate(0, 0, -1)},
		{"fresh", 3, generic.StatusPending, 10 * time.Minute, today.AddDate(0, 0, 7)},
		{"confirmed", 4, generic.StatusConfirmed, 72 * time.Hour, today.AddDate(0, 0, -2)},
	}

	for _, g := range groups {
		for i := 1; i <= g.count; i++ {
			createdAt := now.Add(-g.age)
			payment := generic.PaymentUnpaid
			if g.status == generic.StatusConfirmed {
				payment = generic.PaymentPaid
			}
			b := generic.Booking{
				ID:            generic.BookingID(fmt.Sprintf("bk-%s-%d", g.prefix, i)),
				CategoryID:    "standard",
				GuestName:     fake.Person().Name(),
				GuestEmail:    fake.Internet().Email(),
				Status:        g.status,
				PaymentStatus: payment,
				DateFrom:      g.checkIn,
				DateTo:        g.checkIn.AddDate(0, 0, 2),
				Total:         decimal.NewFromInt(int64(fake.IntBetween(40, 90) * 100)),
				CreatedAt:     createdAt,
				UpdatedAt:     createdAt,
			}
			if err := h.Bookings.SaveBooking(ctx, b); err != nil {
				return fmt.Errorf("save booking %s: %w", b.ID, err)
			}
		}
	}
	return nil
}

func (h *Handler) loadNewPropertyScenario(ctx context.Context, fake faker.Faker) error {
	if err := h.createCategoryFromJSON(ctx,
		factory.StandardRoomJSON("cottage", "Hill Cottage", 3200),
		factory.SeasonalPricingJSON(3200),
	); err != nil {
		return err
	}

	history := demoHistory(fake, generic.StartOfDay(h.now()), 5, 4, 12)
	if err := h.Bookings.SaveDailyStats(ctx, history); err != nil {
		return fmt.Errorf("daily stats: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// demoHistory generates days of stats ending yesterday. Bookings follow the
// monthly demand shape with a weekend uplift, slow growth and faker noise.
func demoHistory(fake faker.Faker, today time.Time, days int, baseBookings float64, rooms int) []generic.HistoricalDataPoint {
	points := make([]generic.HistoricalDataPoint, 0, days)
	for i := days; i >= 1; i-- {
		day := today.AddDate(0, 0, -i)
		season := demoSeasonality[day.Month()]

		expected := baseBookings * season * (1 + 0.0004*float64(days-i))
		if wd := day.Weekday(); wd == time.Friday || wd == time.Saturday {
			expected *= 1.2
		}
		count := int(math.Round(expected)) + fake.IntBetween(0, 6) - 3
		if count < 0 {
			count = 0
		}

		avgRate := decimal.NewFromFloat(2600 * season).Round(0)
		occupancy := math.Min(100, math.Round(float64(count)*1000/float64(rooms))/10)

		points = append(points, generic.HistoricalDataPoint{
			Date:          day,
			BookingsCount: count,
			Revenue:       avgRate.Mul(decimal.NewFromInt(int64(count))),
			OccupancyRate: occupancy,
		})
	}
	return points
}

// createCategoryFromJSON validates and stores a category and, when given,
// its pricing config.
func (h *Handler) createCategoryFromJSON(ctx context.Context, categoryJSON, pricingJSON string) error {
	category, err := h.Catalog.ParseCategory(categoryJSON)
	if err != nil {
		return fmt.Errorf("failed to parse category: %w", err)
	}
	canonical, err := h.Catalog.Canonical(*category)
	if err != nil {
		return err
	}
	if err := h.Store.SaveCategory(ctx, sqlite.CategoryRecord{
		ID:         string(category.ID),
		Name:       category.Name,
		ConfigJSON: canonical,
	}); err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}

	if pricingJSON == "" {
		return nil
	}
	cfg, err := h.Catalog.ParsePricing(pricingJSON)
	if err != nil {
		return fmt.Errorf("failed to parse pricing for %s: %w", category.ID, err)
	}
	canonicalPricing, err := h.Catalog.CanonicalPricing(*cfg)
	if err != nil {
		return err
	}
	return h.Store.SavePricingConfig(ctx, sqlite.PricingConfigRecord{
		CategoryID: string(category.ID),
		ConfigJSON: canonicalPricing,
	})
}

// Preload loads a scenario outside of HTTP, for the server's --scenario flag.
func (h *Handler) Preload(ctx context.Context, id string) error {
	return h.loadScenario(ctx, id)
}
