/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types
  (pricing.Quote, forecast.ForecastResult, generic.Booking) stay free of
  JSON tags; these types carry the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts are decimal.Decimal and serialize as JSON strings ("8951"), so
  clients never see float rounding.

TYPES:
  Quotes:       QuoteRequest, QuoteDTO, BreakdownDTO, NightDTO
  Catalog:      CategoryDTO
  Bookings:     CreateBookingRequest, BookingDTO
  Analytics:    ForecastResponse, ForecastDTO, SeasonalPatternDTO
  Cancellation: CandidateDTO, SweepDTO, CancellationRunDTO
  Scenarios:    ScenarioDTO, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
  - factory/category.go, factory/pricing.go: catalog JSON schemas
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/revenue-engine/cancellation"
	"github.com/warp/revenue-engine/factory"
	"github.com/warp/revenue-engine/forecast"
	"github.com/warp/revenue-engine/generic"
	"github.com/warp/revenue-engine/pricing"
	"github.com/warp/revenue-engine/store/sqlite"
)

const dateLayout = "2006-01-02"

// =============================================================================
// QUOTES
// =============================================================================

// RoomChildrenDTO lists child ages for one room (1-based).
type RoomChildrenDTO struct {
	Room int   `json:"room"`
	Ages []int `json:"ages"`
}

// AddOnDTO is an optional extra priced with the stay.
type AddOnDTO struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	PerNight bool            `json:"per_night,omitempty"`
}

// QuoteRequest is the body of POST /api/quotes.
type QuoteRequest struct {
	CategoryID string            `json:"category_id"`
	CheckIn    string            `json:"check_in"`  // YYYY-MM-DD
	CheckOut   string            `json:"check_out"` // YYYY-MM-DD
	Rooms      int               `json:"rooms"`
	Adults     int               `json:"adults"`
	Children   []RoomChildrenDTO `json:"children,omitempty"`
	MealPlan   string            `json:"meal_plan"`

	// OccupancyTier overrides the derived tier (single, double, triple, quad).
	OccupancyTier string `json:"occupancy_tier,omitempty"`

	// Either a per-person-per-night meal price or an already priced total.
	MealPricePerPerson *decimal.Decimal `json:"meal_price_per_person,omitempty"`
	MealTotal          *decimal.Decimal `json:"meal_total,omitempty"`

	// Either itemized add-ons or an already priced total.
	AddOns      []AddOnDTO       `json:"add_ons,omitempty"`
	AddOnsTotal *decimal.Decimal `json:"add_ons_total,omitempty"`

	// UseDynamic defaults to true when the category has a pricing config.
	UseDynamic        *bool    `json:"use_dynamic,omitempty"`
	ExpectedOccupancy *float64 `json:"expected_occupancy,omitempty"`

	// Now (RFC3339) pins the lead-time anchor, for what-if quotes.
	Now string `json:"now,omitempty"`
}

type BreakdownDTO struct {
	BaseRoomTotal    decimal.Decimal `json:"base_room_total"`
	ExtraGuestCharge decimal.Decimal `json:"extra_guest_charge"`
	ExtraGuests      int             `json:"extra_guests"`
	MealTotal        decimal.Decimal `json:"meal_total"`
	AddOnsTotal      decimal.Decimal `json:"add_ons_total"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Taxes            decimal.Decimal `json:"taxes"`
	ServiceFee       decimal.Decimal `json:"service_fee"`
	Total            decimal.Decimal `json:"total"`
}

type NightDTO struct {
	Date    string          `json:"date"`
	Season  string          `json:"season,omitempty"`
	Price   decimal.Decimal `json:"price"`
	Clamped bool            `json:"clamped,omitempty"`
}

// QuoteDTO is a priced stay.
type QuoteDTO struct {
	CategoryID    string          `json:"category_id"`
	CheckIn       string          `json:"check_in"`
	CheckOut      string          `json:"check_out"`
	Nights        int             `json:"nights"`
	Rooms         int             `json:"rooms"`
	MealPlan      string          `json:"meal_plan"`
	OccupancyTier string          `json:"occupancy_tier"`
	MatrixRate    decimal.Decimal `json:"matrix_rate"`
	Dynamic       bool            `json:"dynamic"`
	LeadDays      *int            `json:"lead_days,omitempty"`
	LeadTimeTier  string          `json:"lead_time_tier,omitempty"`
	LastMinute    bool            `json:"last_minute,omitempty"`
	NightlyRates  []NightDTO      `json:"nightly_rates,omitempty"`
	Breakdown     BreakdownDTO    `json:"breakdown"`
}

func toQuoteDTO(categoryID string, in pricing.QuoteInput, q *pricing.Quote) QuoteDTO {
	b := q.Breakdown
	dto := QuoteDTO{
		CategoryID:    categoryID,
		CheckIn:       in.Stay.CheckIn.Format(dateLayout),
		CheckOut:      in.Stay.CheckOut.Format(dateLayout),
		Nights:        q.Nights,
		Rooms:         q.Rooms,
		MealPlan:      string(in.MealPlan),
		OccupancyTier: q.Tier.String(),
		MatrixRate:    q.MatrixRate,
		Breakdown: BreakdownDTO{
			BaseRoomTotal:    b.BaseRoomTotal,
			ExtraGuestCharge: b.ExtraGuestCharge,
			ExtraGuests:      b.ExtraGuests,
			MealTotal:        b.MealTotal,
			AddOnsTotal:      b.AddOnsTotal,
			Subtotal:         b.Subtotal,
			Taxes:            b.Taxes,
			ServiceFee:       b.ServiceFee,
			Total:            b.Total,
		},
	}
	if d := q.Dynamic; d != nil {
		leadDays := d.LeadDays
		dto.Dynamic = true
		dto.LeadDays = &leadDays
		dto.LeadTimeTier = string(d.LeadTimeTier)
		dto.LastMinute = d.LastMinute
		for _, n := range d.Nights {
			dto.NightlyRates = append(dto.NightlyRates, NightDTO{
				Date:    n.Date.Format(dateLayout),
				Season:  string(n.Season),
				Price:   n.Price,
				Clamped: n.Clamped,
			})
		}
	}
	return dto
}

// =============================================================================
// CATALOG
// =============================================================================

// CategoryDTO is a room category with its optional dynamic pricing.
type CategoryDTO struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Config         factory.CategoryJSON `json:"config"`
	Pricing        *factory.PricingJSON `json:"pricing,omitempty"`
	PricingVersion int                  `json:"pricing_version,omitempty"`
	CreatedAt      string               `json:"created_at,omitempty"`
	UpdatedAt      string               `json:"updated_at,omitempty"`
}

// =============================================================================
// BOOKINGS
// =============================================================================

// CreateBookingRequest records a reservation. When Total is omitted the
// embedded quote fields are priced and the quote total is stored.
type CreateBookingRequest struct {
	ID            string           `json:"id,omitempty"`
	GuestName     string           `json:"guest_name"`
	GuestEmail    string           `json:"guest_email"`
	Status        string           `json:"status,omitempty"`
	PaymentStatus string           `json:"payment_status,omitempty"`
	Total         *decimal.Decimal `json:"total,omitempty"`

	// CreatedAt (RFC3339) backdates the booking, for imports.
	CreatedAt string `json:"created_at,omitempty"`

	QuoteRequest
}

type BookingDTO struct {
	ID                 string          `json:"id"`
	CategoryID         string          `json:"category_id"`
	GuestName          string          `json:"guest_name"`
	GuestEmail         string          `json:"guest_email,omitempty"`
	Status             string          `json:"status"`
	PaymentStatus      string          `json:"payment_status"`
	DateFrom           string          `json:"date_from"`
	DateTo             string          `json:"date_to"`
	Total              decimal.Decimal `json:"total"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	CancelledAt        string          `json:"cancelled_at,omitempty"`
	CreatedAt          string          `json:"created_at"`
	UpdatedAt          string          `json:"updated_at"`
}

func toBookingDTO(b generic.Booking) BookingDTO {
	dto := BookingDTO{
		ID:                 string(b.ID),
		CategoryID:         string(b.CategoryID),
		GuestName:          b.GuestName,
		GuestEmail:         b.GuestEmail,
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		DateFrom:           b.DateFrom.Format(dateLayout),
		DateTo:             b.DateTo.Format(dateLayout),
		Total:              b.Total,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          b.UpdatedAt.Format(time.RFC3339),
	}
	if b.CancelledAt != nil {
		dto.CancelledAt = b.CancelledAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// ANALYTICS
// =============================================================================

type ForecastDTO struct {
	Metric        string  `json:"metric"`
	Predicted     float64 `json:"predicted"`
	Confidence    float64 `json:"confidence"`
	Trend         string  `json:"trend"`
	ChangePercent float64 `json:"change_percent"`
	DaysAhead     int     `json:"days_ahead"`
	TargetDate    string  `json:"target_date,omitempty"`
	DataPoints    int     `json:"data_points"`
	Slope         float64 `json:"slope"`
	RSquared      float64 `json:"r_squared"`
}

func toForecastDTO(r forecast.ForecastResult) ForecastDTO {
	dto := ForecastDTO{
		Metric:        string(r.Metric),
		Predicted:     r.Predicted,
		Confidence:    r.Confidence,
		Trend:         string(r.Trend),
		ChangePercent: r.ChangePercent,
		DaysAhead:     r.DaysAhead,
		DataPoints:    r.Points,
		Slope:         r.Fit.Slope,
		RSquared:      r.Fit.RSquared,
	}
	if !r.TargetDate.IsZero() {
		dto.TargetDate = r.TargetDate.Format(dateLayout)
	}
	return dto
}

type SeasonalPatternDTO struct {
	Month      int     `json:"month"`
	MonthName  string  `json:"month_name"`
	Multiplier float64 `json:"multiplier"`
	Confidence float64 `json:"confidence"`
}

func toSeasonalPatternDTOs(patterns []forecast.SeasonalPattern) []SeasonalPatternDTO {
	dtos := make([]SeasonalPatternDTO, 0, len(patterns))
	for _, p := range patterns {
		dtos = append(dtos, SeasonalPatternDTO{
			Month:      int(p.Month),
			MonthName:  p.Month.String(),
			Multiplier: p.Multiplier,
			Confidence: p.Confidence,
		})
	}
	return dtos
}

// ForecastResponse is the body of GET /api/analytics/forecast.
type ForecastResponse struct {
	Forecast         ForecastDTO          `json:"forecast"`
	Insights         []string             `json:"insights"`
	SeasonalPatterns []SeasonalPatternDTO `json:"seasonal_patterns"`
}

// SeasonalityResponse is the body of GET /api/analytics/seasonality.
type SeasonalityResponse struct {
	Metric     string               `json:"metric"`
	DataPoints int                  `json:"data_points"`
	Patterns   []SeasonalPatternDTO `json:"patterns"`
	Peak       *SeasonalPatternDTO  `json:"peak,omitempty"`
	Low        *SeasonalPatternDTO  `json:"low,omitempty"`
}

// =============================================================================
// CANCELLATION
// =============================================================================

type CandidateDTO struct {
	BookingID string `json:"booking_id"`
	GuestName string `json:"guest_name"`
	CreatedAt string `json:"created_at"`
	DateFrom  string `json:"date_from"`
	Reason    string `json:"reason"`
}

func toCandidateDTOs(candidates []cancellation.Candidate) []CandidateDTO {
	dtos := make([]CandidateDTO, 0, len(candidates))
	for _, c := range candidates {
		dtos = append(dtos, CandidateDTO{
			BookingID: string(c.Booking.ID),
			GuestName: c.Booking.GuestName,
			CreatedAt: c.Booking.CreatedAt.Format(time.RFC3339),
			DateFrom:  c.Booking.DateFrom.Format(dateLayout),
			Reason:    c.Reason,
		})
	}
	return dtos
}

// SweepDTO reports one cancellation sweep.
type SweepDTO struct {
	RunID          string         `json:"run_id"`
	Trigger        string         `json:"trigger"`
	Status         string         `json:"status"`
	StartedAt      string         `json:"started_at"`
	CompletedAt    string         `json:"completed_at"`
	CancelledCount int            `json:"cancelled_count"`
	Skipped        int            `json:"skipped"`
	Cancelled      []CandidateDTO `json:"cancelled"`
	Errors         []string       `json:"errors"`
}

type CancellationRunDTO struct {
	ID             string   `json:"id"`
	Trigger        string   `json:"trigger"`
	Status         string   `json:"status"`
	CancelledCount int      `json:"cancelled_count"`
	SkippedCount   int      `json:"skipped_count"`
	Errors         []string `json:"errors,omitempty"`
	StartedAt      string   `json:"started_at"`
	CompletedAt    string   `json:"completed_at,omitempty"`
}

func toCancellationRunDTO(run sqlite.CancellationRun) CancellationRunDTO {
	dto := CancellationRunDTO{
		ID:             run.ID,
		Trigger:        run.Trigger,
		Status:         run.Status,
		CancelledCount: run.CancelledCount,
		SkippedCount:   run.SkippedCount,
		Errors:         run.Errors,
		StartedAt:      run.StartedAt.Format(time.RFC3339),
	}
	if run.CompletedAt != nil {
		dto.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// CancelBookingRequest is the optional body of POST /bookings/{id}/cancel.
type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}
