package factory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/revenue-engine/generic"
	"github.com/warp/revenue-engine/pricing"
)

const dateLayout = "2006-01-02"

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PricingJSON is the JSON representation of a DynamicPricingConfig.
type PricingJSON struct {
	Enabled                 bool                       `json:"enabled"`
	BasePrice               decimal.Decimal            `json:"base_price"`
	MinPrice                decimal.Decimal            `json:"min_price"`
	MaxPrice                decimal.Decimal            `json:"max_price"`
	SeasonalRates           *SeasonalRatesJSON         `json:"seasonal_rates,omitempty"`
	WeeklyRates             map[string]decimal.Decimal `json:"weekly_rates,omitempty"`
	DemandPricing           map[string]decimal.Decimal `json:"demand_pricing,omitempty"`
	AdvanceBookingDiscounts map[string]decimal.Decimal `json:"advance_booking_discounts,omitempty"`
	LastMinutePremium       decimal.Decimal            `json:"last_minute_premium"`
	EventPricing            []EventJSON                `json:"event_pricing,omitempty"`
}

type SeasonalRatesJSON struct {
	Peak     *SeasonRateJSON `json:"peak,omitempty"`
	OffPeak  *SeasonRateJSON `json:"off_peak,omitempty"`
	Shoulder *SeasonRateJSON `json:"shoulder,omitempty"`
}

type SeasonRateJSON struct {
	Multiplier decimal.Decimal `json:"multiplier"`
	Months     []int           `json:"months,omitempty"`
}

// EventJSON is an inclusive date window with a percent adjustment.
type EventJSON struct {
	Name              string          `json:"name"`
	From              string          `json:"from"` // YYYY-MM-DD
	To                string          `json:"to"`
	AdjustmentPercent decimal.Decimal `json:"adjustment_percent"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParsePricing parses and compiles a dynamic pricing configuration.
func (f *CatalogFactory) ParsePricing(jsonStr string) (*pricing.DynamicPricingConfig, error) {
	var pj PricingJSON
	if err := decodeStrict(jsonStr, &pj); err != nil {
		return nil, fmt.Errorf("failed to parse pricing JSON: %w", err)
	}
	return f.PricingFromJSON(pj)
}

// PricingFromJSON converts pj, validating every enum key, then compiles the
// result once so table errors surface here.
func (f *CatalogFactory) PricingFromJSON(pj PricingJSON) (*pricing.DynamicPricingConfig, error) {
	cfg := &pricing.DynamicPricingConfig{
		Enabled:           pj.Enabled,
		BasePrice:         pj.BasePrice,
		MinPrice:          pj.MinPrice,
		MaxPrice:          pj.MaxPrice,
		LastMinutePremium: pj.LastMinutePremium,
	}

	if sr := pj.SeasonalRates; sr != nil {
		var err error
		if cfg.SeasonalRates.Peak, err = parseSeasonRate("peak", sr.Peak); err != nil {
			return nil, err
		}
		if cfg.SeasonalRates.OffPeak, err = parseSeasonRate("off_peak", sr.OffPeak); err != nil {
			return nil, err
		}
		if cfg.SeasonalRates.Shoulder, err = parseSeasonRate("shoulder", sr.Shoulder); err != nil {
			return nil, err
		}
	}

	if len(pj.WeeklyRates) > 0 {
		cfg.WeeklyRates = make(map[time.Weekday]decimal.Decimal, len(pj.WeeklyRates))
		for _, key := range sortedKeys(pj.WeeklyRates) {
			day, err := parseWeekday(key)
			if err != nil {
				return nil, err
			}
			cfg.WeeklyRates[day] = pj.WeeklyRates[key]
		}
	}

	if len(pj.DemandPricing) > 0 {
		cfg.DemandPricing = make(map[pricing.DemandTier]decimal.Decimal, len(pj.DemandPricing))
		for _, key := range sortedKeys(pj.DemandPricing) {
			tier, err := parseDemandTier(key)
			if err != nil {
				return nil, err
			}
			cfg.DemandPricing[tier] = pj.DemandPricing[key]
		}
	}

	if len(pj.AdvanceBookingDiscounts) > 0 {
		cfg.AdvanceBookingDiscounts = make(map[pricing.LeadTimeTier]decimal.Decimal, len(pj.AdvanceBookingDiscounts))
		for _, key := range sortedKeys(pj.AdvanceBookingDiscounts) {
			tier, err := parseLeadTimeTier(key)
			if err != nil {
				return nil, err
			}
			cfg.AdvanceBookingDiscounts[tier] = pj.AdvanceBookingDiscounts[key]
		}
	}

	for _, ej := range pj.EventPricing {
		e, err := parseEvent(ej)
		if err != nil {
			return nil, err
		}
		cfg.EventPricing = append(cfg.EventPricing, e)
	}

	if _, err := pricing.NewAdjuster(*cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PricingToJSON converts a config back to its JSON form.
func (f *CatalogFactory) PricingToJSON(cfg pricing.DynamicPricingConfig) PricingJSON {
	pj := PricingJSON{
		Enabled:           cfg.Enabled,
		BasePrice:         cfg.BasePrice,
		MinPrice:          cfg.MinPrice,
		MaxPrice:          cfg.MaxPrice,
		LastMinutePremium: cfg.LastMinutePremium,
		SeasonalRates: &SeasonalRatesJSON{
			Peak:     seasonRateJSON(cfg.SeasonalRates.Peak),
			OffPeak:  seasonRateJSON(cfg.SeasonalRates.OffPeak),
			Shoulder: seasonRateJSON(cfg.SeasonalRates.Shoulder),
		},
	}
	if len(cfg.WeeklyRates) > 0 {
		pj.WeeklyRates = make(map[string]decimal.Decimal, len(cfg.WeeklyRates))
		for day, m := range cfg.WeeklyRates {
			pj.WeeklyRates[strings.ToLower(day.String())] = m
		}
	}
	if len(cfg.DemandPricing) > 0 {
		pj.DemandPricing = make(map[string]decimal.Decimal, len(cfg.DemandPricing))
		for tier, m := range cfg.DemandPricing {
			pj.DemandPricing[string(tier)] = m
		}
	}
	if len(cfg.AdvanceBookingDiscounts) > 0 {
		pj.AdvanceBookingDiscounts = make(map[string]decimal.Decimal, len(cfg.AdvanceBookingDiscounts))
		for tier, pct := range cfg.AdvanceBookingDiscounts {
			pj.AdvanceBookingDiscounts[string(tier)] = pct
		}
	}
	for _, e := range cfg.EventPricing {
		pj.EventPricing = append(pj.EventPricing, EventJSON{
			Name:              e.Name,
			From:              e.Window.Start.Format(dateLayout),
			To:                e.Window.End.Format(dateLayout),
			AdjustmentPercent: e.AdjustmentPercent,
		})
	}
	return pj
}

// CanonicalPricing re-encodes a parsed pricing config for storage.
func (f *CatalogFactory) CanonicalPricing(cfg pricing.DynamicPricingConfig) (string, error) {
	b, err := json.Marshal(f.PricingToJSON(cfg))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseSeasonRate(name string, sj *SeasonRateJSON) (pricing.SeasonRate, error) {
	if sj == nil {
		return pricing.SeasonRate{}, nil
	}
	rate := pricing.SeasonRate{Multiplier: sj.Multiplier}
	for _, m := range sj.Months {
		if m < 1 || m > 12 {
			return pricing.SeasonRate{}, generic.NewConfigurationError("seasonal_rates."+name, "unknown month %d", m)
		}
		rate.Months = append(rate.Months, time.Month(m))
	}
	return rate, nil
}

func seasonRateJSON(r pricing.SeasonRate) *SeasonRateJSON {
	sj := &SeasonRateJSON{Multiplier: r.Multiplier}
	for _, m := range r.Months {
		sj.Months = append(sj.Months, int(m))
	}
	return sj
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, generic.NewConfigurationError("weekly_rates", "unknown weekday %q", s)
}

func parseDemandTier(s string) (pricing.DemandTier, error) {
	for _, t := range pricing.DemandTiers {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", generic.NewConfigurationError("demand_pricing", "unknown tier %q", s)
}

func parseLeadTimeTier(s string) (pricing.LeadTimeTier, error) {
	for _, t := range pricing.LeadTimeTiers {
		if s == string(t) {
			return t, nil
		}
	}
	return "", generic.NewConfigurationError("advance_booking_discounts", "unknown tier %q", s)
}

func parseEvent(ej EventJSON) (pricing.Event, error) {
	from, err := time.Parse(dateLayout, ej.From)
	if err != nil {
		return pricing.Event{}, generic.NewConfigurationError("event_pricing", "event %q: bad from date %q", ej.Name, ej.From)
	}
	to, err := time.Parse(dateLayout, ej.To)
	if err != nil {
		return pricing.Event{}, generic.NewConfigurationError("event_pricing", "event %q: bad to date %q", ej.Name, ej.To)
	}
	return pricing.Event{
		Name:              ej.Name,
		Window:            generic.Period{Start: from, End: to},
		AdjustmentPercent: ej.AdjustmentPercent,
	}, nil
}
