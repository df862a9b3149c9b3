package moex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// getterFunc computes a virtual property from a security's market-data
// snapshot. The snapshot is loaded before the getter runs.
type getterFunc func(ctx context.Context, s *Security, args []any) (any, error)

// marketKind is the behavior table of one market family: a remap of virtual
// properties onto loaded description fields, a remap onto snapshot fields,
// and the computed getters that need argument-dependent logic. Kinds are
// plain values selected by (engine id, market id); every market of an
// unlisted pair behaves generically.
type marketKind struct {
	remap   map[string]string
	fields  map[string]string
	getters map[string]getterFunc
}

var marketKinds = map[string]*marketKind{
	"stock/shares":  sharesKind,
	"stock/bonds":   bondsKind,
	"stock/index":   indexKind,
	"futures/forts": fortsKind,
	"currency/selt": seltKind,
}

func kindFor(engineID, marketID string) *marketKind {
	if k, ok := marketKinds[engineID+"/"+marketID]; ok {
		return k
	}
	return genericKind
}

// newMarketKind assembles a kind from its snapshot field table and the
// change/lastupdate getters, wiring in the getters every kind shares.
func newMarketKind(fields map[string]string, change, lastUpdate getterFunc, extra map[string]getterFunc) *marketKind {
	getters := map[string]getterFunc{
		"volume":     volumeGetter,
		"change":     change,
		"lastupdate": lastUpdate,
		"dailychange": func(ctx context.Context, s *Security, _ []any) (any, error) {
			return change(ctx, s, []any{"day", "points"})
		},
		"dailypercentagechange": func(ctx context.Context, s *Security, _ []any) (any, error) {
			return change(ctx, s, []any{"day", "%"})
		},
	}
	for name, g := range extra {
		getters[name] = g
	}

	return &marketKind{
		remap:   map[string]string{"ticker": "secid"},
		fields:  fields,
		getters: getters,
	}
}

var (
	genericKind = newMarketKind(
		map[string]string{
			"lastprice":    "last",
			"openingprice": "open",
			"dailylow":     "low",
			"dailyhigh":    "high",
		},
		dayChangeGetter("lasttoprevprice", "change"),
		lastUpdateFromSystime,
		nil,
	)

	sharesKind = newMarketKind(
		map[string]string{
			"lastprice":    "last",
			"openingprice": "open",
			"dailylow":     "low",
			"dailyhigh":    "high",
		},
		dayChangeGetter("lasttoprevprice", "change"),
		lastUpdateFromSystime,
		map[string]getterFunc{
			"closingprice": sharesClosingPrice,
		},
	)

	bondsKind = newMarketKind(
		map[string]string{
			"lastprice":    "last",
			"openingprice": "open",
			"dailylow":     "low",
			"dailyhigh":    "high",
			"yield":        "yield",
		},
		dayChangeGetter("lasttoprevprice", "change"),
		lastUpdateFromSystime,
		nil,
	)

	indexKind = newMarketKind(
		map[string]string{
			"value":         "currentvalue",
			"openingvalue":  "openvalue",
			"previousclose": "lastvalue",
			"dailylow":      "low",
			"dailyhigh":     "high",
		},
		indexChange,
		lastUpdateFromTradeDate,
		map[string]getterFunc{
			"capitalization": indexCapitalization,
		},
	)

	fortsKind = newMarketKind(
		map[string]string{
			"lastprice":    "last",
			"openingprice": "open",
			"closingprice": "settleprice",
			"dailylow":     "low",
			"dailyhigh":    "high",
		},
		dayChangeGetter("lastchangeprcnt", "lastchange"),
		lastUpdateFromTradeDate,
		nil,
	)

	seltKind = newMarketKind(
		map[string]string{
			"lastprice":    "last",
			"openingprice": "open",
			"closingprice": "closeprice",
			"dailylow":     "low",
			"dailyhigh":    "high",
		},
		dayChangeGetter("lasttoprevprice", "change"),
		lastUpdateFromSystime,
		nil,
	)
)

// argString extracts an optional string argument, falling back to def.
func argString(args []any, i int, def string) (string, error) {
	if len(args) <= i || args[i] == nil {
		return def, nil
	}
	s, ok := args[i].(string)
	if !ok {
		return "", &InvalidArgumentError{
			Message: fmt.Sprintf("argument %d must be a string", i),
		}
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

// volumeGetter reads the traded value field for the requested currency.
func volumeGetter(_ context.Context, s *Security, args []any) (any, error) {
	currency, err := argString(args, 0, "rub")
	if err != nil {
		return nil, err
	}
	currency, err = normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	field := "valtoday"
	if currency == "usd" {
		field += "_usd"
	}
	return s.marketData[field], nil
}

// dayChangeGetter builds the change getter of the day-only markets: the
// measure picks between a percentage field and an absolute one.
func dayChangeGetter(pctField, absField string) getterFunc {
	return func(_ context.Context, s *Security, args []any) (any, error) {
		rng, err := argString(args, 0, "day")
		if err != nil {
			return nil, err
		}
		if strings.ToLower(rng) != "day" {
			return nil, &InvalidArgumentError{
				Message: `unsupported range: available ranges are "day"`,
			}
		}

		measure, err := argString(args, 1, "points")
		if err != nil {
			return nil, err
		}

		field := absField
		if measure == "%" {
			field = pctField
		}
		return s.marketData[field], nil
	}
}

// indexChange supports day, month-to-date and year-to-date ranges measured in
// basis points or percent.
func indexChange(_ context.Context, s *Security, args []any) (any, error) {
	rng, err := argString(args, 0, "day")
	if err != nil {
		return nil, err
	}

	prefix, ok := map[string]string{
		"day": "last",
		"mtd": "month",
		"ytd": "year",
	}[strings.ToLower(rng)]
	if !ok {
		return nil, &InvalidArgumentError{
			Message: `unsupported range: available ranges are "MTD", "YTD" and "day"`,
		}
	}

	measure, err := argString(args, 1, "bp")
	if err != nil {
		return nil, err
	}
	var suffix string
	switch measure {
	case "bp", "points":
		suffix = "bp"
	case "%":
		suffix = "prc"
	default:
		return nil, &InvalidArgumentError{
			Message: `unsupported measure: available measures are "bp", "points" and "%"`,
		}
	}

	return s.marketData[prefix+"change"+suffix], nil
}

// indexCapitalization reads the index capitalization for the requested
// currency.
func indexCapitalization(_ context.Context, s *Security, args []any) (any, error) {
	currency, err := argString(args, 0, "rub")
	if err != nil {
		return nil, err
	}
	currency, err = normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	field := "capitalization"
	if currency == "usd" {
		field += "_usd"
	}
	return s.marketData[field], nil
}

// sharesClosingPrice prefers the official legal closing price and falls back
// to the previous session's price when the former is not yet published.
func sharesClosingPrice(_ context.Context, s *Security, _ []any) (any, error) {
	if v := s.marketData["lcloseprice"]; !emptyValue(v) {
		return v, nil
	}
	if v, ok := s.marketData["prevprice"]; ok && !emptyValue(v) {
		return v, nil
	}
	v, _ := s.Property("prevprice")
	return v, nil
}

// lastUpdateFromSystime derives the snapshot timestamp from the SYSTIME date
// part plus UPDATETIME.
func lastUpdateFromSystime(_ context.Context, s *Security, _ []any) (any, error) {
	date, _, _ := strings.Cut(s.marketData.String("systime"), " ")
	return parseSnapshotTime(date, s.marketData.String("updatetime"), s.session.loc)
}

// lastUpdateFromTradeDate derives the snapshot timestamp from TRADEDATE plus
// UPDATETIME.
func lastUpdateFromTradeDate(_ context.Context, s *Security, _ []any) (any, error) {
	return parseSnapshotTime(s.marketData.String("tradedate"), s.marketData.String("updatetime"), s.session.loc)
}

func parseSnapshotTime(date, clock string, loc *time.Location) (time.Time, error) {
	ts, err := time.ParseInLocation(timestampFormat, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, &EmptyResultError{What: "snapshot timestamp"}
	}
	return ts, nil
}

// emptyValue mirrors the wire's notion of an absent value: null, an empty
// string, or a numeric zero.
func emptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	default:
		return false
	}
}
