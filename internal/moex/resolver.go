package moex

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Resolve looks a virtual property up on the security, walking the sources
// in order: the loaded description properties first, then the market's remap
// of property names onto description fields, then the market's computed
// getters and snapshot field remaps, which both read the market-data
// snapshot and load it on first use. Extra arguments flow into computed
// getters (currency for volume, range and measure for change).
func (s *Security) Resolve(ctx context.Context, property string, args ...any) (any, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	property = strings.ToLower(property)

	if v, ok := s.Property(property); ok {
		return v, nil
	}

	market, err := s.Market(ctx)
	if err != nil {
		return nil, err
	}

	if field, ok := market.mappedProperty(property); ok {
		v, _ := s.Property(field)
		return v, nil
	}

	if getter, ok := market.kind.getters[property]; ok {
		if err := s.ensureMarketData(ctx); err != nil {
			return nil, err
		}
		return getter(ctx, s, args)
	}

	if field, ok := market.kind.fields[property]; ok {
		if err := s.ensureMarketData(ctx); err != nil {
			return nil, err
		}
		return s.marketData[field], nil
	}

	return nil, &UnknownPropertyError{Entity: "security " + s.id, Property: property}
}

// Call resolves a getter-style accessor name: Call(ctx, "getLastPrice")
// resolves the "lastprice" property.
func (s *Security) Call(ctx context.Context, getter string, args ...any) (any, error) {
	property, ok := propertyFromGetter(getter)
	if !ok {
		return nil, &UnknownPropertyError{Entity: "security " + s.id, Property: getter}
	}
	return s.Resolve(ctx, property, args...)
}

// ShortName returns the security's short name from its description.
func (s *Security) ShortName(ctx context.Context) (string, error) {
	if err := s.Load(ctx); err != nil {
		return "", err
	}
	return s.PropertyString("shortname"), nil
}

// LastPrice returns the price of the last trade.
func (s *Security) LastPrice(ctx context.Context) (decimal.Decimal, error) {
	return s.resolveDecimal(ctx, "lastprice")
}

// ClosingPrice returns the closing price, per the market's definition of it.
func (s *Security) ClosingPrice(ctx context.Context) (decimal.Decimal, error) {
	return s.resolveDecimal(ctx, "closingprice")
}

// Volume returns today's traded value in the given currency.
func (s *Security) Volume(ctx context.Context, currency string) (decimal.Decimal, error) {
	return s.resolveDecimal(ctx, "volume", currency)
}

// Change returns the price change over a range ("day", and for indices also
// "MTD"/"YTD"), measured in points, basis points or "%".
func (s *Security) Change(ctx context.Context, rng, measure string) (decimal.Decimal, error) {
	return s.resolveDecimal(ctx, "change", rng, measure)
}

// LastUpdate returns the timestamp of the market-data snapshot.
func (s *Security) LastUpdate(ctx context.Context) (time.Time, error) {
	v, err := s.Resolve(ctx, "lastupdate")
	if err != nil {
		return time.Time{}, err
	}
	ts, ok := v.(time.Time)
	if !ok {
		return time.Time{}, &EmptyResultError{What: "snapshot timestamp"}
	}
	return ts, nil
}

func (s *Security) resolveDecimal(ctx context.Context, property string, args ...any) (decimal.Decimal, error) {
	v, err := s.Resolve(ctx, property, args...)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return toDecimal(v, property)
}

// toDecimal converts a resolved wire value to a decimal. A null surfaces as
// EmptyResult, never as zero.
func toDecimal(v any, what string) (decimal.Decimal, error) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err == nil {
			return d, nil
		}
	case string:
		d, err := decimal.NewFromString(t)
		if err == nil {
			return d, nil
		}
	case decimal.Decimal:
		return t, nil
	}
	return decimal.Decimal{}, &EmptyResultError{What: what}
}
