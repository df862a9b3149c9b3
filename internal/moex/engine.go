package moex

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avolkov/moex-iss-data/internal/series"
)

// Engine is a trading engine ("stock", "currency", "futures", ...). It also
// accumulates the per-engine slice of the exchange-wide turnover statistics.
type Engine struct {
	entry
	session *Session

	turnovers *series.Series[series.Turnover]
	numTrades *series.Series[int64]
}

func newEngine(s *Session, id string) *Engine {
	return &Engine{
		entry:     entry{id: id},
		session:   s,
		turnovers: series.New[series.Turnover](s.loc),
		numTrades: series.New[int64](s.loc),
	}
}

// Load fetches the engine description on first use.
func (e *Engine) Load(ctx context.Context) error {
	if e.loadedProps() {
		return nil
	}

	doc, err := e.session.client.Engine(ctx, e.id)
	if err != nil {
		return err
	}

	block := doc["engine"]
	if len(block) == 0 {
		return &EmptyResultError{What: fmt.Sprintf("engine %q not found", e.id)}
	}

	e.setProperties(block[0])
	return nil
}

// Resolve returns a loaded property by name, loading the description first
// if needed.
func (e *Engine) Resolve(ctx context.Context, property string) (any, error) {
	if err := e.Load(ctx); err != nil {
		return nil, err
	}
	if v, ok := e.Property(property); ok {
		return v, nil
	}
	return nil, &UnknownPropertyError{Entity: "engine " + e.id, Property: property}
}

// Title returns the engine's localized title.
func (e *Engine) Title(ctx context.Context) (string, error) {
	if err := e.Load(ctx); err != nil {
		return "", err
	}
	return e.PropertyString("title"), nil
}

// Markets lists the engine's markets as an id to title mapping, seeding the
// titles of the shared market instances along the way.
func (e *Engine) Markets(ctx context.Context) (map[string]string, error) {
	doc, err := e.session.client.MarketList(ctx, e.id)
	if err != nil {
		return nil, err
	}

	block := doc["markets"]
	if len(block) == 0 {
		return nil, &EmptyResultError{What: fmt.Sprintf("markets of engine %q", e.id)}
	}

	out := make(map[string]string, len(block))
	for _, rec := range block {
		rec = rec.Lowered()
		id := rec.String("name")
		title := rec.String("title")
		out[id] = title

		if market, err := e.session.Market(e.id, id); err == nil {
			market.setProperty("title", title)
		}
	}

	return out, nil
}

// Turnovers returns the engine's traded value for a day, or the latest known
// one when date is nil. The data arrives as a side effect of the
// exchange-wide turnovers fetch.
func (e *Engine) Turnovers(ctx context.Context, currency string, date any) (decimal.Decimal, error) {
	currency, err := normalizeCurrency(currency)
	if err != nil {
		return decimal.Decimal{}, err
	}

	day, bound, err := e.session.parseOptionalDay(date)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if err := e.session.exchange.ensureTurnovers(ctx, day, bound); err != nil {
		return decimal.Decimal{}, err
	}

	var t *series.Turnover
	if bound {
		t, _ = e.turnovers.Get(day)
	} else {
		_, t, _ = e.turnovers.Latest()
	}
	if t == nil {
		return decimal.Decimal{}, &EmptyResultError{What: fmt.Sprintf("turnovers of engine %q", e.id)}
	}

	if currency == "usd" {
		return t.Usd, nil
	}
	return t.Rub, nil
}

// NumberOfTrades returns the engine's trade count for a day, or the latest
// known one when date is nil.
func (e *Engine) NumberOfTrades(ctx context.Context, date any) (int64, error) {
	day, bound, err := e.session.parseOptionalDay(date)
	if err != nil {
		return 0, err
	}

	if err := e.session.exchange.ensureTurnovers(ctx, day, bound); err != nil {
		return 0, err
	}

	var n *int64
	if bound {
		n, _ = e.numTrades.Get(day)
	} else {
		_, n, _ = e.numTrades.Latest()
	}
	if n == nil {
		return 0, &EmptyResultError{What: fmt.Sprintf("number of trades of engine %q", e.id)}
	}
	return *n, nil
}

// Capitalization returns the total stock market capitalization. It is only
// quoted for the stock engine.
func (e *Engine) Capitalization(ctx context.Context) (decimal.Decimal, error) {
	if e.id != "stock" {
		return decimal.Decimal{}, &UnknownPropertyError{
			Entity:   "engine " + e.id,
			Property: "capitalization",
		}
	}

	doc, err := e.session.client.Capitalization(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}

	block := doc["issuecapitalization"]
	if len(block) == 0 {
		return decimal.Decimal{}, &EmptyResultError{What: "stock market capitalization"}
	}

	cap, ok := block[0].Lowered().Decimal("issuecapitalization")
	if !ok {
		return decimal.Decimal{}, &EmptyResultError{What: "stock market capitalization"}
	}
	return cap, nil
}

func (e *Engine) setTurnover(day time.Time, t series.Turnover, trades int64) {
	e.turnovers.Put(day, &t)
	e.numTrades.Put(day, &trades)
}
