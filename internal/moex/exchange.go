package moex

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avolkov/moex-iss-data/internal/series"
	"github.com/avolkov/moex-iss-data/internal/tabular"
)

// Exchange is the root of the hierarchy. It lists engines and security
// groups, runs security searches, and accumulates the exchange-wide turnover
// and trade-count series.
type Exchange struct {
	session *Session

	engines []*Engine
	groups  []*SecurityGroup

	turnovers *series.Series[series.Turnover]
	numTrades *series.Series[int64]

	// latestFetched is set once a turnovers fetch without an explicit date
	// has run; later "latest" lookups then resolve locally.
	latestFetched bool
}

func newExchange(s *Session) *Exchange {
	return &Exchange{
		session:   s,
		turnovers: series.New[series.Turnover](s.loc),
		numTrades: series.New[int64](s.loc),
	}
}

// Engines lists the trading engines, seeding their titles.
func (ex *Exchange) Engines(ctx context.Context) ([]*Engine, error) {
	if len(ex.engines) > 0 {
		return ex.engines, nil
	}

	doc, err := ex.session.client.EngineList(ctx)
	if err != nil {
		return nil, err
	}

	block := doc["engines"]
	if len(block) == 0 {
		return nil, &EmptyResultError{What: "engine list"}
	}

	engines := make([]*Engine, 0, len(block))
	for _, rec := range block {
		rec = rec.Lowered()
		engine, err := ex.session.Engine(rec.String("name"))
		if err != nil {
			return nil, err
		}
		engine.setProperty("title", rec["title"])
		engines = append(engines, engine)
	}

	ex.engines = engines
	return engines, nil
}

// SecurityGroups lists the security groups, seeding their titles.
func (ex *Exchange) SecurityGroups(ctx context.Context) ([]*SecurityGroup, error) {
	if len(ex.groups) > 0 {
		return ex.groups, nil
	}

	doc, err := ex.session.client.SecurityGroups(ctx)
	if err != nil {
		return nil, err
	}

	block := doc["securitygroups"]
	if len(block) == 0 {
		return nil, &EmptyResultError{What: "security group list"}
	}

	groups := make([]*SecurityGroup, 0, len(block))
	for _, rec := range block {
		rec = rec.Lowered()
		group, err := ex.session.SecurityGroup(rec.String("name"))
		if err != nil {
			return nil, err
		}
		group.setProperty("title", rec["title"])
		groups = append(groups, group)
	}

	ex.groups = groups
	return groups, nil
}

// FindSecurities runs a full-text security search and returns the matching
// rows with lower-cased field names. A limit of zero leaves the server
// default in place.
func (ex *Exchange) FindSecurities(ctx context.Context, query string, limit int) ([]tabular.Record, error) {
	if query == "" {
		return nil, &InvalidArgumentError{Message: "search query can not be empty"}
	}

	doc, err := ex.session.client.FindSecurities(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	block := doc["securities"]
	out := make([]tabular.Record, 0, len(block))
	for _, rec := range block {
		out = append(out, rec.Lowered())
	}
	return out, nil
}

// Turnovers returns the exchange-wide traded value for a day, or the latest
// known one when date is nil.
func (ex *Exchange) Turnovers(ctx context.Context, currency string, date any) (decimal.Decimal, error) {
	currency, err := normalizeCurrency(currency)
	if err != nil {
		return decimal.Decimal{}, err
	}

	day, bound, err := ex.session.parseOptionalDay(date)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if err := ex.ensureTurnovers(ctx, day, bound); err != nil {
		return decimal.Decimal{}, err
	}

	var t *series.Turnover
	if bound {
		t, _ = ex.turnovers.Get(day)
	} else {
		_, t, _ = ex.turnovers.Latest()
	}
	if t == nil {
		return decimal.Decimal{}, &EmptyResultError{What: "exchange turnovers"}
	}

	if currency == "usd" {
		return t.Usd, nil
	}
	return t.Rub, nil
}

// NumberOfTrades returns the exchange-wide trade count for a day, or the
// latest known one when date is nil.
func (ex *Exchange) NumberOfTrades(ctx context.Context, date any) (int64, error) {
	day, bound, err := ex.session.parseOptionalDay(date)
	if err != nil {
		return 0, err
	}

	if err := ex.ensureTurnovers(ctx, day, bound); err != nil {
		return 0, err
	}

	var n *int64
	if bound {
		n, _ = ex.numTrades.Get(day)
	} else {
		_, n, _ = ex.numTrades.Latest()
	}
	if n == nil {
		return 0, &EmptyResultError{What: "exchange number of trades"}
	}
	return *n, nil
}

// ensureTurnovers fetches the turnovers statistics unless the requested day
// (or the latest snapshot) is already known.
func (ex *Exchange) ensureTurnovers(ctx context.Context, day time.Time, bound bool) error {
	if bound {
		if ex.turnovers.Known(day) {
			return nil
		}
	} else {
		if ex.latestFetched {
			return nil
		}
		// Any non-empty entry can answer a "latest" lookup; one dated fetch
		// serves both lookup styles.
		if _, _, ok := ex.turnovers.Latest(); ok {
			return nil
		}
	}
	return ex.loadTurnovers(ctx, day, bound)
}

// loadTurnovers runs one turnovers fetch and distributes the rows: the
// TOTALS row lands in the exchange series, every other row in the named
// engine's series. One fetch therefore feeds both levels of the hierarchy.
func (ex *Exchange) loadTurnovers(ctx context.Context, day time.Time, bound bool) error {
	var dateStr string
	if bound {
		dateStr = day.Format(series.DayFormat)
	}

	doc, err := ex.session.client.Turnovers(ctx, dateStr)
	if err != nil {
		return err
	}

	if len(doc["turnoversprevdate"]) == 0 {
		return &EmptyResultError{What: "exchange turnovers"}
	}

	for _, block := range []string{"turnovers", "turnoversprevdate"} {
		for _, rec := range doc[block] {
			rec = rec.Lowered()

			rowDay, ok := dayFromTimestamp(rec.String("updatetime"), ex.session.loc)
			if !ok {
				continue
			}

			var t series.Turnover
			t.Rub, _ = rec.Decimal("valtoday")
			t.Usd, _ = rec.Decimal("valtoday_usd")
			trades, _ := rec.Int("numtrades")

			if rec.String("name") == "TOTALS" {
				ex.turnovers.Put(rowDay, &t)
				ex.numTrades.Put(rowDay, &trades)
				continue
			}

			engine, err := ex.session.Engine(rec.String("name"))
			if err != nil {
				continue
			}
			engine.setProperty("title", rec["title"])
			engine.setTurnover(rowDay, t, trades)
		}
	}

	// The requested day stays known even if the response had no row for it,
	// so a repeat query does not refetch.
	if bound {
		ex.turnovers.MarkEmpty(day)
		ex.numTrades.MarkEmpty(day)
	} else {
		ex.latestFetched = true
	}

	ex.session.logger.Debug("turnovers loaded", "date", dateStr, "days", ex.turnovers.Len())
	return nil
}
