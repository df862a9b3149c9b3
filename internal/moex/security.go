package moex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avolkov/moex-iss-data/internal/series"
	"github.com/avolkov/moex-iss-data/internal/tabular"
)

// issuerState is the tri-state of the issuer reference: not resolved yet,
// resolved with no issuer on record, or resolved to an issuer.
type issuerState int

const (
	issuerUnresolved issuerState = iota
	issuerAbsent
	issuerPresent
)

// Security is one traded instrument. Unlike the other entities it is not
// registry-cached: each lookup is a fresh handle, sharing the board, market
// and engine instances underneath.
type Security struct {
	entry
	session *Session

	board           *Board
	availableBoards []*Board

	issuerSt issuerState
	issuer   *Issuer

	marketData tabular.Record
	history    *series.Series[series.Candle]
}

// Load fetches the security's full specification: its description rows
// become properties, its board rows become shared Board instances, and the
// first board in response order becomes the current board.
func (s *Security) Load(ctx context.Context) error {
	if s.loadedProps() {
		return nil
	}

	doc, err := s.session.client.Security(ctx, s.id)
	if err != nil {
		return err
	}

	description := doc["description"]
	if len(description) == 0 {
		return &EmptyResultError{What: fmt.Sprintf("security %q not found", s.id)}
	}

	props := make(tabular.Record, len(description))
	for _, row := range description {
		row = row.Lowered()
		props[strings.ToLower(row.String("name"))] = row["value"]
	}
	s.setProperties(props)

	for _, row := range doc["boards"] {
		row = row.Lowered()
		board, err := s.session.Board(row.String("engine"), row.String("market"), row.String("boardid"))
		if err != nil {
			continue
		}
		board.setProperties(row)
		s.availableBoards = append(s.availableBoards, board)
	}

	if len(s.availableBoards) > 0 {
		s.board = s.availableBoards[0]
	}
	return nil
}

// Board returns the security's current board: the first available board in
// the order the API listed them.
func (s *Security) Board(ctx context.Context) (*Board, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	if s.board == nil {
		return nil, &EmptyResultError{What: fmt.Sprintf("boards of security %q", s.id)}
	}
	return s.board, nil
}

// AvailableBoards returns every board the security trades on.
func (s *Security) AvailableBoards(ctx context.Context) ([]*Board, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s.availableBoards, nil
}

// Market returns the current board's market.
func (s *Security) Market(ctx context.Context) (*Market, error) {
	board, err := s.Board(ctx)
	if err != nil {
		return nil, err
	}
	return board.Market(), nil
}

// Engine returns the current board's engine.
func (s *Security) Engine(ctx context.Context) (*Engine, error) {
	board, err := s.Board(ctx)
	if err != nil {
		return nil, err
	}
	return board.Engine(), nil
}

// seedIssuer resolves the issuer reference from a security search row.
func (s *Security) seedIssuer(rec tabular.Record) {
	id := rec.String("emitent_id")
	if id == "" {
		s.issuerSt = issuerAbsent
		return
	}

	issuer, err := s.session.Issuer(id)
	if err != nil {
		s.issuerSt = issuerAbsent
		return
	}

	issuer.setProperty("title", rec["emitent_title"])
	issuer.setProperty("inn", rec["emitent_inn"])
	issuer.setProperty("okpo", rec["emitent_okpo"])

	s.issuer = issuer
	s.issuerSt = issuerPresent
}

// Issuer returns the security's issuer, or nil when the security has none on
// record. An unresolved reference triggers a quoted-code search matched
// case-insensitively against the security's id.
func (s *Security) Issuer(ctx context.Context) (*Issuer, error) {
	if s.issuerSt == issuerUnresolved {
		matches, err := s.session.exchange.FindSecurities(ctx, fmt.Sprintf("%q", s.id), 0)
		if err != nil {
			return nil, err
		}

		for _, rec := range matches {
			if strings.EqualFold(rec.String("secid"), s.id) {
				s.seedIssuer(rec)
				break
			}
		}
		if s.issuerSt == issuerUnresolved {
			s.issuerSt = issuerAbsent
		}
	}

	return s.issuer, nil
}

// MarketData returns the current market-data snapshot, fetching it on first
// access.
func (s *Security) MarketData(ctx context.Context) (tabular.Record, error) {
	if err := s.ensureMarketData(ctx); err != nil {
		return nil, err
	}
	return s.marketData, nil
}

// Refresh discards the snapshot and fetches a fresh one.
func (s *Security) Refresh(ctx context.Context) error {
	return s.loadMarketData(ctx)
}

func (s *Security) ensureMarketData(ctx context.Context) error {
	if s.marketData != nil {
		return nil
	}
	return s.loadMarketData(ctx)
}

// loadMarketData fetches the market-data rows and keeps the one with the
// highest traded value today. Ties keep the earliest row.
func (s *Security) loadMarketData(ctx context.Context) error {
	board, err := s.Board(ctx)
	if err != nil {
		return err
	}

	doc, err := s.session.client.MarketData(ctx, board.Engine().ID(), board.Market().ID(), s.id)
	if err != nil {
		return err
	}

	block := doc["marketdata"]
	if len(block) == 0 {
		return &EmptyResultError{What: fmt.Sprintf("market data of security %q", s.id)}
	}

	best := block[0].Lowered()
	bestVal, _ := best.Decimal("valtoday")
	for _, row := range block[1:] {
		row = row.Lowered()
		if v, ok := row.Decimal("valtoday"); ok && v.GreaterThan(bestVal) {
			best, bestVal = row, v
		}
	}

	s.marketData = best
	return nil
}

// Indices returns the indices this security is a component of, as code-only
// securities pre-seeded with the listing row.
func (s *Security) Indices(ctx context.Context) ([]*Security, error) {
	doc, err := s.session.client.SecurityIndices(ctx, s.id)
	if err != nil {
		return nil, err
	}

	var out []*Security
	for _, rec := range doc["indices"] {
		rec = rec.Lowered()
		index := s.session.securityByCode(rec.String("secid"))
		index.setProperties(rec)
		out = append(out, index)
	}
	return out, nil
}

// Dates returns the date interval for which history is available.
func (s *Security) Dates(ctx context.Context) (from, till time.Time, err error) {
	board, err := s.Board(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	doc, err := s.session.client.SecurityDates(ctx, board.Engine().ID(), board.Market().ID(), board.ID(), s.id)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	block := doc["dates"]
	if len(block) == 0 {
		return time.Time{}, time.Time{}, &EmptyResultError{
			What: fmt.Sprintf("history dates of security %q", s.id),
		}
	}

	rec := block[0].Lowered()
	from, err = s.session.parseDay(rec.String("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	till, err = s.session.parseDay(rec.String("till"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, till, nil
}

// HistoricalQuotes returns daily candles for a date range. Either bound may
// be nil, leaving the range open on that side. A range the security's series
// already fully covers is answered without a fetch; fetched days merge into
// the series, with non-trading days in a bounded range marked known-empty.
func (s *Security) HistoricalQuotes(ctx context.Context, from, to any) ([]series.Point[series.Candle], error) {
	fromDay, fromSet, err := s.session.parseOptionalDay(from)
	if err != nil {
		return nil, err
	}
	toDay, toSet, err := s.session.parseOptionalDay(to)
	if err != nil {
		return nil, err
	}

	board, err := s.Board(ctx)
	if err != nil {
		return nil, err
	}

	if fromSet && toSet && s.history.Covers(fromDay, toDay) {
		return s.history.Between(fromDay, toDay), nil
	}

	var fromStr, toStr string
	if fromSet {
		fromStr = fromDay.Format(series.DayFormat)
	}
	if toSet {
		toStr = toDay.Format(series.DayFormat)
	}

	recs, err := s.session.client.HistoricalQuotes(ctx,
		board.Engine().ID(), board.Market().ID(), board.ID(), s.id, fromStr, toStr)
	if err != nil {
		return nil, err
	}

	var fetched []series.Point[series.Candle]
	for _, rec := range recs {
		rec = rec.Lowered()
		day, ok := dayFromTimestamp(rec.String("tradedate"), s.session.loc)
		if !ok {
			continue
		}

		var c series.Candle
		c.Open, _ = rec.Decimal("open")
		c.High, _ = rec.Decimal("high")
		c.Low, _ = rec.Decimal("low")
		c.Close, _ = rec.Decimal("close")
		c.Volume, _ = rec.Decimal("volume")

		if c.IsZero() {
			s.history.MarkEmpty(day)
			continue
		}

		s.history.Put(day, &c)
		fetched = append(fetched, series.Point[series.Candle]{Date: day, Value: &c})
	}

	// Days inside a bounded range with no candle were fetched and found
	// empty; remember that so repeat queries stay local.
	if fromSet && toSet {
		s.history.MarkEmptyRange(fromDay, toDay)
	}

	return fetched, nil
}
