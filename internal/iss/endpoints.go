package iss

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/avolkov/moex-iss-data/internal/pagination"
	"github.com/avolkov/moex-iss-data/internal/tabular"
)

// EngineList fetches the list of trading engines.
func (c *Client) EngineList(ctx context.Context) (tabular.Document, error) {
	return c.Fetch(ctx, "engines", nil)
}

// Engine fetches one engine's description.
func (c *Client) Engine(ctx context.Context, engine string) (tabular.Document, error) {
	return c.Fetch(ctx, "engines/"+engine, nil)
}

// Turnovers fetches exchange-wide turnovers, optionally for a specific day
// (YYYY-MM-DD); an empty date means the current trading day.
func (c *Client) Turnovers(ctx context.Context, date string) (tabular.Document, error) {
	params := url.Values{}
	if date != "" {
		params.Set("date", date)
	}
	return c.Fetch(ctx, "turnovers", params)
}

// MarketList fetches the markets of an engine.
func (c *Client) MarketList(ctx context.Context, engine string) (tabular.Document, error) {
	return c.Fetch(ctx, fmt.Sprintf("engines/%s/markets", engine), nil)
}

// Market fetches one market's description, including its boards.
func (c *Client) Market(ctx context.Context, engine, market string) (tabular.Document, error) {
	return c.Fetch(ctx, fmt.Sprintf("engines/%s/markets/%s", engine, market), nil)
}

// Board fetches one board's description.
func (c *Client) Board(ctx context.Context, engine, market, board string) (tabular.Document, error) {
	return c.Fetch(ctx, fmt.Sprintf("engines/%s/markets/%s/boards/%s", engine, market, board), nil)
}

// FindSecurities runs a full-text security search. A non-positive limit
// leaves the result size up to the server.
func (c *Client) FindSecurities(ctx context.Context, query string, limit int) (tabular.Document, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return c.Fetch(ctx, "securities", params)
}

// Security fetches one security's full specification.
func (c *Client) Security(ctx context.Context, code string) (tabular.Document, error) {
	return c.Fetch(ctx, "securities/"+code, nil)
}

// SecurityIndices fetches the indices a security is a component of.
func (c *Client) SecurityIndices(ctx context.Context, code string) (tabular.Document, error) {
	return c.Fetch(ctx, fmt.Sprintf("securities/%s/indices", code), nil)
}

// SecurityGroups fetches the list of security groups.
func (c *Client) SecurityGroups(ctx context.Context) (tabular.Document, error) {
	return c.Fetch(ctx, "securitygroups", nil)
}

// SecurityGroupCollections fetches the collections of a security group.
func (c *Client) SecurityGroupCollections(ctx context.Context, group string) (tabular.Document, error) {
	return c.Fetch(ctx, fmt.Sprintf("securitygroups/%s/collections", group), nil)
}

// Collection fetches one collection's description.
func (c *Client) Collection(ctx context.Context, group, collection string) (tabular.Document, error) {
	return c.Fetch(ctx, fmt.Sprintf("securitygroups/%s/collections/%s", group, collection), nil)
}

// CollectionSecurities fetches the full member list of a collection,
// paginating through every page.
func (c *Client) CollectionSecurities(ctx context.Context, group, collection string) ([]tabular.Record, error) {
	path := fmt.Sprintf("securitygroups/%s/collections/%s/securities", group, collection)
	return c.fetchAllPages(ctx, path, "securities", nil, c.collectionPageSize)
}

// MarketData fetches the current market data rows for a security on a market.
func (c *Client) MarketData(ctx context.Context, engine, market, code string) (tabular.Document, error) {
	return c.Fetch(ctx, fmt.Sprintf("engines/%s/markets/%s/securities/%s", engine, market, code), nil)
}

// SecurityDates fetches the available history date interval for a security.
func (c *Client) SecurityDates(ctx context.Context, engine, market, board, code string) (tabular.Document, error) {
	path := fmt.Sprintf("history/engines/%s/markets/%s/boards/%s/securities/%s/dates", engine, market, board, code)
	return c.Fetch(ctx, path, nil)
}

// HistoricalQuotes fetches historical quotes for a date range, paginating
// through every page. Empty from/till leave the range unbounded.
func (c *Client) HistoricalQuotes(ctx context.Context, engine, market, board, code, from, till string) ([]tabular.Record, error) {
	path := fmt.Sprintf("history/engines/%s/markets/%s/boards/%s/securities/%s", engine, market, board, code)

	params := url.Values{}
	if from != "" {
		params.Set("from", from)
	}
	if till != "" {
		params.Set("till", till)
	}

	return c.fetchAllPages(ctx, path, "history", params, c.historyPageSize)
}

// Capitalization fetches the stock market capitalization statistics.
func (c *Client) Capitalization(ctx context.Context) (tabular.Document, error) {
	return c.Fetch(ctx, "statistics/engines/stock/capitalization", nil)
}

// fetchAllPages drives the paginator over one block of an endpoint.
func (c *Client) fetchAllPages(ctx context.Context, path, block string, base url.Values, pageSize int) ([]tabular.Record, error) {
	return pagination.FetchAll(ctx, block, pageSize, func(ctx context.Context, start int) (tabular.Document, error) {
		params := url.Values{}
		for k, vs := range base {
			params[k] = vs
		}
		params.Set("start", strconv.Itoa(start))
		params.Set("limit", strconv.Itoa(pageSize))
		return c.Fetch(ctx, path, params)
	})
}
