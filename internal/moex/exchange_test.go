package moex

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const turnoversBody = `{
	"turnovers": {
		"columns": ["NAME", "ID", "VALTODAY", "VALTODAY_USD", "NUMTRADES", "UPDATETIME", "TITLE"],
		"data": [
			["stock", 1, 1159.5, 19.2, 681765, "2017-07-06 23:50:04", "Фондовый рынок и рынок депозитов"],
			["currency", 3, 1069.4, 17.7, 271113, "2017-07-06 23:50:04", "Валютный рынок"],
			["TOTALS", null, 2228.9, 36.9, 952878, "2017-07-06 23:50:04", "Итого"]
		]
	},
	"turnoversprevdate": {
		"columns": ["NAME", "ID", "VALTODAY", "VALTODAY_USD", "NUMTRADES", "UPDATETIME", "TITLE"],
		"data": [
			["stock", 1, 1101.1, 18.5, 643210, "2017-07-05 23:50:03", "Фондовый рынок и рынок депозитов"],
			["currency", 3, 990.7, 16.6, 255004, "2017-07-05 23:50:03", "Валютный рынок"],
			["TOTALS", null, 2091.8, 35.1, 898214, "2017-07-05 23:50:03", "Итого"]
		]
	}
}`

func TestTurnovers(t *testing.T) {
	ctx := context.Background()
	f := newFakeISS(t)
	f.handle("/turnovers", turnoversBody)
	sess := newTestSession(t, f)
	ex := sess.Exchange()

	// One dated fetch populates the exchange totals, the per-engine rows and
	// the previous trading day. Everything below resolves from that fetch.
	usd, err := ex.Turnovers(ctx, "usd", "2017-07-06")
	require.NoError(t, err)
	assert.Equal(t, "36.9", usd.String())
	assert.Equal(t, 1, f.hitCount("/turnovers"))

	t.Run("latest is answered by the dated fetch", func(t *testing.T) {
		rub, err := ex.Turnovers(ctx, "rub", nil)
		require.NoError(t, err)
		assert.Equal(t, "2228.9", rub.String())
		assert.Equal(t, 1, f.hitCount("/turnovers"))
	})

	t.Run("previous trading day came along", func(t *testing.T) {
		rub, err := ex.Turnovers(ctx, "rub", "2017-07-05")
		require.NoError(t, err)
		assert.Equal(t, "2091.8", rub.String())
		assert.Equal(t, 1, f.hitCount("/turnovers"))
	})

	t.Run("trade counts share the series", func(t *testing.T) {
		n, err := ex.NumberOfTrades(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(952878), n)

		n, err = ex.NumberOfTrades(ctx, "2017-07-05")
		require.NoError(t, err)
		assert.Equal(t, int64(898214), n)
		assert.Equal(t, 1, f.hitCount("/turnovers"))
	})

	t.Run("engine rows landed in the engine series", func(t *testing.T) {
		stock, err := sess.Engine("stock")
		require.NoError(t, err)

		rub, err := stock.Turnovers(ctx, "rub", "2017-07-06")
		require.NoError(t, err)
		assert.Equal(t, "1159.5", rub.String())

		usd, err := stock.Turnovers(ctx, "usd", nil)
		require.NoError(t, err)
		assert.Equal(t, "19.2", usd.String())

		n, err := stock.NumberOfTrades(ctx, "2017-07-05")
		require.NoError(t, err)
		assert.Equal(t, int64(643210), n)
		assert.Equal(t, 1, f.hitCount("/turnovers"))
	})

	t.Run("engine titles are seeded", func(t *testing.T) {
		currency, err := sess.Engine("currency")
		require.NoError(t, err)

		title, err := currency.Title(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Валютный рынок", title)
	})
}

func TestTurnoversValidation(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t, newFakeISS(t))
	ex := sess.Exchange()
	var invalid *InvalidArgumentError

	_, err := ex.Turnovers(ctx, "eur", nil)
	assert.ErrorAs(t, err, &invalid)

	_, err = ex.Turnovers(ctx, "rub", 42)
	assert.ErrorAs(t, err, &invalid)

	_, err = ex.Turnovers(ctx, "rub", "06.07.2017")
	assert.ErrorAs(t, err, &invalid)
}

func TestTurnoversEmptyResponse(t *testing.T) {
	// A date before the statistics begin comes back with no previous-day
	// block. That is an empty result, never a zero.
	ctx := context.Background()
	f := newFakeISS(t)
	f.handle("/turnovers", `{
		"turnovers": {"columns": ["NAME"], "data": []},
		"turnoversprevdate": {"columns": ["NAME"], "data": []}
	}`)
	sess := newTestSession(t, f)

	var empty *EmptyResultError
	_, err := sess.Exchange().Turnovers(ctx, "rub", "2000-01-01")
	assert.ErrorAs(t, err, &empty)

	_, err = sess.Exchange().NumberOfTrades(ctx, nil)
	assert.ErrorAs(t, err, &empty)
}

func TestTurnoversUnknownDayStaysKnown(t *testing.T) {
	// The requested day has no row in the response. The miss is remembered,
	// so a repeat query stays local.
	ctx := context.Background()
	f := newFakeISS(t)
	f.handleFunc("/turnovers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2017-07-09", r.URL.Query().Get("date"))
		w.Write([]byte(turnoversBody))
	})
	sess := newTestSession(t, f)
	ex := sess.Exchange()

	var empty *EmptyResultError
	_, err := ex.Turnovers(ctx, "rub", "2017-07-09")
	assert.ErrorAs(t, err, &empty)
	assert.Equal(t, 1, f.hitCount("/turnovers"))

	_, err = ex.Turnovers(ctx, "rub", "2017-07-09")
	assert.ErrorAs(t, err, &empty)
	assert.Equal(t, 1, f.hitCount("/turnovers"))
}

func TestEngines(t *testing.T) {
	ctx := context.Background()
	f := newFakeISS(t)
	f.handle("/engines", `{
		"engines": {
			"columns": ["id", "name", "title"],
			"data": [
				[1, "stock", "Фондовый рынок и рынок депозитов"],
				[3, "currency", "Валютный рынок"]
			]
		}
	}`)
	sess := newTestSession(t, f)

	engines, err := sess.Exchange().Engines(ctx)
	require.NoError(t, err)
	require.Len(t, engines, 2)

	// Listing seeds the titles; no per-engine fetch follows.
	title, err := engines[0].Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Фондовый рынок и рынок депозитов", title)

	// The listing result is the shared instance.
	stock, err := sess.Engine("stock")
	require.NoError(t, err)
	assert.Same(t, stock, engines[0])

	// A second listing is served from the cache.
	_, err = sess.Exchange().Engines(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.hitCount("/engines"))
}

func TestFindSecurities(t *testing.T) {
	ctx := context.Background()

	t.Run("empty query", func(t *testing.T) {
		sess := newTestSession(t, newFakeISS(t))
		var invalid *InvalidArgumentError
		_, err := sess.Exchange().FindSecurities(ctx, "", 10)
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("rows come back lower-cased", func(t *testing.T) {
		f := newFakeISS(t)
		var gotQuery url.Values
		f.handleFunc("/securities", func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()
			w.Write([]byte(moexSearchBody))
		})
		sess := newTestSession(t, f)

		recs, err := sess.Exchange().FindSecurities(ctx, "биржа", 15)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "MOEX", recs[0].String("secid"))
		assert.Equal(t, "биржа", gotQuery.Get("q"))
		assert.Equal(t, "15", gotQuery.Get("limit"))
	})
}
