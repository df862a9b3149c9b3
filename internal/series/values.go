package series

import "github.com/shopspring/decimal"

// Turnover is one day's traded value, in both settlement currencies.
type Turnover struct {
	Rub decimal.Decimal
	Usd decimal.Decimal
}

// Candle is one day's historical quote. Fields the exchange did not report
// for that day are zero.
type Candle struct {
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// IsZero reports whether no field of the candle was populated.
func (c Candle) IsZero() bool {
	return c.Open.IsZero() && c.High.IsZero() && c.Low.IsZero() &&
		c.Close.IsZero() && c.Volume.IsZero()
}
