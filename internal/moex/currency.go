package moex

import (
	"fmt"
	"strings"
)

// normalizeCurrency lower-cases a currency code and checks it against the
// allowed set. The default set is {rub, usd}; endpoints quoting more
// currencies pass their own.
func normalizeCurrency(currency string, allowed ...string) (string, error) {
	if len(allowed) == 0 {
		allowed = []string{"rub", "usd"}
	}

	currency = strings.ToLower(currency)
	for _, a := range allowed {
		if currency == a {
			return currency, nil
		}
	}

	return "", &InvalidArgumentError{
		Message: fmt.Sprintf("unsupported currency %q", currency),
	}
}
