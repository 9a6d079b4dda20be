package listing

import (
	"regexp"
	"strconv"
	"strings"
)

var priceNumber = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)

// ParsePrice turns a free-form price string into a value and ISO currency.
// The first number wins, so ranges such as "¥ 500〜" read as 500.
//
//	"¥ 1,500"   -> 1500, "JPY"
//	"1,500 JPY" -> 1500, "JPY"
//	"無料"       -> 0, "JPY"
//	"$12.50"    -> 12.5, "USD"
func ParsePrice(text string) (float64, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, ""
	}

	lower := strings.ToLower(text)
	currency := detectCurrency(lower)

	if strings.Contains(lower, "free") || strings.Contains(text, "無料") {
		if currency == "" {
			currency = "JPY"
		}
		return 0, currency
	}

	m := priceNumber.FindString(text)
	if m == "" {
		return 0, currency
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, currency
	}
	if currency == "" {
		// Marketplace prices without a marker are yen.
		currency = "JPY"
	}
	return value, currency
}

func detectCurrency(lower string) string {
	switch {
	case strings.ContainsAny(lower, "¥￥円") || strings.Contains(lower, "jpy"):
		return "JPY"
	case strings.Contains(lower, "usd") || strings.Contains(lower, "$"):
		return "USD"
	case strings.Contains(lower, "eur") || strings.Contains(lower, "€"):
		return "EUR"
	case strings.Contains(lower, "krw") || strings.Contains(lower, "₩"):
		return "KRW"
	case strings.Contains(lower, "cny") || strings.Contains(lower, "rmb"):
		return "CNY"
	default:
		return ""
	}
}
