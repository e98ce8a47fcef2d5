// Package format renders calculator results for display and parses numeric
// form input. Non-finite values (a loss-recovery gain of +Inf, for example)
// render as Placeholder.
package format

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is shown in place of a value that cannot be displayed.
const Placeholder = "—"

// Market selects the currency a position is denominated in.
type Market string

const (
	MarketKR Market = "KR"
	MarketUS Market = "US"
)

// ParseMarket accepts "KR" or "US" in any case.
func ParseMarket(s string) (Market, error) {
	switch m := Market(strings.ToUpper(strings.TrimSpace(s))); m {
	case MarketKR, MarketUS:
		return m, nil
	default:
		return "", fmt.Errorf("format: unknown market %q", s)
	}
}

var (
	krPrinter = message.NewPrinter(language.Korean)
	usPrinter = message.NewPrinter(language.AmericanEnglish)
)

// Symbol returns the currency symbol for m.
func Symbol(m Market) string {
	if m == MarketKR {
		return "₩"
	}
	return "$"
}

// Currency formats v in the market's currency: whole won for KR
// (₩1,234,567), cents for US ($1,234.56).
func Currency(v float64, m Market) string {
	if !finite(v) {
		return Placeholder
	}
	if m == MarketKR {
		return "₩" + won(v)
	}
	return "$" + grouped(usPrinter, v, 2)
}

// KRWConverted formats a dollar amount converted to won at rate.
func KRWConverted(usd, rate float64) string {
	if !finite(usd) || !finite(rate) {
		return Placeholder
	}
	return "₩" + won(usd * rate)
}

// Percent formats v with one decimal. Positive values get a leading "+"
// when showSign is set; negative values keep their "-" even when they round
// to zero.
func Percent(v float64, showSign bool) string {
	if !finite(v) {
		return Placeholder
	}
	s := fixed1(v)
	if showSign && v > 0 {
		return "+" + s + "%"
	}
	return s + "%"
}

// GainPercent is Percent with sign, except that an unbounded gain (a
// recovery from a total loss) renders as "∞".
func GainPercent(v float64) string {
	if math.IsInf(v, 1) {
		return "∞"
	}
	return Percent(v, true)
}

// Number formats v with thousands separators and exactly decimals digits
// after the point.
func Number(v float64, decimals int) string {
	if !finite(v) {
		return Placeholder
	}
	if decimals < 0 {
		decimals = 0
	}
	return grouped(usPrinter, v, decimals)
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumericInput reads a number typed into a form field. Currency
// symbols and thousands separators are ignored and trailing garbage after
// the number is dropped. Empty, unparsable and negative input yields 0.
func ParseNumericInput(s string) float64 {
	cleaned := strings.TrimSpace(strings.NewReplacer("₩", "", "$", "", ",", "").Replace(s))
	num := leadingNumber.FindString(cleaned)
	if num == "" {
		return 0
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return math.Max(0, v)
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// won rounds v to whole won, halves towards +Inf, and groups the digits.
// Amounts beyond the int64 range are formatted in full.
func won(v float64) string {
	rounded := decimal.NewFromFloat(v).Add(decimal.NewFromFloat(0.5)).Floor()
	return krPrinter.Sprintf("%.0f", rounded.InexactFloat64())
}

// fixed1 rounds the exact binary value of v to one decimal, halves away
// from zero. 0.15 is stored as 0.1499... and gives "0.1".
func fixed1(v float64) string {
	exact := new(big.Float).SetFloat64(math.Abs(v)).Text('f', 1100)
	s := decimal.RequireFromString(exact).StringFixed(1)
	if v < 0 {
		return "-" + s
	}
	return s
}

func grouped(p *message.Printer, v float64, decimals int) string {
	rounded := decimal.NewFromFloat(v).Round(int32(decimals)).InexactFloat64()
	return p.Sprintf("%.*f", decimals, rounded)
}
