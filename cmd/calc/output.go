package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/investcalc/calc-engine/internal/format"
)

// output prints labelled results in aligned columns.
type output struct {
	tw     *tabwriter.Writer
	market format.Market
	rate   float64 // USD/KRW, 0 when unknown
}

func newTabOutput(w io.Writer, market format.Market, rate float64) *output {
	return &output{
		tw:     tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		market: market,
		rate:   rate,
	}
}

// money prints an amount in the market currency, with the won equivalent
// for US positions when a rate is known.
func (o *output) money(label string, v float64) {
	s := format.Currency(v, o.market)
	if o.market == format.MarketUS && o.rate > 0 {
		s += " (" + format.KRWConverted(v, o.rate) + ")"
	}
	o.line(label, s)
}

func (o *output) percent(label string, v float64, showSign bool) {
	o.line(label, format.Percent(v, showSign))
}

func (o *output) number(label string, v float64, decimals int) {
	o.line(label, format.Number(v, decimals))
}

func (o *output) line(label, value string) {
	fmt.Fprintf(o.tw, "%s\t%s\n", label, value)
}

func (o *output) flush() error {
	return o.tw.Flush()
}
