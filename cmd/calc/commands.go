package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/investcalc/calc-engine/internal/calc"
	"github.com/investcalc/calc-engine/internal/format"
)

var errInsufficientInput = cli.Exit("insufficient input: "+format.Placeholder, 1)

// num reads a numeric flag the way the web form does: currency symbols and
// separators are ignored, anything unusable is 0.
func num(c *cli.Context, name string) float64 {
	return format.ParseNumericInput(c.String(name))
}

func numFlag(name, usage string) cli.Flag {
	return &cli.StringFlag{Name: name, Usage: usage}
}

var averageCommand = &cli.Command{
	Name:      "average",
	Usage:     "weighted average price over several purchases",
	ArgsUsage: "--lot <price:quantity> [--lot ...]",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:     "lot",
			Usage:    "one purchase as price:quantity, repeatable",
			Required: true,
		},
	},
	Action: average,
}

func average(c *cli.Context) error {
	var lots []calc.Lot
	for _, raw := range c.StringSlice("lot") {
		price, qty, ok := strings.Cut(raw, ":")
		if !ok {
			return cli.Exit(fmt.Sprintf("lot %q: expected price:quantity", raw), 2)
		}
		lots = append(lots, calc.Lot{
			Price:    format.ParseNumericInput(price),
			Quantity: format.ParseNumericInput(qty),
		})
	}

	res, ok := calc.AveragePrice(lots)
	if !ok {
		return errInsufficientInput
	}

	out, err := newOutput(c)
	if err != nil {
		return err
	}
	out.money("Average price", res.AveragePrice)
	out.number("Total quantity", res.TotalQuantity, 0)
	out.money("Total invested", res.TotalInvested)
	return out.flush()
}

var averagingCommand = &cli.Command{
	Name:  "averaging",
	Usage: "new average after buying more, with the break-even shift",
	Flags: []cli.Flag{
		numFlag("avg", "current average price"),
		numFlag("qty", "current quantity"),
		numFlag("add-price", "price of the additional purchase"),
		numFlag("add-qty", "quantity of the additional purchase"),
		numFlag("market-price", "current market price (optional)"),
	},
	Action: averaging,
}

func averaging(c *cli.Context) error {
	var market *float64
	if c.IsSet("market-price") {
		m := num(c, "market-price")
		market = &m
	}

	res, ok := calc.Averaging(num(c, "avg"), num(c, "qty"), num(c, "add-price"), num(c, "add-qty"), market)
	if !ok {
		return errInsufficientInput
	}

	out, err := newOutput(c)
	if err != nil {
		return err
	}
	out.money("New average price", res.NewAveragePrice)
	out.number("Total quantity", res.TotalQuantity, 0)
	out.money("Total invested", res.TotalInvested)
	out.line("Direction", string(res.Direction))
	if be := res.BreakEven; be != nil {
		out.percent("Break-even before", be.Before, true)
		out.percent("Break-even after", be.After, true)
		out.percent("Break-even change", be.Delta, true)
	}
	return out.flush()
}

var recoveryCommand = &cli.Command{
	Name:  "recovery",
	Usage: "gain needed to recover from a loss",
	Flags: []cli.Flag{
		numFlag("avg", "average purchase price"),
		numFlag("current", "current price"),
	},
	Action: recovery,
}

func recovery(c *cli.Context) error {
	res, ok := calc.LossRecovery(num(c, "avg"), num(c, "current"))
	if !ok {
		return errInsufficientInput
	}

	out, err := newOutput(c)
	if err != nil {
		return err
	}
	out.percent("Loss", res.LossPercent, false)
	out.line("Required gain", format.GainPercent(res.RequiredGainPercent))
	return out.flush()
}

var targetCommand = &cli.Command{
	Name:  "target",
	Usage: "exit price for a desired profit",
	Flags: []cli.Flag{
		numFlag("avg", "average purchase price"),
		numFlag("qty", "quantity held"),
		&cli.StringFlag{Name: "mode", Value: string(calc.ModePercent), Usage: "percent or amount"},
		numFlag("target", "desired return in percent, or profit amount"),
	},
	Action: target,
}

func target(c *cli.Context) error {
	res, ok := calc.TargetProfit(num(c, "avg"), num(c, "qty"), calc.TargetMode(c.String("mode")), num(c, "target"))
	if !ok {
		return errInsufficientInput
	}

	out, err := newOutput(c)
	if err != nil {
		return err
	}
	out.money("Target price", res.TargetPrice)
	out.money("Expected profit", res.ExpectedProfit)
	out.percent("Return", res.ReturnPercent, true)
	return out.flush()
}

var exitCommand = &cli.Command{
	Name:  "exit",
	Usage: "profit of a planned exit, by price or by return",
	Flags: []cli.Flag{
		numFlag("avg", "average purchase price"),
		numFlag("qty", "quantity held"),
		&cli.StringFlag{Name: "mode", Value: string(calc.ModePrice), Usage: "price or percent"},
		numFlag("target", "exit price, or desired return in percent"),
	},
	Action: exit,
}

func exit(c *cli.Context) error {
	res, ok := calc.ExitPlan(num(c, "avg"), num(c, "qty"), calc.TargetMode(c.String("mode")), num(c, "target"))
	if !ok {
		return errInsufficientInput
	}

	out, err := newOutput(c)
	if err != nil {
		return err
	}
	out.money("Exit price", res.TargetPrice)
	out.money("Total invested", res.TotalInvested)
	out.money("Expected profit", res.ExpectedProfit)
	out.percent("Return", res.ReturnPercent, true)
	return out.flush()
}

var returnCommand = &cli.Command{
	Name:  "return",
	Usage: "profit of a closed trade, gross and net of fees",
	Flags: []cli.Flag{
		numFlag("buy", "buy price"),
		numFlag("sell", "sell price"),
		numFlag("qty", "quantity"),
		&cli.StringFlag{Name: "fee", Value: "0", Usage: "fee in percent, charged on buy and sell notional"},
	},
	Action: tradeReturn,
}

func tradeReturn(c *cli.Context) error {
	res, ok := calc.Return(num(c, "buy"), num(c, "sell"), num(c, "qty"), num(c, "fee"))
	if !ok {
		return errInsufficientInput
	}

	out, err := newOutput(c)
	if err != nil {
		return err
	}
	out.money("Total buy", res.TotalBuy)
	out.money("Total sell", res.TotalSell)
	out.money("Profit/loss", res.ProfitLoss)
	out.percent("Return", res.ReturnPercent, true)
	out.money("Fees", res.FeeAmount)
	out.money("Net profit/loss", res.NetProfitLoss)
	out.percent("Net return", res.NetReturnPercent, true)
	return out.flush()
}

var fxCommand = &cli.Command{
	Name:   "fx",
	Usage:  "resolve the current USD/KRW rate",
	Action: showRate,
}

func showRate(c *cli.Context) error {
	resp := newRateService().Get(c.Context)

	out := newTabOutput(c.App.Writer, format.MarketKR, 0)
	out.line("USD/KRW", format.Number(resp.Rate, 2))
	out.line("Source", string(resp.Source))
	if resp.Provider != "" {
		out.line("Provider", resp.Provider)
	}
	if resp.Error != "" {
		out.line("Note", resp.Error)
	}
	return out.flush()
}
