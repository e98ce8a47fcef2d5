package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/investcalc/calc-engine/internal/format"
	"github.com/investcalc/calc-engine/internal/fx"
	"github.com/investcalc/calc-engine/internal/store"
)

var (
	marketName string
	fxRate     float64
	liveRate   bool
	fxTimeout  time.Duration
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := 1
		if ec, ok := err.(cli.ExitCoder); ok {
			code = ec.ExitCode()
		}
		os.Exit(code)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "calc"
	app.Usage = "position calculators for KR and US stock investors"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "market",
			Aliases:     []string{"m"},
			Value:       string(format.MarketKR),
			Usage:       "currency of the position, KR or US",
			Destination: &marketName,
		},
		&cli.Float64Flag{
			Name:        "rate",
			Usage:       "USD/KRW rate used to show won equivalents in US mode",
			Destination: &fxRate,
		},
		&cli.BoolFlag{
			Name:        "live-rate",
			Usage:       "fetch the USD/KRW rate before printing US results",
			Destination: &liveRate,
		},
		&cli.DurationFlag{
			Name:        "fx-timeout",
			Value:       fx.DefaultUpstreamTimeout,
			Usage:       "timeout for each exchange-rate upstream",
			Destination: &fxTimeout,
		},
	}
	app.Commands = []*cli.Command{
		averageCommand,
		averagingCommand,
		recoveryCommand,
		targetCommand,
		returnCommand,
		exitCommand,
		fxCommand,
	}
	// Lot values may carry thousands separators.
	app.DisableSliceFlagSeparator = true
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app
}

// newRateService builds a one-shot rate service against the public
// upstreams.
func newRateService() *fx.Service {
	client := fx.NewHTTPClient(fxTimeout)
	return fx.NewService(store.NewMemoryStore(),
		fx.DefaultUpstreams(fx.NewFrankfurter(client, ""), fx.NewOpenER(client, "")),
		fx.WithUpstreamTimeout(fxTimeout),
	)
}

// newOutput resolves the global flags into an output writer.
func newOutput(c *cli.Context) (*output, error) {
	market, err := format.ParseMarket(marketName)
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}

	rate := fxRate
	if market == format.MarketUS && rate <= 0 && liveRate {
		resp := newRateService().Get(c.Context)
		if resp.Error != "" {
			slog.Warn("live rate unavailable", "err", resp.Error, "rate", resp.Rate)
		}
		rate = resp.Rate
	}

	return newTabOutput(c.App.Writer, market, rate), nil
}
