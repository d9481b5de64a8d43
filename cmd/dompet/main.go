// Command dompet is the personal ledger CLI: transactions, savings
// goals, debts, the aggregated summary, and the AI-context export.
package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"dompet/internal/backend"
	"dompet/internal/config"
	applog "dompet/internal/log"
)

// appContext holds global options and the wired backend
type appContext struct {
	User string `help:"User id owning the records." env:"DOMPET_USER" required`

	result *backend.Result
	logger *applog.Logger
}

// cli commands / args available
var cli struct {
	Ctx appContext `embed`

	Tx      txCmd      `cmd help:"Manage ledger transactions."`
	Goal    goalCmd    `cmd help:"Manage savings goals."`
	Debt    debtCmd    `cmd help:"Manage debts and receivables."`
	Summary summaryCmd `cmd help:"Show the aggregated financial overview."`
	Context contextCmd `cmd help:"Print the flattened context document for AI summarization."`
}

type txCmd struct {
	Add  txAddCmd  `cmd help:"Record a transaction."`
	List txListCmd `cmd help:"List transactions."`
	Rm   txRmCmd   `cmd help:"Delete a transaction."`
}

type goalCmd struct {
	Add    goalAddCmd    `cmd help:"Create a savings goal."`
	Adjust goalAdjustCmd `cmd help:"Move money into or out of a goal."`
	List   goalListCmd   `cmd help:"List goals with progress."`
	Rm     goalRmCmd     `cmd help:"Delete a goal."`
}

type debtCmd struct {
	Add  debtAddCmd  `cmd help:"Register a debt or receivable."`
	Pay  debtPayCmd  `cmd help:"Record a payment against a debt."`
	List debtListCmd `cmd help:"List debts with remaining amounts."`
	Rm   debtRmCmd   `cmd help:"Delete a debt."`
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentCLI,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	ctx := kong.Parse(&cli)

	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend))
	result, err := factory.Create(cfg)
	ctx.FatalIfErrorf(err)
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", applog.FieldError, err)
			}
		}
	}()

	cli.Ctx.result = result
	cli.Ctx.logger = logger

	err = ctx.Run(&cli.Ctx)
	ctx.FatalIfErrorf(err)
}
