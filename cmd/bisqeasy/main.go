package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli/v2"

	"github.com/bisq-network/bisqeasyd/internal/core/domain"
	dbbadger "github.com/bisq-network/bisqeasyd/internal/infrastructure/storage/db/badger"
)

var defaultDatadir = btcutil.AppDataDir("bisq-easyd", false)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "bisqeasy CLI"
	app.Usage = "Command line interface for inspecting bisqeasyd trades"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "datadir",
			Usage: "data directory of the daemon",
			Value: defaultDatadir,
		},
	}
	app.Commands = append(
		app.Commands,
		&listtrades,
		&showtrade,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func getTradeRepository(ctx *cli.Context) (domain.TradeRepository, func(), error) {
	dbDir := filepath.Join(ctx.String("datadir"), "db")
	dbManager, err := dbbadger.NewDbManager(dbDir, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("opening trade store: %w", err)
	}
	cleanup := func() { dbManager.Close() }
	return dbbadger.NewTradeRepositoryImpl(dbManager), cleanup, nil
}

func printJSON(v interface{}) {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(buf))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[bisqeasy] %v\n", err)
	os.Exit(1)
}
