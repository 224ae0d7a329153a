package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/bisq-network/bisqeasyd/internal/core/domain"
)

var showtrade = cli.Command{
	Name:  "trade",
	Usage: "show the full state of one trade",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "id",
			Usage: "the id of the trade to show",
		},
		&cli.StringFlag{
			Name:  "proof",
			Usage: "look the trade up by its payment proof instead",
		},
	},
	Action: showTradeAction,
}

func showTradeAction(ctx *cli.Context) error {
	tradeId, proof := ctx.String("id"), ctx.String("proof")
	if len(tradeId) <= 0 && len(proof) <= 0 {
		return errors.New("either --id or --proof must be given")
	}

	repo, cleanup, err := getTradeRepository(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var trade *domain.Trade
	if len(tradeId) > 0 {
		trade, err = repo.GetTrade(context.Background(), tradeId)
	} else {
		trade, err = repo.GetTradeByPaymentProof(context.Background(), proof)
	}
	if err != nil {
		return err
	}
	if trade == nil {
		return errors.New("trade not found")
	}

	printJSON(trade)
	return nil
}
