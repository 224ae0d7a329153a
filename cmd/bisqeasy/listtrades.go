package main

import (
	"context"

	"github.com/urfave/cli/v2"
)

var listtrades = cli.Command{
	Name:   "trades",
	Usage:  "get a list of all stored trades",
	Action: listTradesAction,
}

func listTradesAction(ctx *cli.Context) error {
	repo, cleanup, err := getTradeRepository(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	trades, err := repo.GetAllTrades(context.Background())
	if err != nil {
		return err
	}

	type tradeSummary struct {
		Id            string
		Role          string
		Rail          string
		StatusCode    int
		Failed        bool
		BaseAmount    uint64
		QuoteAmount   uint64
		QuoteCurrency string
	}

	summaries := make([]tradeSummary, 0, len(trades))
	for _, trade := range trades {
		summaries = append(summaries, tradeSummary{
			Id:            trade.Id,
			Role:          string(trade.Role),
			Rail:          string(trade.Rail),
			StatusCode:    trade.Status.Code,
			Failed:        trade.Status.Failed,
			BaseAmount:    trade.BaseAmount,
			QuoteAmount:   trade.QuoteAmount,
			QuoteCurrency: trade.QuoteCurrency,
		})
	}

	printJSON(summaries)
	return nil
}
