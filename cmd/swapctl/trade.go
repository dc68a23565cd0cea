package main

import (
	"net/url"
	"strconv"

	"github.com/urfave/cli/v2"
)

var (
	tradeIDFlag = cli.StringFlag{
		Name:     "id",
		Usage:    "the id of the trade",
		Required: true,
	}
	txHashFlag = cli.StringFlag{
		Name:     "txhash",
		Usage:    "the hash of the on-chain transaction",
		Required: true,
	}
	pageFlag = cli.IntFlag{
		Name:  "page",
		Usage: "the page number, starting from 1",
	}
	limitFlag = cli.IntFlag{
		Name:  "limit",
		Usage: "the max number of entries per page",
	}
)

var createtrade = cli.Command{
	Name:  "create",
	Usage: "propose a new trade to a counterparty",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "counterparty",
			Usage:    "the wallet address of the counterparty",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:  "give",
			Usage: "offered item, either nft:<id>[:<value>] or token:<address>:<amount>[:<value>]",
		},
		&cli.StringSliceFlag{
			Name:  "want",
			Usage: "requested item, same format of --give",
		},
	},
	Action: createTradeAction,
}

var listtrades = cli.Command{
	Name:  "trades",
	Usage: "list the trades of the trader, newest first",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "status",
			Usage: "filter trades by status",
		},
		&pageFlag,
		&limitFlag,
	},
	Action: listTradesAction,
}

var gettrade = cli.Command{
	Name:   "trade",
	Usage:  "get the details of a trade",
	Flags:  []cli.Flag{&tradeIDFlag},
	Action: getTradeAction,
}

var tradehistory = cli.Command{
	Name:   "history",
	Usage:  "get the audit trail of a trade",
	Flags:  []cli.Flag{&tradeIDFlag},
	Action: tradeHistoryAction,
}

var countertrade = cli.Command{
	Name:  "counter",
	Usage: "answer a pending offer with a counter proposal",
	Flags: []cli.Flag{
		&tradeIDFlag,
		&cli.StringFlag{
			Name:  "note",
			Usage: "description of the counter proposal",
		},
	},
	Action: counterTradeAction,
}

var accepttrade = cli.Command{
	Name:   "accept",
	Usage:  "accept the terms of a trade",
	Flags:  []cli.Flag{&tradeIDFlag},
	Action: acceptTradeAction,
}

var declinecounter = cli.Command{
	Name:  "decline",
	Usage: "decline a counter proposal",
	Flags: []cli.Flag{
		&tradeIDFlag,
		&cli.StringFlag{
			Name:  "reason",
			Usage: "why the counter proposal is declined",
		},
	},
	Action: declineCounterAction,
}

var deployescrow = cli.Command{
	Name:  "escrow",
	Usage: "record the escrow contract deployed for an agreed trade",
	Flags: []cli.Flag{
		&tradeIDFlag,
		&cli.StringFlag{
			Name:     "address",
			Usage:    "the address of the escrow contract",
			Required: true,
		},
		&txHashFlag,
	},
	Action: deployEscrowAction,
}

var recorddeposit = cli.Command{
	Name:  "deposit",
	Usage: "record the deposit of the trader's items into the escrow",
	Flags: []cli.Flag{
		&tradeIDFlag,
		&cli.StringSliceFlag{
			Name:  "nft",
			Usage: "id of a deposited nft",
		},
		&cli.StringSliceFlag{
			Name:  "token",
			Usage: "deposited token amount as <address>:<amount>",
		},
		&txHashFlag,
	},
	Action: recordDepositAction,
}

var finalizetrade = cli.Command{
	Name:  "finalize",
	Usage: "record the release of the escrow",
	Flags: []cli.Flag{
		&tradeIDFlag,
		&txHashFlag,
	},
	Action: finalizeTradeAction,
}

var canceltrade = cli.Command{
	Name:  "cancel",
	Usage: "cancel a trade with no escrow deployed",
	Flags: []cli.Flag{
		&tradeIDFlag,
		&cli.StringFlag{
			Name:  "reason",
			Usage: "why the trade is cancelled",
		},
	},
	Action: cancelTradeAction,
}

var postmessage = cli.Command{
	Name:  "message",
	Usage: "send a chat message on a trade",
	Flags: []cli.Flag{
		&tradeIDFlag,
		&cli.StringFlag{
			Name:     "text",
			Usage:    "the message to send",
			Required: true,
		},
	},
	Action: postMessageAction,
}

var conversation = cli.Command{
	Name:  "conversation",
	Usage: "get the timeline of all the trades with a partner",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "partner",
			Usage:    "the wallet address of the partner",
			Required: true,
		},
		&pageFlag,
		&limitFlag,
	},
	Action: conversationAction,
}

func createTradeAction(ctx *cli.Context) error {
	giveItems, err := parseItems(ctx.StringSlice("give"))
	if err != nil {
		return err
	}
	wantItems, err := parseItems(ctx.StringSlice("want"))
	if err != nil {
		return err
	}

	client, err := getTraderClient()
	if err != nil {
		return err
	}

	reply, err := client.post("/v1/trades", map[string]interface{}{
		"counterpartyAddress": ctx.String("counterparty"),
		"initiatorItems":      giveItems,
		"counterpartyItems":   wantItems,
	})
	if err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func listTradesAction(ctx *cli.Context) error {
	client, err := getTraderClient()
	if err != nil {
		return err
	}

	query := pageQuery(ctx)
	if status := ctx.String("status"); status != "" {
		query.Set("status", status)
	}

	reply, err := client.get("/v1/trades", query)
	if err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func getTradeAction(ctx *cli.Context) error {
	return tradeGet(ctx, "")
}

func tradeHistoryAction(ctx *cli.Context) error {
	return tradeGet(ctx, "/history")
}

func counterTradeAction(ctx *cli.Context) error {
	return tradePost(ctx, "/counter", map[string]string{
		"note": ctx.String("note"),
	})
}

func acceptTradeAction(ctx *cli.Context) error {
	return tradePost(ctx, "/accept", nil)
}

func declineCounterAction(ctx *cli.Context) error {
	return tradePost(ctx, "/decline-counter", map[string]string{
		"reason": ctx.String("reason"),
	})
}

func deployEscrowAction(ctx *cli.Context) error {
	return tradePost(ctx, "/escrow", map[string]string{
		"escrowAddress": ctx.String("address"),
		"txHash":        ctx.String("txhash"),
	})
}

func recordDepositAction(ctx *cli.Context) error {
	amounts, err := parseTokenAmounts(ctx.StringSlice("token"))
	if err != nil {
		return err
	}
	return tradePost(ctx, "/deposits", map[string]interface{}{
		"nftIds":       ctx.StringSlice("nft"),
		"tokenAmounts": amounts,
		"txHash":       ctx.String("txhash"),
	})
}

func finalizeTradeAction(ctx *cli.Context) error {
	return tradePost(ctx, "/finalize", map[string]string{
		"txHash": ctx.String("txhash"),
	})
}

func cancelTradeAction(ctx *cli.Context) error {
	return tradePost(ctx, "/cancel", map[string]string{
		"reason": ctx.String("reason"),
	})
}

func postMessageAction(ctx *cli.Context) error {
	return tradePost(ctx, "/messages", map[string]string{
		"message": ctx.String("text"),
	})
}

func conversationAction(ctx *cli.Context) error {
	client, err := getTraderClient()
	if err != nil {
		return err
	}

	path := "/v1/conversations/" + url.PathEscape(ctx.String("partner"))
	reply, err := client.get(path, pageQuery(ctx))
	if err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func tradeGet(ctx *cli.Context, suffix string) error {
	client, err := getTraderClient()
	if err != nil {
		return err
	}

	reply, err := client.get(tradePath(ctx)+suffix, nil)
	if err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func tradePost(ctx *cli.Context, suffix string, body interface{}) error {
	client, err := getTraderClient()
	if err != nil {
		return err
	}

	reply, err := client.post(tradePath(ctx)+suffix, body)
	if err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func tradePath(ctx *cli.Context) string {
	return "/v1/trades/" + url.PathEscape(ctx.String("id"))
}

func pageQuery(ctx *cli.Context) url.Values {
	query := url.Values{}
	if page := ctx.Int("page"); page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit := ctx.Int("limit"); limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return query
}
