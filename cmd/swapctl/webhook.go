package main

import (
	"fmt"
	"net/url"

	"github.com/urfave/cli/v2"
)

var webhooks = cli.Command{
	Name:  "webhooks",
	Usage: "manage the webhooks notified of trade events",
	Subcommands: []*cli.Command{
		{
			Name:  "add",
			Usage: "register a webhook for a topic",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "topic",
					Usage:    "the topic to notify, like TRADE_ACCEPTED, or * for any",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "endpoint",
					Usage:    "the url notified with a POST request",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "secret",
					Usage: "optional secret used to sign the requests",
				},
			},
			Action: addWebhookAction,
		},
		{
			Name:  "list",
			Usage: "list the webhooks registered for a topic",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "topic",
					Usage: "the topic to filter hooks by",
				},
			},
			Action: listWebhooksAction,
		},
		{
			Name:  "remove",
			Usage: "remove a webhook",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Usage:    "the id of the webhook",
					Required: true,
				},
			},
			Action: removeWebhookAction,
		},
	},
}

func addWebhookAction(ctx *cli.Context) error {
	client, err := getOperatorClient()
	if err != nil {
		return err
	}

	reply, err := client.post("/v1/webhooks", map[string]string{
		"topic":    ctx.String("topic"),
		"endpoint": ctx.String("endpoint"),
		"secret":   ctx.String("secret"),
	})
	if err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func listWebhooksAction(ctx *cli.Context) error {
	client, err := getOperatorClient()
	if err != nil {
		return err
	}

	query := url.Values{}
	if topic := ctx.String("topic"); topic != "" {
		query.Set("topic", topic)
	}

	reply, err := client.get("/v1/webhooks", query)
	if err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func removeWebhookAction(ctx *cli.Context) error {
	client, err := getOperatorClient()
	if err != nil {
		return err
	}

	id := ctx.String("id")
	if _, err := client.delete("/v1/webhooks/" + url.PathEscape(id)); err != nil {
		return err
	}

	fmt.Printf("webhook %s removed\n", id)
	return nil
}
