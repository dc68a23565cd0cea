package main

import (
	"fmt"

	httpinterface "github.com/nftswap/swapd/internal/interfaces/http"
	"github.com/urfave/cli/v2"
)

var token = cli.Command{
	Name:  "token",
	Usage: "mint a trader token signed with the daemon jwt secret",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "address",
			Usage:    "the wallet address of the trader",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "secret",
			Usage:    "the jwt secret of the daemon",
			EnvVars:  []string{"SWAPD_JWT_SECRET"},
			Required: true,
		},
		&cli.DurationFlag{
			Name:  "ttl",
			Usage: "validity of the token, 0 means it never expires",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "store the token in the local state",
		},
	},
	Action: tokenAction,
}

func tokenAction(ctx *cli.Context) error {
	tok, err := httpinterface.NewPartyToken(
		[]byte(ctx.String("secret")), ctx.String("address"), ctx.Duration("ttl"),
	)
	if err != nil {
		return err
	}

	if ctx.Bool("save") {
		if err := setState(map[string]string{"token": tok}); err != nil {
			return err
		}
	}

	fmt.Println(tok)
	return nil
}
