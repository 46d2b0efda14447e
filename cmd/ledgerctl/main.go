package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "ledgerctl"
	app.Usage = "Operate a token ledger with signed meta transactions"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "Path to the YAML configuration file",
		},
	}
	app.Commands = []cli.Command{
		initCommand,
		queryCommand,
		transferCommand,
		approveCommand,
		increaseApprovalCommand,
		decreaseApprovalCommand,
		transferFromCommand,
		mintCommand,
		burnCommand,
		transferOwnershipCommand,
		setMintAgentCommand,
		whitelistCommand,
		pauseCommand,
		unpauseCommand,
		keygenCommand,
		signCommand,
		relayCommand,
		dumpCommand,
		diffCommand,
		auditCommand,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
