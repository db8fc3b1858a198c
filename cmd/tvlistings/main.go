package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "tvlistings"
	app.Usage = "Refreshes the TV listings database"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "reset",
			Usage: "drop every table and rebuild the schema before refreshing",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "verbose logging and full error traces",
		},
	}
	app.Action = refresh
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("failed to run app")
	}
}
