package cmd

import (
	"github.com/achilleasa/lbvh/log"
	"github.com/urfave/cli"
)

var logger = log.New("lbvh")

// Global flags controlling log verbosity.
func LoggingFlags() []cli.Flag {
	return []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set log level (debug, info, notice, warning, error); overrides -v and -vv",
		},
	}
}

// Apply the verbosity flags. An explicit --log-level wins over -v/-vv.
func setupLogging(ctx *cli.Context) error {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	if name := ctx.GlobalString("log-level"); name != "" {
		level, err := log.ParseLevel(name)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}

	return nil
}
