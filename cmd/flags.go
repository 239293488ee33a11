package cmd

import (
	"github.com/achilleasa/lbvh/parallel"
	"github.com/urfave/cli"
)

// Flags shared by all commands that build a hierarchy.
func BuildFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "workers, w",
			Value: 0,
			Usage: "max number of worker goroutines (0 = GOMAXPROCS)",
		},
		cli.IntFlag{
			Name:  "threshold",
			Value: parallel.DefaultThreshold,
			Usage: "loops over at most this many elements run on a single goroutine",
		},
		cli.BoolFlag{
			Name:  "validate",
			Usage: "verify the structural invariants of the built hierarchy",
		},
	}
}

// Flags for the trace command.
func TraceFlags() []cli.Flag {
	return append(BuildFlags(),
		cli.StringFlag{
			Name:  "origin, o",
			Value: "0,0,0",
			Usage: `ray origin as "x,y,z"`,
		},
		cli.StringFlag{
			Name:  "dir, d",
			Value: "0,0,1",
			Usage: `ray direction as "x,y,z"`,
		},
		cli.Float64Flag{
			Name:  "tmax",
			Value: 0,
			Usage: "max intersection distance (0 = unbounded)",
		},
	)
}
