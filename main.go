package main

import (
	"os"

	"github.com/achilleasa/lbvh/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "lbvh"
	app.Usage = "build bounding volume hierarchies using parallel linear agglomeration"
	app.Version = "0.0.1"
	app.Flags = cmd.LoggingFlags()
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build a BVH for the triangles of a wavefront obj file",
			Description: `
Parse the faces of a wavefront obj file, sort them along a Morton curve and
agglomerate them bottom-up into a binary BVH. Statistics about the resulting
tree are printed once the build completes.`,
			ArgsUsage: "scene_file.obj",
			Flags:     cmd.BuildFlags(),
			Action:    cmd.BuildHierarchy,
		},
		{
			Name:        "trace",
			Usage:       "list the primitives whose bounding boxes are hit by a ray",
			Description: `Build a BVH for the scene and traverse it with a single ray.`,
			ArgsUsage:   "scene_file.obj",
			Flags:       cmd.TraceFlags(),
			Action:      cmd.TraceRay,
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
