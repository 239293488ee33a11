package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/lbvh/asset/reader"
	"github.com/achilleasa/lbvh/bvh"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Read the scene file passed as the first argument and build a hierarchy
// for its primitives.
func buildFromArgs(ctx *cli.Context) (*reader.Primitives, *bvh.Hierarchy, time.Duration, error) {
	if ctx.NArg() != 1 {
		return nil, nil, 0, errors.New("missing scene file argument")
	}

	prims, err := reader.ReadPrimitives(ctx.Args().First())
	if err != nil {
		return nil, nil, 0, err
	}

	opts := bvh.DefaultOptions()
	opts.Workers = ctx.Int("workers")
	opts.LoopParallelThreshold = ctx.Int("threshold")

	start := time.Now()
	h, err := bvh.Build(prims.BBoxes, prims.Centers, opts)
	if err != nil {
		return nil, nil, 0, err
	}
	buildTime := time.Since(start)

	if ctx.Bool("validate") {
		if err = h.Validate(); err != nil {
			return nil, nil, 0, err
		}
		if bounds := prims.Bounds(); h.Root().BBox != bounds {
			return nil, nil, 0, fmt.Errorf("%w: root bbox %v does not match scene bounds %v", bvh.ErrInvalidHierarchy, h.Root().BBox, bounds)
		}
		logger.Info("hierarchy passed validation")
	}

	return prims, h, buildTime, nil
}

// Build a hierarchy for a scene and display its statistics.
func BuildHierarchy(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	prims, h, buildTime, err := buildFromArgs(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}

	displayHierarchyStats(prims, h, buildTime)
	return nil
}

func displayHierarchyStats(prims *reader.Primitives, h *bvh.Hierarchy, buildTime time.Duration) {
	stats := h.Stats()
	bounds := prims.Bounds()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Property", "Value"})
	table.Append([]string{"Meshes", fmt.Sprintf("%d", len(prims.Meshes))})
	table.Append([]string{"Primitives", fmt.Sprintf("%d", prims.Len())})
	table.Append([]string{"Nodes", fmt.Sprintf("%d", stats.Nodes)})
	table.Append([]string{"Internal nodes", fmt.Sprintf("%d", stats.Internal)})
	table.Append([]string{"Leaves", fmt.Sprintf("%d", stats.Leaves)})
	table.Append([]string{"Max depth", fmt.Sprintf("%d", stats.MaxDepth)})
	table.Append([]string{"Merge rounds", fmt.Sprintf("%d", h.Rounds)})
	table.Append([]string{"Workers", fmt.Sprintf("%d", h.Workers)})
	table.Append([]string{"SAH cost", fmt.Sprintf("%.3f", stats.SAHCost)})
	table.Append([]string{"Bounds", fmt.Sprintf("%v - %v", bounds.Min, bounds.Max)})
	table.SetFooter([]string{"Build time", buildTime.String()})

	table.Render()
	logger.Noticef("hierarchy statistics\n%s", buf.String())
}
