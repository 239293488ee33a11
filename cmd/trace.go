package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/achilleasa/lbvh/types"
	"github.com/urfave/cli"
)

// Build a hierarchy for a scene and list the primitives hit by a ray.
func TraceRay(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	origin, err := parseVec3Flag(ctx.String("origin"))
	if err != nil {
		return fmt.Errorf("invalid ray origin: %s", err)
	}
	dir, err := parseVec3Flag(ctx.String("dir"))
	if err != nil {
		return fmt.Errorf("invalid ray direction: %s", err)
	}
	if dir.Len() == 0 {
		return fmt.Errorf("invalid ray direction: zero length")
	}

	_, h, _, err := buildFromArgs(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}

	ray := types.NewRay(origin, dir)
	if tMax := ctx.Float64("tmax"); tMax > 0 {
		ray.TMax = float32(tMax)
	}

	hits := make([]string, 0)
	h.Intersect(ray, func(prim uint32) bool {
		hits = append(hits, strconv.Itoa(int(prim)))
		return false
	})

	if len(hits) == 0 {
		logger.Notice("ray does not hit any primitive")
		return nil
	}
	logger.Noticef("ray hits %d primitive bbox(es): %s", len(hits), strings.Join(hits, ", "))
	return nil
}

// Parse a vector specified as "x,y,z".
func parseVec3Flag(value string) (types.Vec3, error) {
	tokens := strings.Split(value, ",")
	if len(tokens) != 3 {
		return types.Vec3{}, fmt.Errorf(`expected vector in "x,y,z" format; got %q`, value)
	}

	var v types.Vec3
	for i, tok := range tokens {
		coord, err := strconv.ParseFloat(strings.TrimSpace(tok), 32)
		if err != nil {
			return types.Vec3{}, err
		}
		v[i] = float32(coord)
	}
	return v, nil
}
