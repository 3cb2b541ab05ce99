package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/achilleasa/tileray/asset/reader"
	"github.com/achilleasa/tileray/bvh"
	"github.com/achilleasa/tileray/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(context.Background(), ctx.Args().First())
	if err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", sc.Stats())
	logger.Noticef("center ray probe\n%s", probeCenterRay(sc))
	return nil
}

// Trace the ray through the center of the view against each model and
// report how many triangles the BVH leaves it enters contain.
func probeCenterRay(sc *scene.Scene) string {
	camera := sc.Camera
	if camera == nil {
		camera = scene.NewCamera(60)
		camera.Frame(sc.BBox())
	}
	ray := bvh.NewRay(camera.Position, camera.LookAt.Sub(camera.Position))

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Model", "Candidates", "Triangles", "Hit distance"})
	for _, entry := range sc.Entries() {
		hitDist := "-"
		if hit, ok := entry.BVH.Intersect(ray, float32(math.Inf(1))); ok {
			hitDist = fmt.Sprintf("%.3f", hit.T)
		}
		table.Append([]string{
			entry.Model.Name,
			fmt.Sprintf("%d", len(entry.BVH.Candidates(ray))),
			fmt.Sprintf("%d", len(entry.BVH.Triangles())),
			hitDist,
		})
	}
	table.Render()
	return buf.String()
}
