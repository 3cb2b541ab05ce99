package scene

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/tileray/bvh"
	"github.com/olekukonko/tablewriter"
)

// Build a tabular representation of scene and BVH statistics.
func (s *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Model", "Meshes", "Triangles", "BVH nodes", "Leaves", "Depth", "Size", "Emissive"})

	var totalTris, totalNodes, totalBytes int
	for _, entry := range s.entries {
		stats := entry.BVH.Stats()
		totalTris += stats.Triangles
		totalNodes += stats.Nodes
		totalBytes += stats.MemoryBytes

		table.Append([]string{
			entry.Model.Name,
			fmt.Sprint(len(entry.Model.Meshes)),
			fmt.Sprint(stats.Triangles),
			fmt.Sprint(stats.Nodes),
			fmt.Sprint(stats.Leaves),
			fmt.Sprint(stats.MaxDepth),
			stats.FmtMemory(),
			fmt.Sprint(entry.Model.IsEmissive()),
		})
	}
	table.Append([]string{" ", " ", " ", " ", " ", " ", " ", " "})
	table.Append([]string{"Point lights", fmt.Sprint(len(s.pointLights)), "", "", "", "", "", ""})
	table.Append([]string{"Light count", fmt.Sprint(s.LightCount()), "", "", "", "", "", ""})
	table.SetFooter([]string{
		"Total",
		" ",
		fmt.Sprint(totalTris),
		fmt.Sprint(totalNodes),
		" ",
		" ",
		bvh.FmtSize(totalBytes),
		" ",
	})

	table.Render()
	return buf.String()
}
