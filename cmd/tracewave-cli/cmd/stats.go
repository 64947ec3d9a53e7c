package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tracewave/internal/application/commands"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show annotation counts per video and per class",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := GetRuntime()
		if err != nil {
			return err
		}

		result, err := commands.NewStatsCommand(rt.Workspace, rt.Index).Execute(context.Background())
		if err != nil {
			return err
		}

		for _, v := range result.Videos {
			fmt.Printf("%s  %d/%d frames annotated  %d objects  %d points  %d boxes  %d polygons\n",
				v.Video.ID, v.AnnotatedFrames, v.Frames, v.Objects, v.Points, v.Boxes, v.Polygons)
		}
		for _, c := range result.Classes {
			fmt.Printf("class %s  %d objects\n", c.Class, c.Objects)
		}
		if result.Skipped > 0 || result.Orphans > 0 {
			fmt.Printf("%d skipped records, %d records of unknown videos\n", result.Skipped, result.Orphans)
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
