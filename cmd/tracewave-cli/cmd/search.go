package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tracewave/internal/application/commands"
)

var searchCmd = &cobra.Command{
	Use:   "search <class>",
	Short: "Find annotated frames by class",
	Long: `Find annotated frames by class. The query is fuzzy matched against the
project palette and the best match is used.

Examples:
  tracewave-cli search person
  tracewave-cli search obj`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := GetRuntime()
		if err != nil {
			return err
		}

		result, err := commands.NewFindClassCommand(rt.Workspace, rt.Index, args[0]).Execute(context.Background())
		if err != nil {
			return err
		}

		for _, f := range result.Frames {
			fmt.Printf("%s  frame %d\n", f.VideoID, f.FrameIdx)
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
