package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tracewave/internal/application/commands"
)

var exportCmd = &cobra.Command{
	Use:   "export [video-id...]",
	Short: "Write the prompt export of videos",
	Long: `Write each video's prompts to a YAML file next to its frames.

Without arguments every video is exported. A video that fails does not
stop the others.

Examples:
  tracewave-cli export
  tracewave-cli export clip other-clip`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := GetRuntime()
		if err != nil {
			return err
		}

		result, err := commands.NewExportCommand(rt.Workspace, rt.Exporter, args).Execute(context.Background())
		if err != nil {
			return err
		}

		for _, path := range result.Written {
			fmt.Println(path)
		}
		for _, f := range result.Failures {
			fmt.Fprintf(os.Stderr, "%s: %v\n", f.VideoID, f.Err)
		}
		fmt.Println(result.Message)
		if len(result.Failures) > 0 {
			return fmt.Errorf("%d exports failed", len(result.Failures))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
