package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"tracewave/internal/application"
	"tracewave/internal/application/commands"
	"tracewave/internal/domain"
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Run or clear segmentation",
}

var segmentRunCmd = &cobra.Command{
	Use:   "run <video-id> <frame>",
	Short: "Segment an object from its prompts",
	Long: `Run the segmentation model on an object's points and box and store the
resulting polygon.

Examples:
  tracewave-cli segment run clip 12
  tracewave-cli segment run clip 12 --obj 2`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sel, err := selectionArgs(args)
		if err != nil {
			return err
		}
		rt, err := GetRuntime()
		if err != nil {
			return err
		}
		if status := rt.Workflow.Status(); !status.Ready() {
			return fmt.Errorf("segmentation unavailable: %s: %w", status.Reason, application.ErrUnavailable)
		}

		result, err := commands.NewSegmentCommand(rt.Workspace, rt.Workflow, sel).Execute(ctx)
		if err != nil {
			return err
		}
		if result.Outcome != application.OutcomeCommitted {
			return errors.New(result.Message)
		}

		fmt.Println(result.Message)
		return nil
	},
}

var segmentClearCmd = &cobra.Command{
	Use:   "clear <video-id> <frame>",
	Short: "Remove the polygon of an object, keeping its prompts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := selectionArgs(args)
		if err != nil {
			return err
		}
		rt, err := GetRuntime()
		if err != nil {
			return err
		}

		result, err := commands.NewClearMaskCommand(rt.Workspace, rt.Workflow, sel).Execute(context.Background())
		if err != nil {
			return err
		}

		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	segmentCmd.PersistentFlags().IntVarP(&objID, "obj", "o", domain.DefaultObjectID, "object ID on the frame")

	segmentCmd.AddCommand(segmentRunCmd)
	segmentCmd.AddCommand(segmentClearCmd)
	rootCmd.AddCommand(segmentCmd)
}
