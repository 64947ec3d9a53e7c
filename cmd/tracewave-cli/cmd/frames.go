package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tracewave/internal/adapters/viewer"
	"tracewave/internal/application"
	"tracewave/internal/application/commands"
)

var onlyAnnotated bool

var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "List and open frames",
}

var framesListCmd = &cobra.Command{
	Use:   "list <video-id>",
	Short: "List the frames of a video",
	Long: `List the frames of a video in navigation order.

Examples:
  tracewave-cli frames list clip
  tracewave-cli frames list clip --annotated`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := GetRuntime()
		if err != nil {
			return err
		}

		frames, err := commands.NewListFramesCommand(rt.Workspace, args[0], onlyAnnotated).Execute(context.Background())
		if err != nil {
			return err
		}

		for _, f := range frames {
			if f.Annotated {
				fmt.Printf("%d  %s  %d objects\n", f.Index, f.Name, f.Objects)
			} else {
				fmt.Printf("%d  %s\n", f.Index, f.Name)
			}
		}
		return nil
	},
}

var framesOpenCmd = &cobra.Command{
	Use:   "open <video-id> <frame>",
	Short: "Open a frame in the system image viewer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		frame, err := parseFrame(args[1])
		if err != nil {
			return err
		}

		rt, err := GetRuntime()
		if err != nil {
			return err
		}

		frames, err := commands.NewListFramesCommand(rt.Workspace, args[0], false).Execute(context.Background())
		if err != nil {
			return err
		}
		if frame >= len(frames) {
			return fmt.Errorf("frame %d of %s: %w", frame, args[0], application.ErrNotFound)
		}

		return viewer.NewOpener().OpenFile(frames[frame].Path)
	},
}

func parseFrame(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, &application.ValidationError{Field: "frame", Message: fmt.Sprintf("must be a non-negative integer, got %q", s)}
	}
	return n, nil
}

func init() {
	framesListCmd.Flags().BoolVarP(&onlyAnnotated, "annotated", "a", false, "only list annotated frames")

	framesCmd.AddCommand(framesListCmd)
	framesCmd.AddCommand(framesOpenCmd)
	rootCmd.AddCommand(framesCmd)
}
