package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tracewave/internal/application"
	"tracewave/internal/application/commands"
	"tracewave/internal/domain"
)

var (
	objID      int
	pointLabel int
	showFrame  int
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Edit the prompts of an object",
	Long: `Edit the prompts of an object on a frame.

Objects are numbered from 1 per frame; --obj selects one (default 1).
Changes are written to the annotations file when the command exits.

Examples:
  tracewave-cli annotate point clip 12 340 210
  tracewave-cli annotate point clip 12 80 40 --label 0 --obj 2
  tracewave-cli annotate box clip 12 300 180 90 60
  tracewave-cli annotate class clip 12 person
  tracewave-cli annotate show clip --frame 12`,
}

// selectionArgs parses the leading <video-id> <frame> arguments
func selectionArgs(args []string) (application.Selection, error) {
	frame, err := parseFrame(args[1])
	if err != nil {
		return application.Selection{}, err
	}
	return application.Selection{VideoID: args[0], Frame: frame, ObjID: objID}, nil
}

func intArgs(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, &application.ValidationError{Field: "coordinates", Message: fmt.Sprintf("not an integer: %q", a)}
		}
		out[i] = n
	}
	return out, nil
}

// runAnnotation opens the project, runs the command built by build and prints its message
func runAnnotation(args []string, build func(ws *application.Workspace, sel application.Selection) (*commands.AnnotateResult, error)) error {
	sel, err := selectionArgs(args)
	if err != nil {
		return err
	}
	rt, err := GetRuntime()
	if err != nil {
		return err
	}
	result, err := build(rt.Workspace, sel)
	if err != nil {
		return err
	}
	fmt.Println(result.Message)
	return nil
}

func pointRunE(remove bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		xy, err := intArgs(args[2:])
		if err != nil {
			return err
		}
		return runAnnotation(args, func(ws *application.Workspace, sel application.Selection) (*commands.AnnotateResult, error) {
			return commands.NewPointCommand(ws, sel, xy[0], xy[1], pointLabel, remove).Execute(context.Background())
		})
	}
}

var annotatePointCmd = &cobra.Command{
	Use:   "point <video-id> <frame> <x> <y>",
	Short: "Add a prompt point",
	Args:  cobra.ExactArgs(4),
	RunE:  pointRunE(false),
}

var annotateUnpointCmd = &cobra.Command{
	Use:   "unpoint <video-id> <frame> <x> <y>",
	Short: "Remove the first point at a position with the given label",
	Args:  cobra.ExactArgs(4),
	RunE:  pointRunE(true),
}

var annotateBoxCmd = &cobra.Command{
	Use:   "box <video-id> <frame> <x> <y> <w> <h>",
	Short: "Set the bounding box of an object",
	Args:  cobra.ExactArgs(6),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := intArgs(args[2:])
		if err != nil {
			return err
		}
		box := domain.Box{X: v[0], Y: v[1], W: v[2], H: v[3]}
		return runAnnotation(args, func(ws *application.Workspace, sel application.Selection) (*commands.AnnotateResult, error) {
			return commands.NewBoxCommand(ws, sel, box).Execute(context.Background())
		})
	},
}

var annotateClassCmd = &cobra.Command{
	Use:   "class <video-id> <frame> [class]",
	Short: "Assign a palette class to an object, or clear it",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		class := ""
		if len(args) == 3 {
			class = args[2]
		}
		return runAnnotation(args, func(ws *application.Workspace, sel application.Selection) (*commands.AnnotateResult, error) {
			return commands.NewClassCommand(ws, sel, class).Execute(context.Background())
		})
	},
}

var annotateClearCmd = &cobra.Command{
	Use:   "clear <video-id> <frame>",
	Short: "Remove everything annotated on an object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnnotation(args, func(ws *application.Workspace, sel application.Selection) (*commands.AnnotateResult, error) {
			return commands.NewClearObjectCommand(ws, sel).Execute(context.Background())
		})
	},
}

var annotateShowCmd = &cobra.Command{
	Use:   "show <video-id>",
	Short: "Print the annotations of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := GetRuntime()
		if err != nil {
			return err
		}

		records, err := commands.NewShowAnnotationsCommand(rt.Workspace, args[0], showFrame).Execute(context.Background())
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No annotations.")
			return nil
		}
		for _, r := range records {
			fmt.Println(r.Summary())
		}
		return nil
	},
}

func init() {
	annotateCmd.PersistentFlags().IntVarP(&objID, "obj", "o", domain.DefaultObjectID, "object ID on the frame")
	annotatePointCmd.Flags().IntVarP(&pointLabel, "label", "l", domain.LabelForeground, "1 foreground, 0 background")
	annotateUnpointCmd.Flags().IntVarP(&pointLabel, "label", "l", domain.LabelForeground, "1 foreground, 0 background")
	annotateShowCmd.Flags().IntVarP(&showFrame, "frame", "f", -1, "only show one frame")

	annotateCmd.AddCommand(annotatePointCmd)
	annotateCmd.AddCommand(annotateUnpointCmd)
	annotateCmd.AddCommand(annotateBoxCmd)
	annotateCmd.AddCommand(annotateClassCmd)
	annotateCmd.AddCommand(annotateClearCmd)
	annotateCmd.AddCommand(annotateShowCmd)
	rootCmd.AddCommand(annotateCmd)
}
