package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tracewave/internal/adapters/editor"
	"tracewave/internal/adapters/filesystem"
	"tracewave/internal/application/commands"
)

var (
	projectName  string
	projectForce bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create and inspect projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <directory>",
	Short: "Create a new project",
	Long: `Create a new project in a directory.

The directory is created if missing and must be empty unless --force is
given. The project gets the default class palette.

Examples:
  tracewave-cli project create ~/annotations/traffic
  tracewave-cli project create . --name "Traffic" --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		createCmd := commands.NewCreateProjectCommand(filesystem.NewProjectStore(), args[0], projectName, projectForce)
		result, err := createCmd.Execute(ctx)
		if err != nil {
			return err
		}

		fmt.Println(result.Message)
		return nil
	},
}

var projectInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the project settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := GetRuntime()
		if err != nil {
			return err
		}
		p := rt.Workspace.Project()

		fmt.Printf("Name:        %s\n", p.Name)
		fmt.Printf("Root:        %s\n", p.Root)
		fmt.Printf("Frames:      %s\n", p.FramesRootPath())
		fmt.Printf("Annotations: %s\n", p.AnnotationsFilePath())
		fmt.Printf("Videos:      %d\n", len(p.Videos))
		fmt.Printf("Oracle:      %s (%s), auto-run %t\n", p.Oracle.ConfigName, p.Oracle.WeightsPath, p.Oracle.AutoRun)
		if status := rt.Workflow.Status(); !status.Ready() {
			fmt.Printf("             unavailable: %s\n", status.Reason)
		}
		fmt.Println("Classes:")
		for _, c := range p.Classes {
			fmt.Printf("  %s %s\n", c.Color, c.Name)
		}
		if report := rt.Workspace.LoadReport(); len(report.Skipped) > 0 {
			fmt.Printf("Skipped %d annotation records:\n", len(report.Skipped))
			for _, s := range report.Skipped {
				fmt.Printf("  #%d %s: %s\n", s.Index, s.VideoID, s.Reason)
			}
		}
		return nil
	},
}

var projectEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the project descriptor in $EDITOR",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := GetRuntime()
		if err != nil {
			return err
		}
		// save first: the descriptor is rewritten from memory on exit otherwise
		if rt.Workspace.Dirty() {
			if err := rt.Workspace.Save(); err != nil {
				return err
			}
		}
		return editor.NewOpener(cfg.Editor).OpenFile(rt.Workspace.Project().DescriptorPath())
	},
}

var projectClassCmd = &cobra.Command{
	Use:   "class <name> <#RRGGBB>",
	Short: "Add a class to the palette",
	Long: `Add a class to the project palette.

Examples:
  tracewave-cli project class person "#FF4500"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := GetRuntime()
		if err != nil {
			return err
		}

		result, err := commands.NewAddClassCommand(rt.Workspace, args[0], args[1]).Execute(context.Background())
		if err != nil {
			return err
		}

		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().StringVarP(&projectName, "name", "n", "", "project name (default: directory name)")
	projectCreateCmd.Flags().BoolVarP(&projectForce, "force", "f", false, "create in a non-empty directory")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectInfoCmd)
	projectCmd.AddCommand(projectEditCmd)
	projectCmd.AddCommand(projectClassCmd)
	rootCmd.AddCommand(projectCmd)
}
