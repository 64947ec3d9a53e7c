package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"tracewave/internal/application/commands"
	"tracewave/internal/ports"
)

var (
	importQuality int
	importThreads int
	importWorkers int
)

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "Import and list videos",
}

var videosImportCmd = &cobra.Command{
	Use:   "import <video>...",
	Short: "Extract the frames of videos into the project",
	Long: `Extract the frames of one or more videos with ffmpeg and register them
in the project. A video that fails does not stop the batch.

Quality is the JPEG qscale (2 best, 31 worst).

Examples:
  tracewave-cli videos import clip.mp4
  tracewave-cli videos import *.mov --workers 2 --threads 8`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		rt, err := GetRuntime()
		if err != nil {
			return err
		}

		importCmd := commands.NewImportVideosCommand(rt.Workspace, rt.Extractor, args)
		importCmd.Quality = importQuality
		importCmd.Threads = importThreads
		importCmd.Workers = importWorkers
		importCmd.OnEvent = func(ev ports.ImportEvent) {
			switch ev.Kind {
			case ports.ImportProgress:
				fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", ev.Index, ev.Total, ev.Message)
			case ports.ImportItemError:
				fmt.Fprintf(os.Stderr, "[%d/%d] %s: %v\n", ev.Index, ev.Total, ev.Source, ev.Err)
			}
		}

		result, err := importCmd.Execute(ctx)
		if err != nil {
			return err
		}

		for _, v := range result.Videos {
			fmt.Printf("%s  %d frames\n", v.ID, v.FrameCount)
		}
		fmt.Println(result.Message)
		if len(result.Failures) > 0 {
			return fmt.Errorf("%d videos failed", len(result.Failures))
		}
		return nil
	},
}

var videosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the videos of the project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := GetRuntime()
		if err != nil {
			return err
		}

		videos, err := commands.NewListVideosCommand(rt.Workspace).Execute(context.Background())
		if err != nil {
			return err
		}

		for _, v := range videos {
			line := fmt.Sprintf("%s  %s  %d frames", v.ID, v.Name, v.FrameCount)
			if v.FPS != nil {
				line += fmt.Sprintf("  %.2f fps", *v.FPS)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	videosImportCmd.Flags().IntVarP(&importQuality, "quality", "q", commands.DefaultImportQuality, "JPEG quality, 2 (best) to 31")
	videosImportCmd.Flags().IntVar(&importThreads, "threads", commands.DefaultImportThreads, "ffmpeg threads per video")
	videosImportCmd.Flags().IntVarP(&importWorkers, "workers", "w", commands.DefaultImportWorkers, "videos extracted in parallel")

	videosCmd.AddCommand(videosImportCmd)
	videosCmd.AddCommand(videosListCmd)
	rootCmd.AddCommand(videosCmd)
}
