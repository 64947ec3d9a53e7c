package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tracewave/internal/application"
	"tracewave/internal/application/commands"
	"tracewave/internal/domain"
	"tracewave/internal/ports"
)

// RegisterReadTools adds all read-only annotation tools to the MCP server.
// index may be nil.
func RegisterReadTools(s *server.MCPServer, ws *application.Workspace, index ports.AnnotationIndex) {
	s.AddTool(videosTool(), videosHandler(ws))
	s.AddTool(framesTool(), framesHandler(ws))
	s.AddTool(annotationsTool(), annotationsHandler(ws))
	s.AddTool(statsTool(), statsHandler(ws, index))
	s.AddTool(findClassTool(), findClassHandler(ws, index))
}

// --- videos ---

func videosTool() mcp.Tool {
	return mcp.NewTool("videos",
		mcp.WithDescription("List the videos of the project with their IDs and frame counts."),
	)
}

func videosHandler(ws *application.Workspace) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		videos, err := commands.NewListVideosCommand(ws).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(videos, formatVideo)
	}
}

// --- frames ---

func framesTool() mcp.Tool {
	return mcp.NewTool("frames",
		mcp.WithDescription("List the frames of a video in navigation order, with their index and annotation status."),
		mcp.WithString("video_id",
			mcp.Description("Video ID (see the videos tool)"),
			mcp.Required(),
		),
		mcp.WithBoolean("only_annotated",
			mcp.Description("Only list frames that carry annotations"),
		),
	)
}

func framesHandler(ws *application.Workspace) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		videoID := req.GetString("video_id", "")
		only := req.GetBool("only_annotated", false)

		frames, err := commands.NewListFramesCommand(ws, videoID, only).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(frames, formatFrame)
	}
}

// --- annotations ---

func annotationsTool() mcp.Tool {
	return mcp.NewTool("annotations",
		mcp.WithDescription("Show the annotations of a video: points with labels (1 foreground, 0 background), box [x,y,w,h], class and polygon vertex count per object."),
		mcp.WithString("video_id",
			mcp.Description("Video ID"),
			mcp.Required(),
		),
		mcp.WithNumber("frame",
			mcp.Description("Frame index (0-based). Omit to show every frame."),
		),
	)
}

func annotationsHandler(ws *application.Workspace) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		videoID := req.GetString("video_id", "")
		frame := req.GetInt("frame", -1)

		records, err := commands.NewShowAnnotationsCommand(ws, videoID, frame).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if len(records) == 0 {
			return mcp.NewToolResultText("No annotations."), nil
		}
		var sb strings.Builder
		for _, r := range records {
			sb.WriteString(r.Summary())
			sb.WriteByte('\n')
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- stats ---

func statsTool() mcp.Tool {
	return mcp.NewTool("stats",
		mcp.WithDescription("Count annotated frames, objects, points, boxes and polygons per video, and objects per class."),
	)
}

func statsHandler(ws *application.Workspace, index ports.AnnotationIndex) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := commands.NewStatsCommand(ws, index).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		for _, v := range res.Videos {
			fmt.Fprintf(&sb, "%s  %d/%d frames annotated  %d objects  %d points  %d boxes  %d polygons\n",
				v.Video.ID, v.AnnotatedFrames, v.Frames, v.Objects, v.Points, v.Boxes, v.Polygons)
		}
		for _, c := range res.Classes {
			fmt.Fprintf(&sb, "class %s  %d objects\n", c.Class, c.Objects)
		}
		if res.Skipped > 0 || res.Orphans > 0 {
			fmt.Fprintf(&sb, "%d skipped records, %d records of unknown videos\n", res.Skipped, res.Orphans)
		}
		sb.WriteString(res.Message)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- find_class ---

func findClassTool() mcp.Tool {
	return mcp.NewTool("find_class",
		mcp.WithDescription("Find annotated frames by class. The class name is fuzzy matched against the project's palette."),
		mcp.WithString("class",
			mcp.Description("Class name or part of it"),
			mcp.Required(),
		),
	)
}

func findClassHandler(ws *application.Workspace, index ports.AnnotationIndex) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("class", "")

		res, err := commands.NewFindClassCommand(ws, index, query).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		sb.WriteString(res.Message)
		sb.WriteByte('\n')
		for _, f := range res.Frames {
			fmt.Fprintf(&sb, "%s  frame %d\n", f.VideoID, f.FrameIdx)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatVideo(v domain.VideoItem) string {
	s := fmt.Sprintf("%s  %s  %d frames", v.ID, v.Name, v.FrameCount)
	if v.FPS != nil {
		s += fmt.Sprintf("  %.2f fps", *v.FPS)
	}
	return s
}

func formatFrame(f commands.FrameEntry) string {
	if !f.Annotated {
		return fmt.Sprintf("%d  %s", f.Index, f.Name)
	}
	return fmt.Sprintf("%d  %s  %d objects", f.Index, f.Name, f.Objects)
}
