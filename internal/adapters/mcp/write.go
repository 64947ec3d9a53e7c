package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tracewave/internal/application"
	"tracewave/internal/application/commands"
	"tracewave/internal/domain"
)

// Writer carries what the write tools mutate. Changes are saved by the
// autosaver once the caller pauses, or immediately by the save tool.
type Writer struct {
	Workspace *application.Workspace
	Workflow  *application.Workflow
	Autosaver *application.Autosaver
}

// RegisterWriteTools adds all annotation write tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, w Writer) {
	s.AddTool(pointTool(), pointHandler(w))
	s.AddTool(boxTool(), boxHandler(w))
	s.AddTool(classTool(), classHandler(w))
	s.AddTool(clearObjectTool(), clearObjectHandler(w))
	s.AddTool(segmentTool(), segmentHandler(w))
	s.AddTool(clearMaskTool(), clearMaskHandler(w))
	s.AddTool(saveTool(), saveHandler(w))
}

func selectionOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("video_id",
			mcp.Description("Video ID"),
			mcp.Required(),
		),
		mcp.WithNumber("frame",
			mcp.Description("Frame index (0-based)"),
			mcp.Required(),
		),
		mcp.WithNumber("obj_id",
			mcp.Description("Object ID on the frame, 1 or more. Defaults to 1."),
		),
	}
}

func selection(req mcp.CallToolRequest) application.Selection {
	return application.Selection{
		VideoID: req.GetString("video_id", ""),
		Frame:   req.GetInt("frame", -1),
		ObjID:   req.GetInt("obj_id", domain.DefaultObjectID),
	}
}

func newTool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	opts = append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)
	return mcp.NewTool(name, opts...)
}

// annotated runs an annotation command and schedules a save
func (w Writer) annotated(res *commands.AnnotateResult, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return toolError(err)
	}
	w.Autosaver.Touch()
	return mcp.NewToolResultText(res.Message), nil
}

// --- point ---

func pointTool() mcp.Tool {
	return newTool("point",
		"Add a prompt point to an object, or remove one with remove=true. Label 1 marks foreground, 0 background.",
		append(selectionOptions(),
			mcp.WithNumber("x", mcp.Description("Pixel column"), mcp.Required()),
			mcp.WithNumber("y", mcp.Description("Pixel row"), mcp.Required()),
			mcp.WithNumber("label", mcp.Description("1 foreground (default), 0 background")),
			mcp.WithBoolean("remove", mcp.Description("Remove the first matching point instead of adding")),
		)...,
	)
}

func pointHandler(w Writer) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sel := selection(req)
		x := req.GetInt("x", -1)
		y := req.GetInt("y", -1)
		label := req.GetInt("label", domain.LabelForeground)
		remove := req.GetBool("remove", false)

		return w.annotated(commands.NewPointCommand(w.Workspace, sel, x, y, label, remove).Execute(ctx))
	}
}

// --- box ---

func boxTool() mcp.Tool {
	return newTool("box",
		"Set the bounding box of an object as x, y, width and height in pixels. A zero-size box is kept but not persisted.",
		append(selectionOptions(),
			mcp.WithNumber("x", mcp.Description("Left edge"), mcp.Required()),
			mcp.WithNumber("y", mcp.Description("Top edge"), mcp.Required()),
			mcp.WithNumber("w", mcp.Description("Width"), mcp.Required()),
			mcp.WithNumber("h", mcp.Description("Height"), mcp.Required()),
		)...,
	)
}

func boxHandler(w Writer) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		box := domain.Box{
			X: req.GetInt("x", 0),
			Y: req.GetInt("y", 0),
			W: req.GetInt("w", 0),
			H: req.GetInt("h", 0),
		}
		return w.annotated(commands.NewBoxCommand(w.Workspace, selection(req), box).Execute(ctx))
	}
}

// --- class ---

func classTool() mcp.Tool {
	return newTool("class",
		"Assign a palette class to an object. An empty class clears it.",
		append(selectionOptions(),
			mcp.WithString("class", mcp.Description("Class name from the project palette")),
		)...,
	)
}

func classHandler(w Writer) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		class := req.GetString("class", "")
		return w.annotated(commands.NewClassCommand(w.Workspace, selection(req), class).Execute(ctx))
	}
}

// --- clear_object ---

func clearObjectTool() mcp.Tool {
	return newTool("clear_object",
		"Remove every point, the box, the polygon and the class of an object.",
		selectionOptions()...,
	)
}

func clearObjectHandler(w Writer) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return w.annotated(commands.NewClearObjectCommand(w.Workspace, selection(req)).Execute(ctx))
	}
}

// --- segment ---

func segmentTool() mcp.Tool {
	return newTool("segment",
		"Run the segmentation model on an object's points and box and store the resulting polygon.",
		selectionOptions()...,
	)
}

func segmentHandler(w Writer) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if status := w.Workflow.Status(); !status.Ready() {
			return toolError(fmt.Errorf("segmentation unavailable: %s", status.Reason))
		}

		res, err := commands.NewSegmentCommand(w.Workspace, w.Workflow, selection(req)).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if res.Outcome != application.OutcomeCommitted {
			return mcp.NewToolResultError(res.Message), nil
		}
		w.Autosaver.Touch()
		return mcp.NewToolResultText(res.Message), nil
	}
}

// --- clear_mask ---

func clearMaskTool() mcp.Tool {
	return newTool("clear_mask",
		"Remove the polygon of an object, keeping its prompts.",
		selectionOptions()...,
	)
}

func clearMaskHandler(w Writer) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return w.annotated(commands.NewClearMaskCommand(w.Workspace, w.Workflow, selection(req)).Execute(ctx))
	}
}

// --- save ---

func saveTool() mcp.Tool {
	return newTool("save",
		"Write pending changes to the project descriptor and the annotations file now.",
	)
}

func saveHandler(w Writer) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !w.Workspace.Dirty() {
			return mcp.NewToolResultText("Nothing to save."), nil
		}
		if err := w.Autosaver.Flush(); err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText("Saved."), nil
	}
}
