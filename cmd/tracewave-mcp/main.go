package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/automaxprocs/maxprocs"

	mcpadapter "tracewave/internal/adapters/mcp"
	"tracewave/internal/bootstrap"
	"tracewave/internal/config"
	"tracewave/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tracewave-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flag.StringVar(&cfg.ProjectPath, "project", cfg.ProjectPath, "project directory or project.json")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.Parse()

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	// stdout carries the protocol
	logger := logging.New(os.Stderr, level)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		logger.Warn("failed to set GOMAXPROCS", "error", err)
	}

	rt, err := bootstrap.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	mcpServer := server.NewMCPServer(
		"tracewave-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, rt.Workspace, rt.Index)
	mcpadapter.RegisterWriteTools(mcpServer, mcpadapter.Writer{
		Workspace: rt.Workspace,
		Workflow:  rt.Workflow,
		Autosaver: rt.Autosaver,
	})

	logger.Info("serving", "project", rt.Workspace.Project().Root)
	return server.ServeStdio(mcpServer)
}
