package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer exposes single-video jobs as MCP tools
type MCPServer struct {
	app       *App
	mcpServer *server.MCPServer
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(app *App) *MCPServer {
	mcpServer := server.NewMCPServer(
		"ytscribe-server",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		app:       app,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s
}

func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_youtube_metadata",
		mcp.WithDescription("Get the title, channel and publish date of a YouTube video without downloading it."),
		mcp.WithString("url",
			mcp.Description("YouTube video URL"),
			mcp.Required(),
		),
	), s.handleGetMetadata)

	s.mcpServer.AddTool(mcp.NewTool("transcribe_youtube_audio",
		mcp.WithDescription("Download the audio of a YouTube video, transcribe it with Whisper and save the transcript and metadata files in the configured output directory. Returns the transcript."),
		mcp.WithString("url",
			mcp.Description("YouTube video URL"),
			mcp.Required(),
		),
	), s.handleTranscribe)
}

// handleGetMetadata implements the get_youtube_metadata tool
func (s *MCPServer) handleGetMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	s.app.logger.Infof("get_youtube_metadata: %s", url)
	metadata, err := s.app.Metadata(ctx, url)
	if err != nil {
		s.app.logger.Errorf("get_youtube_metadata: %v", err)
		return mcp.NewToolResultErrorFromErr("metadata error", err), nil
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "Title: %s\n", metadata.Title)
	fmt.Fprintf(&buf, "Channel: %s\n", metadata.Channel)
	fmt.Fprintf(&buf, "Publish Date: %s\n", metadata.PublishDate)
	if metadata.Duration > 0 {
		fmt.Fprintf(&buf, "Duration: %.0f seconds\n", metadata.Duration)
	}

	return mcp.NewToolResultText(buf.String()), nil
}

// handleTranscribe implements the transcribe_youtube_audio tool as a one-job batch
func (s *MCPServer) handleTranscribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	s.app.logger.Infof("transcribe_youtube_audio: %s", url)
	outcome := s.app.ProcessJob(ctx, Job{ID: s.app.newJobID(), URL: url})
	if !outcome.OK() {
		return mcp.NewToolResultErrorFromErr(fmt.Sprintf("failed while %s", outcome.Stage), outcome.Err), nil
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "Title: %s\n", outcome.Metadata.Title)
	fmt.Fprintf(&buf, "Language: %s\n", outcome.Metadata.DetectedLanguage)
	fmt.Fprintf(&buf, "Transcript file: %s\n", outcome.TranscriptPath)
	fmt.Fprintf(&buf, "Metadata file: %s\n\n", outcome.MetadataPath)
	buf.WriteString(outcome.Transcript)

	return mcp.NewToolResultText(buf.String()), nil
}

// Start starts the MCP server using the specified transport
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	if err := EnsureDirs(s.app.config.TempDir); err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}

	if transport == "http" {
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				s.app.logger.Errorf("http shutdown: %v", err)
			}
		}()
		if err := httpServer.Start(fmt.Sprintf(":%d", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	err := server.NewStdioServer(s.mcpServer).Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
