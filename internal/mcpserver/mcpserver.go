// Package mcpserver exposes the classifier as a Model Context Protocol tool
// so that agents can route user messages through the intent corpus.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xaenox/intentbot/internal/models"
	"go.uber.org/zap"
)

const (
	ClassifyTool = "classify_intent"
	IntentsTool  = "list_intents"
)

type Classifier interface {
	Classify(ctx context.Context, raw string) models.Classification
}

type TagSearcher interface {
	SearchTags(query string) []string
}

type Server struct {
	mcp        *server.MCPServer
	classifier Classifier
	tags       TagSearcher
	logger     *zap.Logger
}

type classifyResult struct {
	Response       string  `json:"response"`
	CorrectedInput string  `json:"corrected_input"`
	Tag            string  `json:"tag,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	Fallback       bool    `json:"fallback"`
}

func New(version string, classifier Classifier, tags TagSearcher, logger *zap.Logger) *Server {
	s := &Server{
		mcp:        server.NewMCPServer("intentbot", version, server.WithToolCapabilities(false)),
		classifier: classifier,
		tags:       tags,
		logger:     logger,
	}

	s.mcp.AddTool(mcp.NewTool(ClassifyTool,
		mcp.WithDescription("Classify a user message against the intent corpus and return the canned response."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The raw user message"),
		),
	), s.handleClassify)

	s.mcp.AddTool(mcp.NewTool(IntentsTool,
		mcp.WithDescription("List the intent tags the corpus knows, optionally filtered by a fuzzy query."),
		mcp.WithString("query",
			mcp.Description("Optional fuzzy filter over tag names"),
		),
	), s.handleIntents)

	return s
}

// Serve speaks MCP over the given streams until ctx is cancelled or in is
// closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("MCP server listening on stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) handleClassify(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("message must not be blank"), nil
	}

	result := s.classifier.Classify(ctx, message)
	payload, err := json.Marshal(classifyResult{
		Response:       result.Response,
		CorrectedInput: result.NormalizedText,
		Tag:            result.Tag,
		Confidence:     result.Confidence,
		Fallback:       result.Fallback,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode classification: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleIntents(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags := s.tags.SearchTags(req.GetString("query", ""))
	if len(tags) == 0 {
		return mcp.NewToolResultText("no matching intents"), nil
	}
	return mcp.NewToolResultText(strings.Join(tags, "\n")), nil
}
