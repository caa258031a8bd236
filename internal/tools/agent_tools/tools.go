package agent_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/tmessner/mailminder/internal/agent"
)

// RegisterAgentTools registers the inbox tools with the MCP server.
func RegisterAgentTools(s *mcpserver.MCPServer, a *agent.Agent) error {
	// List stored inbox messages
	inboxListTool := mcp.NewTool("inbox_list",
		mcp.WithDescription("List the stored inbox messages with their categories and action items"),
	)

	s.AddTool(inboxListTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleInboxList(ctx, request, a)
	})

	// Categorize and extract action items over all stored messages
	inboxProcessTool := mcp.NewTool("inbox_process",
		mcp.WithDescription("Categorize all stored messages and extract action items from important ones"),
	)

	s.AddTool(inboxProcessTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleInboxProcess(ctx, request, a)
	})

	// Generate a reply draft for a stored message
	draftGenerateTool := mcp.NewTool("draft_generate",
		mcp.WithDescription("Generate and store a reply draft for a stored message"),
		mcp.WithString("emailId",
			mcp.Required(),
			mcp.Description("The ID of the stored message to reply to"),
		),
	)

	s.AddTool(draftGenerateTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDraftGenerate(ctx, request, a)
	})

	// Answer a question about a stored message
	emailChatTool := mcp.NewTool("email_chat",
		mcp.WithDescription("Answer a question about a stored message"),
		mcp.WithString("emailId",
			mcp.Required(),
			mcp.Description("The ID of the stored message the question is about"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
		mcp.WithString("history",
			mcp.Description("Prior conversation history, newline-separated"),
		),
	)

	s.AddTool(emailChatTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleEmailChat(ctx, request, a)
	})

	return nil
}

func handleInboxList(_ context.Context, _ mcp.CallToolRequest, a *agent.Agent) (*mcp.CallToolResult, error) {
	msgs := a.Store().GetMessages()
	payload, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode messages: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func handleInboxProcess(ctx context.Context, _ mcp.CallToolRequest, a *agent.Agent) (*mcp.CallToolResult, error) {
	if len(a.Store().GetMessages()) == 0 {
		return mcp.NewToolResultError("No messages to process. Load or fetch an inbox first."), nil
	}
	msgs, err := a.ProcessAll(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to process messages: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Processed %d messages", len(msgs))), nil
}

func handleDraftGenerate(ctx context.Context, request mcp.CallToolRequest, a *agent.Agent) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	emailID, ok := args["emailId"].(string)
	if !ok || emailID == "" {
		return mcp.NewToolResultError("'emailId' field is required"), nil
	}

	msg, ok := a.Store().GetMessage(emailID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("No stored message with ID %q", emailID)), nil
	}

	draft, err := a.GenerateDraft(ctx, msg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to generate draft: %v", err)), nil
	}

	payload, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode draft: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func handleEmailChat(ctx context.Context, request mcp.CallToolRequest, a *agent.Agent) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	emailID, ok := args["emailId"].(string)
	if !ok || emailID == "" {
		return mcp.NewToolResultError("'emailId' field is required"), nil
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("'query' field is required"), nil
	}

	history := ""
	if historyVal, ok := args["history"].(string); ok {
		history = historyVal
	}

	msg, ok := a.Store().GetMessage(emailID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("No stored message with ID %q", emailID)), nil
	}

	return mcp.NewToolResultText(a.Chat(ctx, msg, query, history)), nil
}
