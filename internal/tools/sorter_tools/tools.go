package sorter_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxsorter/internal/config"
	"github.com/teemow/inboxsorter/internal/instrumentation"
	"github.com/teemow/inboxsorter/internal/server"
	"github.com/teemow/inboxsorter/internal/sorter"
	"github.com/teemow/inboxsorter/internal/tools/batch"
	"github.com/teemow/inboxsorter/internal/tools/common"
)

const accountDescription = "Account name (default: the configured account). Used to manage multiple Google accounts."

// RegisterSorterTools registers the sorter tools with the MCP server.
// sorter_run and sorter_apply_label mutate the mailbox and are only
// registered when readOnly is false.
func RegisterSorterTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	classifyTool := mcp.NewTool("sorter_classify_email",
		mcp.WithDescription("Classify an email by subject and snippet and show the label the sorter would apply. Does not access the mailbox."),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("snippet",
			mcp.Description("Short body excerpt of the email"),
		),
	)
	s.AddTool(classifyTool, common.InstrumentedToolHandler("sorter_classify_email", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleClassifyEmail(ctx, request, sc)
		}))

	listLabelsTool := mcp.NewTool("sorter_list_labels",
		mcp.WithDescription("List the Gmail labels of an account"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
	)
	s.AddTool(listLabelsTool, common.InstrumentedToolHandler("sorter_list_labels", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListLabels(ctx, request, sc)
		}))

	previewTool := mcp.NewTool("sorter_preview",
		mcp.WithDescription("Classify the most recent inbox emails and show the labels the sorter would apply, without changing the mailbox"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithNumber("batchSize",
			mcp.Description(fmt.Sprintf("Number of recent emails to look at (default: configured batch size, max %d)", config.MaxBatchSize)),
		),
	)
	s.AddTool(previewTool, common.InstrumentedToolHandler("sorter_preview", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSort(ctx, request, sc, true)
		}))

	if readOnly {
		return nil
	}

	runTool := mcp.NewTool("sorter_run",
		mcp.WithDescription("Classify the most recent inbox emails, apply the chosen label and archive them"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithNumber("batchSize",
			mcp.Description(fmt.Sprintf("Number of recent emails to process (default: configured batch size, max %d)", config.MaxBatchSize)),
		),
	)
	s.AddTool(runTool, common.InstrumentedToolHandler("sorter_run", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSort(ctx, request, sc, false)
		}))

	applyLabelTool := mcp.NewTool("sorter_apply_label",
		mcp.WithDescription("Apply a category or the review label to messages by hand and archive them, e.g. after reviewing Needs-Review mail"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Comma separated message IDs, e.g. \"18c2a,18c2b\". A single ID needs no comma."),
		),
		mcp.WithString("label",
			mcp.Required(),
			mcp.Description("One of the configured categories or the review label, without the label prefix"),
		),
	)
	s.AddTool(applyLabelTool, common.InstrumentedToolHandler("sorter_apply_label", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleApplyLabel(ctx, request, sc)
		}))

	return nil
}

// classifyResult is the reply of sorter_classify_email.
type classifyResult struct {
	Category       string  `json:"category"`
	Confidence     float64 `json:"confidence"`
	FinalLabel     string  `json:"final_label"`
	Confident      bool    `json:"confident"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
}

func handleClassifyEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	subject, ok := args["subject"].(string)
	if !ok || subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}
	snippet, _ := args["snippet"].(string)

	res := sc.Classifier().Classify(ctx, subject, snippet)
	label, confident := sc.Policy().Decide(res)

	routing := instrumentation.RoutingReview
	if confident {
		routing = instrumentation.RoutingConfident
	}
	outcome := instrumentation.OutcomeParsed
	if res.Degraded() {
		outcome = instrumentation.OutcomeFallback
	}
	sc.Metrics().RecordClassification(ctx, res.Category, routing, outcome, res.Confidence)

	out := classifyResult{
		Category:   res.Category,
		Confidence: res.Confidence,
		FinalLabel: label,
		Confident:  confident,
	}
	if res.Degraded() {
		out.FallbackReason = string(res.Fallback.Reason)
	}
	return jsonResult(out)
}

func handleListLabels(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	account := common.GetAccountFromArgs(request.GetArguments(), sc.Config().Account)

	repo, err := sc.LabelRepository(account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Gmail client not available for account %s: %v", account, err)), nil
	}

	all, err := repo.Labels(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list labels: %v", err)), nil
	}
	return jsonResult(all)
}

func handleSort(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, dryRun bool) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args, sc.Config().Account)

	batchSize := common.GetIntArg(args, "batchSize", sc.Config().BatchSize)
	if batchSize < 1 || batchSize > config.MaxBatchSize {
		return mcp.NewToolResultError(fmt.Sprintf("batchSize must be between 1 and %d", config.MaxBatchSize)), nil
	}

	s, err := sc.Sorter(account, dryRun)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Gmail client not available for account %s: %v", account, err)), nil
	}

	outcomes, err := s.Run(ctx, batchSize)
	if err != nil && outcomes == nil {
		return mcp.NewToolResultError(fmt.Sprintf("Sorting failed: %v", err)), nil
	}

	report := sorter.Report{
		DryRun:   dryRun,
		Summary:  sorter.Summarize(outcomes),
		Outcomes: outcomes,
	}
	if report.Outcomes == nil {
		report.Outcomes = []sorter.Outcome{}
	}
	if err == nil {
		return jsonResult(report)
	}

	// Cancelled mid-batch. Emails already labeled stay in the report.
	report.Stopped = fmt.Sprintf("sorting stopped after %d emails: %v", len(outcomes), err)
	result, err := jsonResult(report)
	if err != nil {
		return nil, err
	}
	result.IsError = true
	return result, nil
}

func handleApplyLabel(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args, sc.Config().Account)
	cfg := sc.Config()

	label, _ := args["label"].(string)
	if label != cfg.ReviewLabel && !slices.Contains(cfg.Categories, label) {
		return mcp.NewToolResultError(fmt.Sprintf("label must be one of the categories or %q, got %q", cfg.ReviewLabel, label)), nil
	}

	ids, err := batch.ParseMessageIDs(args["messageIds"], "messageIds", config.MaxBatchSize)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	repo, err := sc.LabelRepository(account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Gmail client not available for account %s: %v", account, err)), nil
	}

	runID := uuid.NewString()
	applied := cfg.Labels.Prefix + label
	res := batch.Apply(ctx, label, ids, func(ctx context.Context, messageID string) error {
		ctx, cancel := context.WithTimeout(ctx, cfg.Gmail.Timeout)
		defer cancel()

		err := repo.EnsureLabelApplied(ctx, messageID, applied)
		sc.AuditLogger().LogLabelMutation(
			instrumentation.NewLabelMutation(ctx, runID, messageID, applied).Complete(err))
		return err
	})
	return jsonResult(res)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
