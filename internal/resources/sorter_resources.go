package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxsorter/internal/server"
)

// Resource URIs.
const (
	SettingsURI = "sorter://settings"
	LabelsURI   = "sorter://labels"
)

// RegisterSorterResources registers the read-only sorter resources.
func RegisterSorterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	settingsResource := mcp.NewResource(
		SettingsURI,
		"Sorter Settings",
		mcp.WithResourceDescription("Categories, threshold, review label and model the sorter decides with"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(settingsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSettings(ctx, request, sc)
	})

	labelsResource := mcp.NewResource(
		LabelsURI,
		"Gmail Labels",
		mcp.WithResourceDescription("Labels of the configured Gmail account"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(labelsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleLabels(ctx, request, sc)
	})

	return nil
}

// settings is the public part of the configuration. Credentials are left out.
type settings struct {
	Account          string   `json:"account"`
	Categories       []string `json:"categories"`
	Threshold        float64  `json:"threshold"`
	ReviewLabel      string   `json:"review_label"`
	LabelPrefix      string   `json:"label_prefix,omitempty"`
	StrictCategories bool     `json:"strict_categories"`
	BatchSize        int      `json:"batch_size"`
	Query            string   `json:"query"`
	Model            string   `json:"model"`
	ModelURL         string   `json:"model_url"`
}

func handleSettings(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	cfg := sc.Config()
	return jsonContents(request.Params.URI, settings{
		Account:          cfg.Account,
		Categories:       cfg.Categories,
		Threshold:        cfg.Threshold,
		ReviewLabel:      cfg.ReviewLabel,
		LabelPrefix:      cfg.Labels.Prefix,
		StrictCategories: cfg.Classifier.StrictCategories,
		BatchSize:        cfg.BatchSize,
		Query:            cfg.Gmail.Query,
		Model:            cfg.Model.Name,
		ModelURL:         cfg.Model.BaseURL,
	})
}

func handleLabels(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	account := sc.Config().Account

	repo, err := sc.LabelRepository(account)
	if err != nil {
		return nil, fmt.Errorf("no Gmail client available for account %s: %w", account, err)
	}

	all, err := repo.Labels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return jsonContents(request.Params.URI, all)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
