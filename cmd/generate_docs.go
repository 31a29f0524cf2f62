package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxsorter/internal/server"
	"github.com/teemow/inboxsorter/internal/tools/sorter_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	markdown, err := toolsReference(context.Background())
	if err != nil {
		return err
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

// toolsReference registers the tools once read-only and once with write
// operations and renders both sets. No model or Gmail access happens.
func toolsReference(ctx context.Context) (string, error) {
	serverContext, err := server.NewServerContext(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	readOnly, err := registeredTools(serverContext, true)
	if err != nil {
		return "", err
	}
	all, err := registeredTools(serverContext, false)
	if err != nil {
		return "", err
	}

	var write []mcp.Tool
	for _, tool := range all {
		if !containsTool(readOnly, tool.Name) {
			write = append(write, tool)
		}
	}

	return generateToolsMarkdown(readOnly, write), nil
}

// registeredTools returns the tools of a fresh server sorted by name.
func registeredTools(sc *server.ServerContext, readOnly bool) ([]mcp.Tool, error) {
	mcpSrv := mcpserver.NewMCPServer("inboxsorter", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := sorter_tools.RegisterSorterTools(mcpSrv, sc, readOnly); err != nil {
		return nil, fmt.Errorf("failed to register sorter tools: %w", err)
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})
	return tools, nil
}

func generateToolsMarkdown(readOnly, write []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools available when running `inboxsorter serve`.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	sb.WriteString("Mailbox tools take an optional `account` argument naming the Google account ")
	sb.WriteString("authorized with `inboxsorter auth --account <name>`. Without it the configured account is used.\n\n")

	sb.WriteString("## Read-only tools\n\n")
	sb.WriteString("Always registered. They never change the mailbox.\n\n")
	for _, tool := range readOnly {
		sb.WriteString(generateToolMarkdown(tool))
	}

	if len(write) > 0 {
		sb.WriteString("## Write tools\n\n")
		sb.WriteString("Registered only with `--yolo`. They label and archive messages.\n\n")
		for _, tool := range write {
			sb.WriteString(generateToolMarkdown(tool))
		}
	}

	return sb.String()
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}

	if len(tool.InputSchema.Properties) == 0 {
		sb.WriteString("No arguments.\n\n")
		return sb.String()
	}

	propNames := make([]string, 0, len(tool.InputSchema.Properties))
	for name := range tool.InputSchema.Properties {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	sb.WriteString("| Argument | Type | Required | Description |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, name := range propNames {
		propMap, ok := tool.InputSchema.Properties[name].(map[string]interface{})
		if !ok {
			continue
		}

		required := "no"
		if containsString(tool.InputSchema.Required, name) {
			required = "yes"
		}
		desc, _ := propMap["description"].(string)

		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", name, getPropertyType(propMap), required, strings.ReplaceAll(desc, "|", `\|`))
	}
	sb.WriteString("\n")

	return sb.String()
}

func getPropertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func containsTool(tools []mcp.Tool, name string) bool {
	for _, t := range tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
