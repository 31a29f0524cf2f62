// Package sorter_tools exposes the sorter as MCP tools.
//
// Read-only tools, always registered:
//   - sorter_classify_email: classify a subject and snippet without mailbox access
//   - sorter_list_labels: list the labels of an account
//   - sorter_preview: dry run over the most recent inbox emails
//
// Write tools, registered only with --yolo:
//   - sorter_run: classify, label and archive the most recent inbox emails
//   - sorter_apply_label: label and archive given messages by hand
package sorter_tools
