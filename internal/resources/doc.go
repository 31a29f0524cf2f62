// Package resources provides MCP resources describing the sorter.
// Resources are read-only data sources that MCP clients can fetch:
// the effective decision settings and the labels of the configured account.
package resources
