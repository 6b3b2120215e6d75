// Package driving holds the entry points of the core: RAGService for ingest,
// query, delete and stats, and SettingsService for configuration. The CLI,
// chat TUI, MCP server and directory watcher all talk to the core through
// these interfaces only.
package driving
