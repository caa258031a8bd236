// Package cmd implements the command-line interface for mailminder.
//
// This package provides the following commands:
//   - serve: Start the HTTP API server, optionally with an MCP stdio transport
//   - auth: Run the Google OAuth flow and cache a Gmail token
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
