// Package agent composes the mail sources, the JSON document store and
// the classification client into the application operations the HTTP
// and MCP surfaces expose: ingesting messages, batch categorization
// with conditional task extraction, draft generation and chat.
//
// Batch processing is sequential per message; the classification
// client's rate limiter paces provider calls regardless of how the
// agent is invoked. One message failing never aborts the batch.
package agent
