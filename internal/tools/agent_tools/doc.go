// Package agent_tools provides MCP (Model Context Protocol) tools for
// the email agent.
//
// The tools expose the same operations as the HTTP API to MCP clients:
//
//   - inbox_list: list the stored inbox messages
//   - inbox_process: categorize all stored messages and extract action
//     items from important ones
//   - draft_generate: generate and store a reply draft for a message
//   - email_chat: answer a question about a stored message
//
// Tools that reference a message take the stored message ID; the
// message itself is looked up in the document store.
package agent_tools
