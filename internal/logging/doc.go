// Package logging provides structured logging helpers for mailminder.
//
// It centralizes attribute naming on top of the standard library's slog
// package so that log lines stay consistent and greppable across the
// codebase, and keeps PII (email addresses) out of logs by hashing.
//
// Typical usage:
//
//	logger := logging.WithService(slog.Default(), "store")
//	logger.Info("messages saved",
//	    logging.Operation("replace_messages"),
//	    "count", len(msgs))
//
// Sensitive sender/recipient addresses go through UserHash:
//
//	logger.Info("draft created", logging.UserHash(draft.To))
package logging
