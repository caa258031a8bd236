// Package store persists application state as one flat JSON document on
// disk: {prompts, emails, drafts}.
//
// Semantics are deliberately simple: every read returns the collection as
// it is at that point in time, and every write replaces a whole
// collection; there are no partial or field-level updates. A corrupted or
// missing file is silently replaced with defaults rather than treated as
// an error.
package store
