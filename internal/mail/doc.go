// Package mail defines the normalized message model shared by every part
// of the application, together with the mail source abstraction.
//
// A Source supplies normalized Message records, either from a bundled
// fixture file (MockSource) or from a live mailbox (the gmail package).
// All sources apply the same normalization rules, most importantly the
// body truncation cap, so downstream consumers never have to care where
// a message came from.
//
// The package also hosts the deterministic classification heuristics that
// back up the model-based categorization when the model's answer contains
// no recognizable label.
package mail
