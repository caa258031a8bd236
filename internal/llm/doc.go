// Package llm is the single point of contact with the generative text
// provider (the Gemini REST API).
//
// The client owns three policies so that no caller ever has to deal with
// raw provider errors:
//
//   - Pacing: a minimum spacing between outbound provider calls, enforced
//     process-wide across all operations and all concurrent callers.
//   - Retry: a bounded retry loop that distinguishes quota exhaustion
//     (long cooldown) from other transient failures (short backoff).
//   - Robust parsing: model output is free text that may wrap the actual
//     payload in commentary or markdown code fences; the extraction
//     helpers recover the intended value or degrade to a safe default.
//
// Every operation has a total-failure fallback (Uncategorized, an empty
// task list, a boilerplate reply, an apology) so a single message's
// failure never aborts a batch.
package llm
