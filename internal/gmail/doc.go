// Package gmail implements the live mail source on top of the Gmail API.
//
// The client lists INBOX messages, fetches each in full, and normalizes
// them into the shared mail.Message shape (headers flattened, plain-text
// body decoded and truncated). It can also push generated reply drafts
// back into the mailbox.
//
// Authentication goes through the google package's credential file pair;
// a missing client secret surfaces as google.ErrNotConfigured so the API
// layer can report a setup problem instead of a server error.
package gmail
