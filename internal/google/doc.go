// Package google handles Google OAuth2 credentials for the live Gmail
// source.
//
// Authentication uses a file pair: an OAuth client secret JSON
// (downloaded from the Google Cloud console) and a cached token file
// written after the one-time authorization exchange. Token refresh is
// handled transparently by the oauth2 token source.
package google
