// Package envscan finds credential-like entries in .env-style files.
//
// A Scanner walks a directory tree, reads every file whose name starts with
// ".env", parses KEY=VALUE lines and reports keys that match a set of
// sensitive-name patterns. Values are never reported verbatim: each finding
// carries a redacted preview produced by the redact package.
package envscan
