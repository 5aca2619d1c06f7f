// Package commit turns raw git commit messages into structured records.
//
// A message is split into a header (first line), body paragraphs and a
// footer. The header is matched against a configurable pattern whose capture
// groups are named by a correspondence list, so the same parser serves the
// conventional "type(scope): subject" layout as well as preset layouts such
// as "Component: short description". Footer lines that start with a note
// keyword ("BREAKING CHANGE:") or a reference action ("Closes #12") are
// lifted into Notes and References.
//
// Parsing never fails: a header that does not match simply leaves the
// header-derived fields absent.
package commit
