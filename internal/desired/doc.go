// Package desired turns the raw configuration into canonical domain objects.
//
// Parsing is all-or-nothing: every malformed token is collected and the
// joined error is returned before any reconciler runs, so a bad
// configuration never leads to a partial apply. Output is deterministic for
// identical input; the ingress reconciler compares groups by their canonical
// string form.
package desired
