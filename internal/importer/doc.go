// Package importer turns an ambiguous, human-produced tabular file into a
// strictly-typed, per-row validated sequence of certificate import rows.
//
// The validator tolerates header-naming variation and flexible date formats
// and never hard-fails on a single bad row: malformed cells produce
// validation errors attached to the row they belong to. It performs no I/O
// beyond consulting a caller-supplied set of already-issued certificate
// numbers.
package importer
