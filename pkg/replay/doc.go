// Package replay folds recorded input traces through the ritual reducer, checks that
// the fold is deterministic and verifies YAML fixture catalogs against expected
// outcomes. Mismatches are reported as data; only malformed input is an error.
package replay
