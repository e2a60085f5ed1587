// Package testutil contains helpers shared by package tests: a process runner
// that records instead of executing, Base fixtures wired to it and small
// filesystem assertions.
package testutil
