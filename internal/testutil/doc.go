// Package testutil holds the harness shared by the system tests: it writes
// definition files to a temporary directory, builds an App over them and
// runs the composed workflow once.
package testutil
