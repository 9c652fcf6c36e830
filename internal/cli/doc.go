// Package cli builds the dagflow command tree. It turns command-line
// arguments into an app.Config and calls the matching App lifecycle.
package cli
