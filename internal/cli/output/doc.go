// Package output provides output formatting for cachemesh-cli.
//
// Formatters support tabular output for humans and JSON for scripting.
package output
