// Package logs reads the daemon log file for the CLI. Tail prints the last
// lines and can keep following the file as the daemon appends to it or
// rotates the mediaq.log pointer to a new run.
package logs
