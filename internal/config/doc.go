// Package config loads the server configuration.
//
// Values come from environment variables, command-line flags, and an optional
// YAML file named by CONFIG or -config. Sources are merged so that the first
// non-zero value wins, in the order env, flags, file, then built-in defaults.
package config
