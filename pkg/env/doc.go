// Package env configures and assembles a node from command line flags,
// TICKPROG_* environment variables and an optional YAML profile.
package env
