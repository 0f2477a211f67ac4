// Package app holds configuration, logging setup and dependency wiring.
//
// Config is loaded from YAML and then overridden by command-line flags.
// NewWire builds the client-side services from it; NewRelay builds the
// relay server together with its admin HTTP endpoint.
package app
