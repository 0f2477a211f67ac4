// Package commands defines the safetalk CLI.
//
// Commands
//
//   - chat [nickname]  Join the relay's room and chat with the other peer
//   - status           Show the relay's room via its admin endpoint
//   - config           Print the effective configuration as YAML, or --write it to a file
//
// # Implementation
//
// The root command loads the YAML configuration (if --config is given) and
// configures logging before any subcommand runs. Subcommands apply their own
// flag overrides and then build the service graph with app.NewWire.
package commands
