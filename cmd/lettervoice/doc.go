// Package main hosts the lettervoice CLI entrypoint and command graph.
//
// The Cobra-based command tree lists datasets and items, probes the voice
// host for assets that already exist, checks external tool availability, and
// runs the interactive recording console. Configuration resolution and logger
// setup live in commandContext so subcommands only wire internal packages
// together and render results.
package main
