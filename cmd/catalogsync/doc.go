// Package main hosts the catalogsync CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, wires the store, provider
// clients and import services, then either serves the HTTP API or runs a
// single import, a bulk batch or store maintenance directly from the
// terminal. Domain behavior lives in the internal packages; commands here only
// translate flags into service calls and render the results.
package main
