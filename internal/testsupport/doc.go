// Package testsupport provides shared helpers for package tests: temp-dir
// configs, SQLite-backed stores, and a scripted provider server.
package testsupport
