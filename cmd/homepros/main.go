// Package main is the entry point for the Jacksonville Home Pros API.
// Subcommands serve the HTTP API and manage the database schema.
package main

import "homepros/cmd/homepros/commands"

func main() {
	commands.Execute()
}
