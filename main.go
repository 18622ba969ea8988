// Package main is the entry point for the verge CLI, which profiles
// TETR.IO Tetra League players from their public league data.
package main

import "github.com/pable/go-tl-verge/cmd"

func main() {
	cmd.Execute()
}
