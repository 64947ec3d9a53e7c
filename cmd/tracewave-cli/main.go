package main

import "tracewave/cmd/tracewave-cli/cmd"

func main() {
	cmd.Execute()
}
