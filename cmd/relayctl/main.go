package main

import "signal-relay/internal/cli"

func main() {
	cli.Execute()
}
