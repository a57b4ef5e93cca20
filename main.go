package main

import "github.com/agentic-research/routemap/cmd"

func main() {
	cmd.Execute()
}
