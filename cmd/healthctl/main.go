package main

import "github.com/fasalvaidya/crop-health/internal/cli"

func main() {
	cli.Execute()
}
