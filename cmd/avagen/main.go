package main

import "github.com/labcitrus/avagen-runner/pkg/cli"

func main() {
	cli.Execute()
}
