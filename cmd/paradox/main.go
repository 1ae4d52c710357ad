package main

import "github.com/mcoot/paradox/internal/cli"

func main() {
	cli.Execute()
}
