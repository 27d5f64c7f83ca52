package main

import "github.com/mcoot/ghoulgame/internal/cli"

func main() {
	cli.Execute()
}
