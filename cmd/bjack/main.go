package main

import "github.com/mcoot/arcade/internal/cli"

func main() {
	cli.Execute()
}
