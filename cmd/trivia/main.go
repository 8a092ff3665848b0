package main

import "github.com/mcoot/triviastake/internal/cli"

func main() {
	cli.Execute()
}
