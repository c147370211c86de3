package main

import "github.com/goliatone/go-proxylist/internal/cli"

func main() {
	cli.Execute()
}
