// Command toolcount measures how accurately language models count their own tool calls.
package main

import (
	"os"

	"toolcount/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
