package main

import (
	"fmt"
	"os"

	"github.com/idilsaglam/tada/internal/cli"
)

func main() {
	code := cli.Run(os.Args[1:], cli.Options{})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
