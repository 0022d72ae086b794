package main

import (
	"os"

	"github.com/scan-io-git/scanio-merge/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
