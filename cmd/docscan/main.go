package main

import (
	"github.com/schliweb/docscan/cmd/docscan/cmd"
)

func main() {
	cmd.Execute()
}
