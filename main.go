package main

import (
	"os"

	"mmcc/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
