package main

import (
	"os"

	"github.com/sandeepkv93/voxdash/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
