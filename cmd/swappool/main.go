package main

import (
	"os"

	"github.com/lugondev/go-swappool/cmd/swappool/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
