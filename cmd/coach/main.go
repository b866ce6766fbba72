package main

import (
	"os"

	"github.com/akshayr/portfolio-coach/cmd/coach/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
