package main

import (
	"os"

	"github.com/shelfwise/shelfwise/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
