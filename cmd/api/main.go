package main

import (
	"os"

	"github.com/showsewa/seat-inventory/internal/app"
)

func main() {
	err := app.Run()
	if err != nil {
		os.Exit(1)
	}
}
