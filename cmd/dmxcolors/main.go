// Command dmxcolors lists, filters, exports and marks the RGBWA color
// combinations of a DMX step domain.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
