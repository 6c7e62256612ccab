package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"mediamap/internal/cli"
)

func main() {
	// Configuration comes from environment variables (.env auto-loaded if
	// present), then mediamap.toml, then flags.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
