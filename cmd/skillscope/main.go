// Command skillscope is the operator dashboard for the skill recommender:
// a long-running web/gRPC surface (serve) plus one-shot queries and
// maintenance commands against the recommender API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
