// Command consulta indexes PDF documents and answers questions about
// them from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/consulta-labs/consulta/internal/adapters/driving/cli"
)

func main() {
	// API keys may live in a local .env file during development.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
