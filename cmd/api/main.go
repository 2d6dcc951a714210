// Command api serves stored benchmark results over HTTP. It requires a
// PostgreSQL report ledger; in-memory results from ad hoc runs are not
// reachable across processes.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"fabbench/adapters/api"
	"fabbench/adapters/postgres"
	"fabbench/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		fmt.Fprintln(os.Stderr, "api: DATABASE_URL is required")
		os.Exit(1)
	}

	sink, err := postgres.NewReportSink(cfg.Database.URL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
	defer sink.Close()

	server := api.NewServer(sink)
	if err := server.ListenAndServe(cfg.Server.Port); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}
