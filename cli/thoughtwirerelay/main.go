package main

import (
	"fmt"
	"os"

	relaycmder "github.com/papercomputeco/thoughtwire/cmd/thoughtwire/serve/relay"
)

func main() {
	cmd := relaycmder.NewRelayCmd()

	cmd.Use = "thoughtwirerelay"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")
	cmd.PersistentFlags().String("log-file", "", "Also write JSON logs with source locations to this file")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .thoughtwire/ config directory")

	err := cmd.Execute()
	if err != nil {
		fmt.Printf("Error executing root command: %v\n", err)
		os.Exit(1)
	}
}
