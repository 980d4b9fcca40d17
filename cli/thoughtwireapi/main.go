package main

import (
	"os"

	apicmder "github.com/papercomputeco/thoughtwire/cmd/thoughtwire/serve/api"
)

func main() {
	cmd := apicmder.NewAPICmd()
	cmd.Use = "thoughtwireapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")
	cmd.PersistentFlags().String("log-file", "", "Also write JSON logs with source locations to this file")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .thoughtwire/ config directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
