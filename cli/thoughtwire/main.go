package main

import (
	"os"

	thoughtwirecmder "github.com/papercomputeco/thoughtwire/cmd/thoughtwire"
)

func main() {
	cmd := thoughtwirecmder.NewThoughtwireCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
