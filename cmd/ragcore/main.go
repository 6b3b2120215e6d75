// Command ragcore indexes local documents and answers questions about them.
package main

import (
	"os"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
