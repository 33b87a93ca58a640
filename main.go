// main is the entry point for the pawprint CLI.
package main

import (
	"os"

	"github.com/aimarketingflow/pawprint/cmd"
	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/internal/iocache"
)

func main() {
	defer iocache.CloseStores()
	if err := cmd.Execute(); err != nil {
		iocache.CloseStores()
		contract.LogWarn("Command failed", err)
		os.Exit(1)
	}
}
