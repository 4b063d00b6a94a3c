// Command budgetctl runs maintenance tasks against the budget database:
// migrations, recurring expense materialization, paycheck generation,
// pay period listings and ledger export backfills.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
