// Command sweep runs one retention pass over the undo journal: it deletes
// records older than the retention window and evicts them from the cache.
// Use it when the in-process schedule is disabled or for backfills.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"

	"github.com/heartmarshall/undojournal/internal/app"
)

func main() {
	if err := app.RunSweep(context.Background()); err != nil {
		log.Fatalf("sweep: %v", err)
	}
}
