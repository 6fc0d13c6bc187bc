// Command server runs the undo journal HTTP API.
package main

import (
	"context"
	"log"

	"github.com/heartmarshall/undojournal/internal/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("server: %v", err)
	}
}
