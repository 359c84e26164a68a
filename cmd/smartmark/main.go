package main

import (
	"log"

	"github.com/MrSnakeDoc/smartmark/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ smartmark failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ smartmark stopped with an error: %v", err)
	}
}
