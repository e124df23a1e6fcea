package main

import (
	"log"

	"OptionSentinel/internal/app"
	"OptionSentinel/internal/config"
)

func main() {
	if err := app.Run(config.Paper()); err != nil {
		log.Fatalf("option sentinel (paper): %v", err)
	}
}
