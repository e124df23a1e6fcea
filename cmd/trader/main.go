package main

import (
	"log"

	"github.com/joho/godotenv"

	"OptionSentinel/internal/app"
	"OptionSentinel/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
	if err := app.Run(config.Live()); err != nil {
		log.Fatalf("option sentinel: %v", err)
	}
}
