package main

import (
	"github.com/joho/godotenv"

	"course-admin/internal/cli"
	"course-admin/internal/config"
)

func main() {
	// .env opcional
	_ = godotenv.Load()

	cli.Execute(config.Load())
}
