package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/smis/sso/seed"
)

func main() {
	_ = godotenv.Load()
	if err := seed.RunFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("seed completed successfully")
}
