package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/smis/sso/migrate"
)

func main() {
	_ = godotenv.Load()
	if err := migrate.RunFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("migrate completed successfully")
}
