// cmd/hashpassword/main.go prints a bcrypt hash for seeding accounts by hand
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/pkg/auth"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run ./cmd/hashpassword <password>")
	}
	password := os.Args[1]

	passwords := auth.NewPasswordManager(config.FromEnv().Security.BcryptCost)
	hash, err := passwords.HashPassword(password)
	if err != nil {
		log.Fatal("Error generating hash: ", err)
	}

	if err := passwords.VerifyPassword(password, hash); err != nil {
		log.Fatal("Hash verification failed: ", err)
	}
	fmt.Printf("Hash: %s\n", hash)
}
