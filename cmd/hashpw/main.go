// Command hashpw prints a bcrypt hash for seeding user rows by hand.
//
//	go run ./cmd/hashpw [password]
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"buildmatrix/internal/auth"
)

func main() {
	password := "password123"
	if len(os.Args) > 1 {
		password = os.Args[1]
	}

	hash, err := auth.NewHasher(bcrypt.DefaultCost).Hash(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(1)
	}

	fmt.Printf("Password: %s\n", password)
	fmt.Printf("Hash:     %s\n\n", hash)
	fmt.Println("Use in SQL:")
	fmt.Printf("INSERT INTO users (name, email, password, role) VALUES ('Admin', 'admin@example.com', '%s', 'admin');\n", hash)
}
