package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

// Mints a bearer token signed with JWT_SECRET for local testing.
//
//	go run scripts/generate_token.go -user u1 -admin
func main() {
	userID := flag.String("user", "", "user id to put in the token")
	isAdmin := flag.Bool("admin", false, "grant admin access")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		log.Fatal("Usage: go run scripts/generate_token.go -user <id> [-admin] [-ttl 24h]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	token, err := auth.NewJWTManager(cfg).GenerateAccessToken(*userID, *isAdmin, *ttl)
	if err != nil {
		log.Fatal("Error generating token:", err)
	}

	fmt.Printf("User: %s (admin: %t)\n", *userID, *isAdmin)
	fmt.Printf("Token: %s\n", token)

	if _, err := auth.NewJWTManager(cfg).ValidateAccessToken(token); err != nil {
		log.Fatal("Token verification failed:", err)
	}

	fmt.Println("✅ Token verified successfully!")
}
