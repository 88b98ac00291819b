// Package main is a development utility for generating a JWT signing secret.
// It prints a 48-byte base64url-encoded secret and the export line for the
// PORTAL_JWT_SECRET environment variable so developers can quickly configure
// a local server. Do not reuse generated secrets across environments — rotate
// the production secret through your secret manager.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
)

func main() {
	// Generate random bytes
	randomBytes := make([]byte, 48)
	_, err := rand.Read(randomBytes)
	if err != nil {
		log.Fatal(err)
	}

	secret := base64.RawURLEncoding.EncodeToString(randomBytes)

	fmt.Println("Generated JWT signing secret:")
	fmt.Println()
	fmt.Printf("  export PORTAL_JWT_SECRET=%s\n", secret)
	fmt.Println()
	fmt.Println("Set this in the server environment before starting the portal.")
}
