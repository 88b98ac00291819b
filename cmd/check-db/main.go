// Package main is a diagnostic tool for testing database connectivity and
// inspecting live portal data. It connects to the database, queries the users
// and forum_queries tables, and prints a summary to stdout. The binary exits
// with a non-zero code on any failure so it can be embedded in health checks
// or CI/CD pipeline steps to gate deployments on a reachable, populated
// database.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	dbPassword := os.Getenv("DATABASE_PASSWORD")
	if dbPassword == "" {
		dbPassword = "portal"
	}

	connStr := fmt.Sprintf("host=localhost port=5432 user=portal password=%s dbname=member_portal sslmode=disable", dbPassword)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	// Check users
	fmt.Println("=== USERS ===")
	rows, err := db.Query("SELECT u.id, u.email, u.is_active, COALESCE(r.role, 'registered_member') FROM users u LEFT JOIN user_roles r ON r.user_id = u.id")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, email, role string
		var isActive bool
		if err := rows.Scan(&id, &email, &isActive, &role); err != nil {
			log.Printf("Warning: failed to scan user row: %v", err)
			continue
		}
		fmt.Printf("User: %s role=%s active=%v (ID: %s)\n", email, role, isActive, id)
	}

	// Check queries
	fmt.Println("\n=== FORUM QUERIES ===")
	rows2, err := db.Query("SELECT id, category, status, subject FROM forum_queries ORDER BY created_at DESC LIMIT 50")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows2.Close()

	count := 0
	for rows2.Next() {
		var id, category, status, subject string
		if err := rows2.Scan(&id, &category, &status, &subject); err != nil {
			log.Printf("Warning: failed to scan query row: %v", err)
			continue
		}
		fmt.Printf("Query: [%s/%s] %s (ID: %s)\n", category, status, subject, id)
		count++
	}

	if count == 0 {
		fmt.Println("No queries found!")
	}
}
