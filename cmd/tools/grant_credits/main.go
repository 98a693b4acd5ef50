// Command grant_credits adds credits to a user's balance, recording the
// adjustment in the transaction log. Used for manual remediation, e.g. after
// a crash left a charged batch unfinished.
//
// Usage:
//
//	go run cmd/tools/grant_credits/main.go <user-id> <amount> [reason]
//
// Requires DATABASE_URL environment variable to be set.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/blueprint-engine/internal/db"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: grant_credits <user-id> <amount> [reason]")
		os.Exit(1)
	}

	userID, err := uuid.Parse(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: invalid user ID: %v\n", err)
		os.Exit(1)
	}
	amount, err := strconv.ParseFloat(os.Args[2], 64)
	if err != nil || amount <= 0 {
		fmt.Fprintln(os.Stderr, "ERROR: amount must be a positive number")
		os.Exit(1)
	}
	reason := "manual_grant"
	if len(os.Args) > 3 {
		reason = os.Args[3]
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "ERROR: DATABASE_URL environment variable not set")
		os.Exit(1)
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.RefundCredits(ctx, userID, amount, reason); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to grant credits: %v\n", err)
		os.Exit(1)
	}

	user, err := database.GetUser(ctx, userID)
	if err != nil || user == nil {
		fmt.Printf("Granted %.2f credits to %s (%s)\n", amount, userID, reason)
		return
	}
	fmt.Printf("Granted %.2f credits to %s (%s), balance now %.2f\n", amount, user.Email, reason, user.Credits)
}
