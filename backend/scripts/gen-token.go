// ABOUTME: Generates signed session tokens for local testing
// ABOUTME: Signs with TOKEN_SECRET so curl can call authenticated routes directly

package main

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/caffeinepub/crocheting-app/backend/cache"
	"github.com/caffeinepub/crocheting-app/backend/config"
	"github.com/caffeinepub/crocheting-app/backend/services"
	"github.com/caffeinepub/crocheting-app/internal/principal"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <principal|new> [valid|expired]\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	who := os.Args[1]
	if who == "new" {
		pub, _, err := ed25519.GenerateKey(nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
			os.Exit(1)
		}
		who = principal.FromPublicKey(pub)
	} else if err := principal.Validate(who); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ttl := cfg.TokenTTL
	if len(os.Args) > 2 {
		switch os.Args[2] {
		case "valid":
		case "expired":
			ttl = -time.Minute
		default:
			fmt.Fprintf(os.Stderr, "Unknown token type: %s\n", os.Args[2])
			os.Exit(1)
		}
	}

	c := cache.New(time.Minute)
	defer c.Close()
	token, session, err := services.NewSessionService(cfg.TokenSecret, ttl, c).Issue(who)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "principal=%s expires=%s\n", session.Principal, session.ExpiresAt.Format(time.RFC3339))
	fmt.Println(token)
}
