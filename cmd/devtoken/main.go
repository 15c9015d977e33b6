// Command devtoken prints a signed bearer token for local testing.
//
//	go run ./cmd/devtoken -sub device-123 -ttl 24h
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"waitlistlottery/config"
	"waitlistlottery/internal/adapters/auth"
)

func main() {
	sub := flag.String("sub", "", "token subject (device or organizer ID)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	token, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTIssuer).Issue(*sub, *ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
}
