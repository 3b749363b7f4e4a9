// Command admintoken mints a bearer token for the admin pages.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/alekspanteli/exchange-rate-hub/internal/auth"
	"github.com/alekspanteli/exchange-rate-hub/internal/config"
)

func main() {
	subject := pflag.StringP("subject", "s", "admin", "token subject (operator name)")
	ttl := pflag.Duration("ttl", 0, "token lifetime, defaults to admin.token_ttl_hours")
	readOnly := pflag.Bool("no-manage", false, "omit the manage_options capability")
	pflag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lifetime := time.Duration(cfg.Admin.TokenTTLHours) * time.Hour
	if *ttl > 0 {
		lifetime = *ttl
	}

	var caps []string
	if !*readOnly {
		caps = append(caps, auth.CapManageOptions)
	}

	a := auth.New(cfg.Admin.JWTSecret, lifetime, time.Duration(cfg.Admin.NonceTTLSec)*time.Second)
	token, err := a.IssueToken(*subject, caps...)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Fprintln(os.Stdout, token)
}
