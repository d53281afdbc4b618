// Command issuetoken mints an API access token with the configured JWT secret.
// Accounts live in the loyalty application; this is how it (or an operator) obtains
// credentials for a user.
// Usage: go run ./cmd/issuetoken -user 7f1c...-role admin
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"fidelis/internal/config"
	"fidelis/internal/domain"
	"fidelis/internal/service"
)

func main() {
	user := flag.String("user", "", "user ID (UUID); a new one is generated when empty")
	role := flag.String("role", string(domain.RoleCustomer), "role: admin or customer")
	flag.Parse()

	if err := run(*user, domain.UserRole(*role)); err != nil {
		log.Fatal(err)
	}
}

func run(user string, role domain.UserRole) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	userID := uuid.New()
	if user != "" {
		if userID, err = uuid.Parse(user); err != nil {
			return fmt.Errorf("invalid -user: %w", err)
		}
	}

	token, err := service.NewAuthService(cfg.JWT).GenerateAccessToken(userID, role)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		UserID uuid.UUID       `json:"user_id"`
		Role   domain.UserRole `json:"role"`
		*service.AccessToken
	}{userID, role, token})
}
