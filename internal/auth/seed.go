package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/oakward/identity/pkg/logger"
)

// ProviderSeed is one entry of the provider seed file.
type ProviderSeed struct {
	Name         string   `yaml:"name"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	AuthURL      string   `yaml:"auth_url"`
	TokenURL     string   `yaml:"token_url"`
	UserInfoURL  string   `yaml:"user_info_url"`
	Scopes       []string `yaml:"scopes"`
	Active       bool     `yaml:"active"`
}

type providerSeedFile struct {
	Providers []ProviderSeed `yaml:"providers"`
}

// SeedProviders upserts OAuth providers from a YAML file. Idempotent: rows
// are keyed by name, so repeated startups converge on the file's contents.
// A missing path is not an error; providers can be managed directly in the
// database instead.
func SeedProviders(ctx context.Context, storage OAuthStorage, path string, log *slog.Logger) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read provider seed file: %w", err)
	}

	var file providerSeedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse provider seed file: %w", err)
	}

	for _, seed := range file.Providers {
		if seed.Name == "" {
			return fmt.Errorf("provider seed entry missing name")
		}
		if err := storage.UpsertProvider(ctx, &Provider{
			ID:           uuid.New(),
			Name:         seed.Name,
			ClientID:     seed.ClientID,
			ClientSecret: seed.ClientSecret,
			AuthURL:      seed.AuthURL,
			TokenURL:     seed.TokenURL,
			UserInfoURL:  seed.UserInfoURL,
			Scopes:       seed.Scopes,
			IsActive:     seed.Active,
			CreatedAt:    time.Now(),
		}); err != nil {
			return fmt.Errorf("failed to seed provider %s: %w", seed.Name, err)
		}
		log.InfoContext(ctx, "seeded oauth provider",
			logger.Provider(seed.Name),
			logger.Component("oauth"),
		)
	}
	return nil
}
