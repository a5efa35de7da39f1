package cli

import (
	"errors"
	"fmt"
	"time"

	"bantay-bayan/internal/config"
	"bantay-bayan/internal/domain"
	redisstore "bantay-bayan/internal/infra/redis"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewTokenCmd issues a session token into the shared Redis session store.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		role   string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for a user or admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			client := newRedisClient(cfg)
			if client == nil {
				return errors.New("redis addr not configured; in-memory sessions cannot be issued from the CLI")
			}
			defer client.Close()

			identity := domain.CallerIdentity{UserID: userID, Role: domain.Role(role)}
			if !identity.CanPlay() {
				return fmt.Errorf("unknown role %q", role)
			}
			store := redisstore.NewSessionStore(client, config.TTLDuration(cfg.Auth.SessionTTL, 24*time.Hour))
			token, err := store.Create(cmd.Context(), identity)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id carried by the session")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleUser), "role: admin or user")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// newRedisClient returns nil when Redis is not configured.
func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
