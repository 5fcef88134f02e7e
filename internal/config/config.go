// Package config loads Kestrel configuration from files and environment.
//
// Precedence: environment variables (KESTREL_ prefix) over the optional YAML
// file over tier defaults. The tier is resolved first because it selects the
// default backend stack (SQLite/channels/memory vs Postgres/NATS/Redis).
package config

import (
	"fmt"
	"strings"

	"github.com/openlend/kestrel/internal/domain"
	"github.com/spf13/viper"
)

// Load reads configuration from the optional YAML file at path and from
// KESTREL_ environment variables.
func Load(path string) (*domain.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KESTREL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("tier", string(domain.TierCommunity))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	tier := domain.Tier(strings.ToLower(v.GetString("tier")))
	var base *domain.Config
	switch tier {
	case domain.TierPro:
		base = domain.ProConfig()
	case domain.TierCommunity:
		base = domain.DefaultConfig()
	default:
		return nil, fmt.Errorf("unknown tier: %s", tier)
	}

	setDefaults(v, base)

	cfg := &domain.Config{
		Tier: tier,
		Server: domain.ServerConfig{
			Host:         v.GetString("server.host"),
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetInt("server.read_timeout"),
			WriteTimeout: v.GetInt("server.write_timeout"),
		},
		Repository: domain.RepositoryConfig{
			Driver:           v.GetString("repository.driver"),
			SQLitePath:       v.GetString("repository.sqlite_path"),
			PostgresHost:     v.GetString("repository.postgres_host"),
			PostgresPort:     v.GetInt("repository.postgres_port"),
			PostgresUser:     v.GetString("repository.postgres_user"),
			PostgresPassword: v.GetString("repository.postgres_password"),
			PostgresDB:       v.GetString("repository.postgres_db"),
			PostgresSSLMode:  v.GetString("repository.postgres_sslmode"),
		},
		Cache: domain.CacheConfig{
			Type:           v.GetString("cache.type"),
			LocalMaxSize:   v.GetInt("cache.local_max_size"),
			LocalTTL:       v.GetDuration("cache.local_ttl"),
			RedisAddr:      v.GetString("cache.redis_addr"),
			RedisPassword:  v.GetString("cache.redis_password"),
			RedisDB:        v.GetInt("cache.redis_db"),
			EnableTwoPhase: v.GetBool("cache.two_phase"),
		},
		EventBus: domain.EventBusConfig{
			Type:              v.GetString("bus.type"),
			ChannelBufferSize: v.GetInt("bus.buffer_size"),
			NATSUrl:           v.GetString("bus.nats_url"),
			NATSToken:         v.GetString("bus.nats_token"),
			NATSMaxReconnects: v.GetInt("bus.nats_max_reconnects"),
			NATSReconnectWait: v.GetInt("bus.nats_reconnect_wait"),
		},
		Notifier: domain.NotifierConfig{
			Type:         v.GetString("notifier.type"),
			SMTPHost:     v.GetString("notifier.smtp_host"),
			SMTPPort:     v.GetInt("notifier.smtp_port"),
			SMTPUsername: v.GetString("notifier.smtp_username"),
			SMTPPassword: v.GetString("notifier.smtp_password"),
			FromEmail:    v.GetString("notifier.from_email"),
			FromName:     v.GetString("notifier.from_name"),
		},
		VelocityWindowSecs: v.GetInt("velocity_window_secs"),
		Logging: domain.LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Tracing: domain.TracingConfig{
			Enabled:      v.GetBool("tracing.enabled"),
			ServiceName:  v.GetString("tracing.service_name"),
			ExporterType: v.GetString("tracing.exporter"),
			Endpoint:     v.GetString("tracing.endpoint"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, base *domain.Config) {
	v.SetDefault("server.host", base.Server.Host)
	v.SetDefault("server.port", base.Server.Port)
	v.SetDefault("server.read_timeout", base.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", base.Server.WriteTimeout)

	v.SetDefault("repository.driver", base.Repository.Driver)
	v.SetDefault("repository.sqlite_path", base.Repository.SQLitePath)
	v.SetDefault("repository.postgres_host", base.Repository.PostgresHost)
	v.SetDefault("repository.postgres_port", base.Repository.PostgresPort)
	v.SetDefault("repository.postgres_user", base.Repository.PostgresUser)
	v.SetDefault("repository.postgres_password", base.Repository.PostgresPassword)
	v.SetDefault("repository.postgres_db", base.Repository.PostgresDB)
	v.SetDefault("repository.postgres_sslmode", base.Repository.PostgresSSLMode)

	v.SetDefault("cache.type", base.Cache.Type)
	v.SetDefault("cache.local_max_size", base.Cache.LocalMaxSize)
	v.SetDefault("cache.local_ttl", base.Cache.LocalTTL)
	v.SetDefault("cache.redis_addr", base.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", base.Cache.RedisPassword)
	v.SetDefault("cache.redis_db", base.Cache.RedisDB)
	v.SetDefault("cache.two_phase", base.Cache.EnableTwoPhase)

	v.SetDefault("bus.type", base.EventBus.Type)
	v.SetDefault("bus.buffer_size", base.EventBus.ChannelBufferSize)
	v.SetDefault("bus.nats_url", base.EventBus.NATSUrl)
	v.SetDefault("bus.nats_token", base.EventBus.NATSToken)
	v.SetDefault("bus.nats_max_reconnects", base.EventBus.NATSMaxReconnects)
	v.SetDefault("bus.nats_reconnect_wait", base.EventBus.NATSReconnectWait)

	v.SetDefault("notifier.type", base.Notifier.Type)
	v.SetDefault("notifier.smtp_host", base.Notifier.SMTPHost)
	v.SetDefault("notifier.smtp_port", base.Notifier.SMTPPort)
	v.SetDefault("notifier.smtp_username", base.Notifier.SMTPUsername)
	v.SetDefault("notifier.smtp_password", base.Notifier.SMTPPassword)
	v.SetDefault("notifier.from_email", base.Notifier.FromEmail)
	v.SetDefault("notifier.from_name", base.Notifier.FromName)

	v.SetDefault("velocity_window_secs", base.VelocityWindowSecs)

	v.SetDefault("logging.level", base.Logging.Level)
	v.SetDefault("logging.format", base.Logging.Format)

	v.SetDefault("tracing.enabled", base.Tracing.Enabled)
	v.SetDefault("tracing.service_name", base.Tracing.ServiceName)
	v.SetDefault("tracing.exporter", base.Tracing.ExporterType)
	v.SetDefault("tracing.endpoint", base.Tracing.Endpoint)
}
