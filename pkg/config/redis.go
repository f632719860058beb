package config

import "fmt"

// RedisConfig configures the redis client used for ephemeral state.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address renders the host:port address.
func (c RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnvInt("REDIS_PORT", 6379),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}
