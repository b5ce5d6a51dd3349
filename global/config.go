package global

import (
	"os"
	"strconv"
	"strings"
	"time"

	"GateLink/tools/ids"
)

// Load reads the node configuration from the environment, filling defaults
// suitable for local development.
func Load() *AppConfig {
	cfg := &AppConfig{
		NodeID:   env("GL_NODE_ID", "gw-"+ids.GenerateString()),
		SnowNode: int64(envInt("GL_SNOW_NODE", 1)),
		Port:     envInt("GL_PORT", 3001),

		JWTSecret:      env("GL_JWT_SECRET", "dev-secret-change-me"),
		AllowedOrigins: envList("GL_CORS_ORIGIN"),

		RedisAddr:     env("GL_REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: env("GL_REDIS_PASSWORD", ""),
		RedisDB:       envInt("GL_REDIS_DB", 0),

		MongoURI:      env("GL_MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: env("GL_MONGO_DB", "gatelink"),

		BackplaneKind: strings.ToLower(env("GL_BACKPLANE", "redis")),
		NatsServers:   envList("GL_NATS_SERVERS"),

		KafkaBrokers: envList("GL_KAFKA_BROKERS"),
		ArchiveTopic: env("GL_ARCHIVE_TOPIC", "gl.messages"),

		RequireSiteMembership: envBool("GL_REQUIRE_SITE_MEMBERSHIP", true),

		PresenceTTL:   time.Duration(envInt("GL_PRESENCE_TTL_SEC", 120)) * time.Second,
		SendQueueSize: envInt("GL_SEND_QUEUE", 256),
	}
	return cfg
}

// ConfigIds must run before any id is generated.
func ConfigIds(cfg *AppConfig) {
	ids.SetNodeID(cfg.SnowNode)
}

func (c *AppConfig) JwtSecret() []byte { return []byte(c.JWTSecret) }

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
