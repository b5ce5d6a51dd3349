package global

import "time"

// AppConfig holds everything the gateway node needs at boot. Values come
// from GL_* environment variables; see Load.
type AppConfig struct {
	NodeID   string // gateway node id, used for backplane origin tagging
	SnowNode int64  // snowflake node part
	Port     int    // http listen port

	JWTSecret      string
	AllowedOrigins []string // empty means allow all

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI      string
	MongoDatabase string

	BackplaneKind string // redis | nats | none
	NatsServers   []string

	KafkaBrokers []string // empty disables the archive producer
	ArchiveTopic string

	// Dispatcher-level check for equipment:update / hold:update: when true
	// the sender must already be joined to site:<siteId>.
	RequireSiteMembership bool

	PresenceTTL   time.Duration // redis presence mirror key lifetime
	SendQueueSize int           // per-connection outbound queue
}
