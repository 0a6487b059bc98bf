package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/aokumo/nightwarden/game/ai"
	"github.com/aokumo/nightwarden/game/world"
)

type Config struct {
	Server   ServerConfig     `mapstructure:"server"`
	Levels   LevelsConfig     `mapstructure:"levels"`
	Database DatabaseConfig   `mapstructure:"database"`
	Cache    CacheConfig      `mapstructure:"cache"`
	Game     world.RoomConfig `mapstructure:"game"`
	Warden   ai.Config        `mapstructure:"warden"`
	Security SecurityConfig   `mapstructure:"security"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
}

type LevelsConfig struct {
	DataPath string `mapstructure:"data_path"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	// AllowedOrigins lists the WebSocket/SSE origins that are permitted.
	// An empty slice allows all origins (useful for local development only).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("levels.data_path", "./data/levels")
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/nightwarden.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)

	room := world.DefaultRoomConfig()
	v.SetDefault("game.player_speed", room.PlayerSpeed)
	v.SetDefault("game.contact_radius", room.ContactRadius)

	w := ai.DefaultConfig()
	v.SetDefault("warden.vision_range", w.VisionRange)
	v.SetDefault("warden.vision_angle_deg", w.VisionAngleDeg)
	v.SetDefault("warden.detection_range", w.DetectionRange)
	v.SetDefault("warden.eye_height", w.EyeHeight)
	v.SetDefault("warden.head_height", w.HeadHeight)
	v.SetDefault("warden.patrol_speed", w.PatrolSpeed)
	v.SetDefault("warden.chase_speed", w.ChaseSpeed)
	v.SetDefault("warden.reach_radius", w.ReachRadius)
	v.SetDefault("warden.random_patrol", w.RandomPatrol)
	v.SetDefault("warden.door_wait", w.DoorWait)
	v.SetDefault("warden.lose_player_time", w.LosePlayerTime)
	v.SetDefault("warden.search_near_radius", w.SearchNearRadius)
	v.SetDefault("warden.search_wander_radius", w.SearchWanderRadius)
	v.SetDefault("warden.kill_interval", w.KillInterval)
	v.SetDefault("warden.kill_radius", w.KillRadius)
	v.SetDefault("warden.kill_angle_deg", w.KillAngleDeg)
	v.SetDefault("warden.pre_reveal_delay", w.PreRevealDelay)
	v.SetDefault("warden.reveal_duration", w.RevealDuration)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
