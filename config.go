package parley

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the server configuration persisted under the config directory.
// It is loaded and written through viper so manual edits to the yaml file and
// programmatic changes stay in sync.
type Config struct {
	viper        *viper.Viper
	ConfigDir    string `mapstructure:"config_dir"`     // Current config dir
	FirstRun     bool   `mapstructure:"first_run"`      // Whether this is the first start
	Address      string `mapstructure:"default_address"` // Address the server binds to
	Port         string `mapstructure:"default_port"`    // Port the server binds to
	DatabaseFile string `mapstructure:"database_file"`  // SQLite database file name
	JWTSecret    string `mapstructure:"jwt_secret"`     // HMAC secret for access tokens
	AccessTTL    int    `mapstructure:"access_ttl_minutes"`  // Access token lifetime in minutes
	RefreshTTL   int    `mapstructure:"refresh_ttl_hours"`   // Refresh token lifetime in hours
	RedisAddr    string `mapstructure:"redis_addr"`     // Redis host:port for presence and sessions
	RedisDB      int    `mapstructure:"redis_db"`
	RedisPass    string `mapstructure:"redis_password"`
	BlobEndpoint string `mapstructure:"blob_endpoint"` // MinIO endpoint for avatar storage
	BlobAccess   string `mapstructure:"blob_access_key"`
	BlobSecret   string `mapstructure:"blob_secret_key"`
	BlobBucket   string `mapstructure:"blob_bucket"`
	BlobBaseURL  string `mapstructure:"blob_base_url"` // Public base URL for stored avatars
	BlobSecure   bool   `mapstructure:"blob_secure"`
}

// Save writes the current configuration values back to the config file.
func (cfg *Config) Save() error {
	if cfg.viper == nil {
		return fmt.Errorf("config has no backing viper instance")
	}
	if err := cfg.viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	if err := cfg.viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	return nil
}

// newSecret generates a random hex string for use as the JWT signing secret
// on first run.
func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes : %w", err)
	}
	return hex.EncodeToString(buf), nil
}
