package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	// AppDirectoryName is the per-user application data directory name.
	AppDirectoryName = "tgmonitor"
	// DataDirEnv overrides the data directory.
	DataDirEnv = "TGMONITOR_DATA_DIR"
	// SessionFileName holds the chat client session under the data dir.
	SessionFileName = "user.session"
	dotEnvFileName  = ".env"
)

// ErrMissingCredentials is returned when the chat API credentials are absent.
var ErrMissingCredentials = errors.New("TELEGRAM_API_ID and TELEGRAM_API_HASH must be set; copy .env.example to .env and fill in your API credentials")

// Config is the daemon configuration decoded from the environment.
type Config struct {
	APIID             int           `env:"TELEGRAM_API_ID"`
	APIHash           string        `env:"TELEGRAM_API_HASH"`
	MessagesTTLDays   int           `env:"MESSAGES_TTL_DAYS,default=14"`
	NotifyOutgoing    bool          `env:"NOTIFY_ONGOING_MESSAGES,default=true"`
	LogLevel          string        `env:"LOGGING_LEVEL,default=INFO"`
	CleanInterval     time.Duration `env:"CLEAN_INTERVAL,default=60s"`
	DataDir           string        `env:"TGMONITOR_DATA_DIR"`
	SessionPassphrase string        `env:"SESSION_PASSPHRASE"`
}

// LoadOptions carries command line overrides.
type LoadOptions struct {
	DataDir string
	EnvFile string
}

// TTL returns the retention window.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.MessagesTTLDays) * 24 * time.Hour
}

// SessionPath returns the session file location.
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, SessionFileName)
}

// Validate checks required values and ranges.
func (c *Config) Validate() error {
	if c.APIID == 0 || c.APIHash == "" {
		return ErrMissingCredentials
	}
	if c.MessagesTTLDays <= 0 {
		return fmt.Errorf("MESSAGES_TTL_DAYS must be > 0, got %d", c.MessagesTTLDays)
	}
	if c.CleanInterval <= 0 {
		return fmt.Errorf("CLEAN_INTERVAL must be > 0, got %s", c.CleanInterval)
	}
	return nil
}

// ResolveDataDir returns the OS-aware app data directory.
//
// If TGMONITOR_DATA_DIR is set, its value is used as an explicit override.
func ResolveDataDir() (string, error) {
	if override := os.Getenv(DataDirEnv); override != "" {
		return override, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(base, AppDirectoryName), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", AppDirectoryName), nil
	default:
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			base = filepath.Join(home, ".config")
		}
		return filepath.Join(base, AppDirectoryName), nil
	}
}

// EnsureDataDirectories creates the app data directory if needed.
func EnsureDataDirectories(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("create directory %q: %w", dataDir, err)
	}
	return nil
}

// Load reads .env files, decodes the environment and prepares the data
// directory. Variables already present in the environment take precedence
// over .env files. Validation is left to the caller.
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file %q: %w", opts.EnvFile, err)
		}
	}
	if err := loadOptionalDotEnv(dotEnvFileName); err != nil {
		return nil, err
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		resolved, err := ResolveDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = resolved
	}
	if err := loadOptionalDotEnv(filepath.Join(dataDir, dotEnvFileName)); err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	cfg.DataDir = dataDir

	if err := EnsureDataDirectories(cfg.DataDir); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadOptionalDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file %q: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}
