package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string                `json:"environment" mapstructure:"environment"`
	Connections map[string]Connection `json:"connections" mapstructure:"connections" validate:"required,min=1,dive"`
	Reset       Reset                 `json:"reset" mapstructure:"reset"`
	Migrations  Migrations            `json:"migrations" mapstructure:"migrations"`
	Storage     Storage               `json:"storage" mapstructure:"storage"`
	Backup      Backup                `json:"backup" mapstructure:"backup"`
	TestSetup   TestSetup             `json:"test_setup" mapstructure:"test_setup"`
}

type Connection struct {
	Driver string `json:"driver" mapstructure:"driver" validate:"required,oneof=mysql postgres postgresql sqlite sqlite3"`
	URL    string `json:"url,omitempty" mapstructure:"url"`
	URLEnv string `json:"url_env,omitempty" mapstructure:"url_env"`
}

// Reset names the two connections a development reset touches.
type Reset struct {
	Primary   string `json:"primary" mapstructure:"primary" validate:"required"`
	Secondary string `json:"secondary" mapstructure:"secondary" validate:"required"`
}

type Migrations struct {
	Path  string `json:"path" mapstructure:"path" validate:"required"`
	Table string `json:"table" mapstructure:"table" validate:"required"`
}

type Storage struct {
	Path string `json:"path" mapstructure:"path" validate:"required"`
}

type Backup struct {
	Connection string `json:"connection" mapstructure:"connection"`
	Name       string `json:"name" mapstructure:"name" validate:"required"`
	Prefix     string `json:"prefix" mapstructure:"prefix"`
	Bucket     string `json:"bucket,omitempty" mapstructure:"bucket"`
	Region     string `json:"region,omitempty" mapstructure:"region"`
}

type TestSetup struct {
	Database        string   `json:"database" mapstructure:"database" validate:"required"`
	Connection      string   `json:"connection" mapstructure:"connection" validate:"required"`
	AdminConnection string   `json:"admin_connection" mapstructure:"admin_connection"`
	AuthCommands    []string `json:"auth_commands,omitempty" mapstructure:"auth_commands"`
}

const (
	DefaultPrimary       = "mysql"
	DefaultSecondary     = "testing"
	DefaultTestDatabase  = "usermanagement-test"
	DefaultDumpName      = "database_dump"
	DefaultBackupPrefix  = "database-backups"
	DefaultMigrationsDir = "db/migrations"
)

// BindEnv maps the conventional environment variables onto config keys.
// It must run before Load.
func BindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("environment", "APP_ENV")
	_ = v.BindEnv("backup.bucket", "AWS_BUCKET")
	_ = v.BindEnv("backup.region", "AWS_DEFAULT_REGION")
}

// Load reads the global viper instance populated by the root command.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Connections) == 0 {
		cfg.Connections = map[string]Connection{
			DefaultPrimary:   {Driver: "mysql", URLEnv: "DATABASE_URL"},
			DefaultSecondary: {Driver: "mysql", URLEnv: "TEST_DATABASE_URL"},
		}
	}
	for name, conn := range cfg.Connections {
		if conn.Driver == "" {
			conn.Driver = driverFromURL(conn.URL)
		}
		if conn.URL == "" && conn.URLEnv == "" {
			conn.URLEnv = strings.ToUpper(name) + "_DATABASE_URL"
		}
		cfg.Connections[name] = conn
	}
	if cfg.Reset.Primary == "" {
		cfg.Reset.Primary = DefaultPrimary
	}
	if cfg.Reset.Secondary == "" {
		cfg.Reset.Secondary = DefaultSecondary
	}
	if cfg.Migrations.Path == "" {
		cfg.Migrations.Path = DefaultMigrationsDir
	}
	if cfg.Migrations.Table == "" {
		cfg.Migrations.Table = "migrations"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "storage/app"
	}
	if cfg.Backup.Connection == "" {
		cfg.Backup.Connection = cfg.Reset.Primary
	}
	if cfg.Backup.Name == "" {
		cfg.Backup.Name = DefaultDumpName
	}
	if cfg.Backup.Prefix == "" {
		cfg.Backup.Prefix = DefaultBackupPrefix
	}
	if cfg.TestSetup.Database == "" {
		cfg.TestSetup.Database = DefaultTestDatabase
	}
	if cfg.TestSetup.Connection == "" {
		cfg.TestSetup.Connection = cfg.Reset.Secondary
	}
	if cfg.TestSetup.AdminConnection == "" {
		cfg.TestSetup.AdminConnection = cfg.Reset.Primary
	}

	return &cfg, nil
}

func driverFromURL(url string) string {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"), strings.HasSuffix(url, ".db"), strings.HasSuffix(url, ".sqlite"):
		return "sqlite"
	default:
		return "mysql"
	}
}

// Connection returns the named connection settings.
func (c *Config) Connection(name string) (Connection, error) {
	conn, ok := c.Connections[name]
	if !ok {
		return Connection{}, fmt.Errorf("connection %q is not configured (available: %s)", name, strings.Join(c.ConnectionNames(), ", "))
	}
	return conn, nil
}

// GetDatabaseURL resolves the URL for a named connection. An inline url wins
// over url_env; inline values may reference environment variables.
func (c *Config) GetDatabaseURL(name string) (string, error) {
	conn, err := c.Connection(name)
	if err != nil {
		return "", err
	}
	if conn.URL != "" {
		return os.ExpandEnv(conn.URL), nil
	}
	dbURL := os.Getenv(conn.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL for connection %q not found in environment variable %s", name, conn.URLEnv)
	}
	return dbURL, nil
}

func (c *Config) ConnectionNames() []string {
	names := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.Path,
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for _, name := range []string{c.Reset.Primary, c.Reset.Secondary, c.Backup.Connection, c.TestSetup.Connection, c.TestSetup.AdminConnection} {
		if _, ok := c.Connections[name]; !ok {
			return fmt.Errorf("connection %q is referenced but not configured", name)
		}
	}

	return nil
}
