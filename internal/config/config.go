package config

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"
)

// DefaultProgramID is the program id pools are created under when none is configured.
const DefaultProgramID = "Gnr2rm2snYcHq8DXm6zVswDVnE8PjTFCnyQBnJSyd2X2"

// Config holds all configuration for the application
type Config struct {
	Program  ProgramConfig  `mapstructure:"program"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Solana   SolanaConfig   `mapstructure:"solana"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	API      APIConfig      `mapstructure:"api"`
}

// ProgramConfig identifies the pool program
type ProgramConfig struct {
	ID string `mapstructure:"id"`
}

// LedgerConfig holds local ledger configuration
type LedgerConfig struct {
	StateFile string `mapstructure:"state_file"`
}

// SolanaConfig holds Solana-specific configuration
type SolanaConfig struct {
	RPC     string `mapstructure:"rpc"`
	Network string `mapstructure:"network"`
	Timeout int    `mapstructure:"timeout"` // in seconds
	// Commitment is processed, confirmed or finalized.
	Commitment string `mapstructure:"commitment"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// DatabaseConfig selects and configures the journal backend
type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Type     string         `mapstructure:"type"` // memory, postgres, mongodb or mysql
	Postgres PostgresConfig `mapstructure:"postgres"`
	MongoDB  MongoDBConfig  `mapstructure:"mongodb"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // in seconds
}

// MongoDBConfig holds MongoDB connection settings
type MongoDBConfig struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	MaxPoolSize    uint64 `mapstructure:"max_pool_size"`
	MinPoolSize    uint64 `mapstructure:"min_pool_size"`
	ConnectTimeout int    `mapstructure:"connect_timeout"` // in seconds
}

// MySQLConfig holds MySQL connection settings
type MySQLConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // in seconds
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// APIConfig holds HTTP API configuration
type APIConfig struct {
	Listen string `mapstructure:"listen"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Program: ProgramConfig{
			ID: DefaultProgramID,
		},
		Ledger: LedgerConfig{
			StateFile: "./swappool-state.yaml",
		},
		Solana: SolanaConfig{
			RPC:        "https://api.devnet.solana.com",
			Network:    "devnet",
			Timeout:    30,
			Commitment: string(rpc.CommitmentFinalized),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Database: DatabaseConfig{
			Enabled: false,
			Type:    "memory",
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				User:            "swappool",
				Database:        "swappool",
				SSLMode:         "disable",
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 300,
			},
			MongoDB: MongoDBConfig{
				URI:            "mongodb://localhost:27017",
				Database:       "swappool",
				MaxPoolSize:    10,
				MinPoolSize:    1,
				ConnectTimeout: 10,
			},
			MySQL: MySQLConfig{
				Host:            "localhost",
				Port:            3306,
				User:            "swappool",
				Database:        "swappool",
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 300,
			},
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "swappool",
		},
		API: APIConfig{
			Listen: ":8080",
		},
	}
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".swappool")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	// Environment variables
	v.SetEnvPrefix("SWAPPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnv registers the keys AutomaticEnv should resolve during Unmarshal.
// viper only consults the environment for keys it already knows about.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"program.id",
		"ledger.state_file",
		"solana.rpc", "solana.network", "solana.timeout", "solana.commitment",
		"log.level", "log.format",
		"database.enabled", "database.type",
		"database.postgres.host", "database.postgres.port", "database.postgres.user",
		"database.postgres.password", "database.postgres.database", "database.postgres.ssl_mode",
		"database.mongodb.uri", "database.mongodb.database",
		"database.mysql.host", "database.mysql.port", "database.mysql.user",
		"database.mysql.password", "database.mysql.database",
		"metrics.enabled", "metrics.namespace",
		"api.listen",
	} {
		_ = v.BindEnv(key)
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := c.ProgramID(); err != nil {
		return err
	}
	switch c.Database.Type {
	case "memory", "postgres", "mongodb", "mysql":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Log.Format)
	}
	switch rpc.CommitmentType(c.Solana.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return fmt.Errorf("unsupported commitment: %s", c.Solana.Commitment)
	}
	return nil
}

// ProgramID parses the configured program id.
func (c *Config) ProgramID() (solana.PublicKey, error) {
	id, err := solana.PublicKeyFromBase58(c.Program.ID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid program id %q: %w", c.Program.ID, err)
	}
	return id, nil
}

// GetRPCEndpoint returns the RPC endpoint for the configured network
func (c *SolanaConfig) GetRPCEndpoint() string {
	if c.RPC != "" {
		return c.RPC
	}

	switch c.Network {
	case "mainnet", "mainnet-beta":
		return rpc.MainNetBeta_RPC
	case "testnet":
		return rpc.TestNet_RPC
	case "localnet", "localhost":
		return rpc.LocalNet_RPC
	default:
		return rpc.DevNet_RPC
	}
}
