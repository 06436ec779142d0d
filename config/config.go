package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hivecraft/portal/globals"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultTypingTTL     = 30
	defaultSessionTTL    = 24 * time.Hour
	defaultMaxUploadSize = 50 << 20
)

// Config is the global configuration object which is filled via the
// configuration file.
type Config struct {
	ServerConfig      ServerConfig      `mapstructure:"server"`
	AuthConfig        AuthConfig        `mapstructure:"auth"`
	OIDCConfigs       []OIDCConfig      `mapstructure:"oidc"`
	PersistenceConfig PersistenceConfig `mapstructure:"persistence"`
	PresenceConfig    PresenceConfig    `mapstructure:"presence"`
	MailConfig        MailConfig        `mapstructure:"mail"`
	StorageConfig     StorageConfig     `mapstructure:"storage"`
	LogLevel          string            `mapstructure:"log_level"`
	AdminUser         string            `mapstructure:"admin_user"`
}

type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	FrontendOrigin string `mapstructure:"frontend_origin"`
	SSLCert        string `mapstructure:"ssl_cert"`
	SSLKey         string `mapstructure:"ssl_key"`
	MaxUploadSize  int64  `mapstructure:"max_upload_size"`
}

type AuthConfig struct {
	JWTSecret      string `mapstructure:"jwt_secret"`
	SessionTTLSecs int    `mapstructure:"session_ttl"`
}

func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLSecs <= 0 {
		return defaultSessionTTL
	}
	return time.Duration(a.SessionTTLSecs) * time.Second
}

// An OIDCConfig object configures an OpenID Connect provider that can be
// used to log in. Users provide an ID token and the name of the provider,
// the authentication is then performed via verification of the token.
type OIDCConfig struct {
	Name        string `mapstructure:"name"`
	ClientId    string `mapstructure:"client_id"`
	ProviderUrl string `mapstructure:"provider_url"`
}

// PersistenceConfig configures the persistence backend. Type is one of
// "postgres", "sqlite" (gorm) or "buntdb" (file storage).
type PersistenceConfig struct {
	Type string `mapstructure:"type"`
	DSN  string `mapstructure:"dsn"`
}

// PresenceConfig configures the typing indicator expiry. A client that
// disconnects mid-typing never sends stop-typing, so entries older than the
// TTL are reaped.
type PresenceConfig struct {
	TypingTTLSecs int `mapstructure:"typing_ttl"`
}

func (p PresenceConfig) TypingTTL() time.Duration {
	if p.TypingTTLSecs <= 0 {
		return defaultTypingTTL * time.Second
	}
	return time.Duration(p.TypingTTLSecs) * time.Second
}

type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type StorageConfig struct {
	Region   string `mapstructure:"region"`
	Bucket   string `mapstructure:"bucket"`
	Endpoint string `mapstructure:"endpoint"`
}

func (s ServerConfig) UploadLimit() int64 {
	if s.MaxUploadSize <= 0 {
		return defaultMaxUploadSize
	}
	return s.MaxUploadSize
}

func GetFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("configuration", pflag.ContinueOnError)
	flagSet.StringP("admin-user", "a", "", "id of the admin user")
	flagSet.String("log-level", "", "log level (TRACE, DEBUG, INFO, WARN, ERROR)")
	return flagSet
}

// wordSepNormalizeFunc allows for normalization of the flag names (which use - as a separator)
func wordSepNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	name = strings.Replace(name, "-", "_", -1)
	return pflag.NormalizedName(name)
}

// ReadConfiguration reads and parses the configuration located at configPath,
// which can either point to a single TOML file or to a directory, in which
// case all *.toml files in this directory are concatenated. It returns a
// Config object.
func ReadConfiguration(configPath string, flagSet *pflag.FlagSet) (*Config, error) {
	cfg := Config{}
	flagSet.SetNormalizeFunc(wordSepNormalizeFunc)
	viper.SetDefault("server.addr", "localhost:8000")
	viper.SetDefault("server.frontend_origin", "http://localhost:3000")
	err := viper.BindPFlags(flagSet)
	if err != nil {
		globals.AppLogger.Error("could not bind flags (ignored)", "error", err)
	}
	viper.SetEnvPrefix("PORTAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if configPath != "" {
		fi, err := os.Stat(configPath)
		if err != nil {
			return nil, err
		}
		contents := make([]byte, 0)
		files := []string{configPath}
		if fi.IsDir() {
			files, err = filepath.Glob(filepath.Join(configPath, "*.toml"))
			if err != nil {
				return nil, err
			}
		}
		for _, configFile := range files {
			fileContents, err := os.ReadFile(configFile)
			if err != nil {
				return nil, err
			}
			contents = append(contents, fileContents...)
			contents = append(contents, '\n')
		}
		viper.SetConfigType("toml")
		err = viper.ReadConfig(bytes.NewBuffer(contents))
		if err != nil {
			globals.AppLogger.Error("could not read config:", "error", err)
		}
	}
	err = viper.Unmarshal(&cfg)
	if err != nil {
		globals.AppLogger.Error("could not unmarshal config:", "error", err)
	}
	return &cfg, nil
}
