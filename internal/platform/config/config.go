// Package config loads the service configuration from config.yaml and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"account_backend/internal/platform/db"
	redisclient "account_backend/internal/platform/redis"
)

const (
	defaultPath       = "."
	defaultConfigName = "config"
	defaultHTTPPort   = 8080
)

// Config is the full service configuration.
type Config struct {
	Env struct {
		ServiceName string `koanf:"serviceName"`
		Debug       bool   `koanf:"debug"`
		Log         Log    `koanf:"log"`
	} `koanf:"env"`

	HTTP HTTP `koanf:"http"`

	Database db.Config `koanf:"database"`

	Redis redisclient.Config `koanf:"redis"`

	// Token lifetime is fixed at one hour (jwtmw.DefaultTTL) and is not configurable.
	JWT struct {
		// Secret has no default anywhere; it must come from the environment.
		Secret string `koanf:"secret" validate:"required"`
	} `koanf:"jwt"`

	Auth Auth `koanf:"auth"`
}

// Log configures the process logger.
type Log struct {
	Pretty bool   `koanf:"pretty"`
	Level  string `koanf:"level"`
}

// HTTP configures the listener.
type HTTP struct {
	Port     int `koanf:"port" validate:"gte=0,lte=65535"`
	Timeouts struct {
		ReadTimeout       time.Duration `koanf:"readTimeout"`
		ReadHeaderTimeout time.Duration `koanf:"readHeaderTimeout"`
		WriteTimeout      time.Duration `koanf:"writeTimeout"`
		IdleTimeout       time.Duration `koanf:"idleTimeout"`
		ShutdownTimeout   time.Duration `koanf:"shutdownTimeout"`
	} `koanf:"timeouts"`
	CORS struct {
		AllowOrigins []string `koanf:"allowOrigins"`
	} `koanf:"cors"`
}

// Auth holds the account policy knobs.
type Auth struct {
	BcryptCost      int  `koanf:"bcryptCost" validate:"gte=0,lte=31"`
	ProtectUserList bool `koanf:"protectUserList"`
	LoginAttempts   struct {
		Limit  int           `koanf:"limit" validate:"gte=0"`
		Window time.Duration `koanf:"window" validate:"gte=0"`
	} `koanf:"loginAttempts"`
}

// LoadWithEnv reads <name>.yaml from the first matching search path, overlays environment
// variables whose names match keys already present in the file, and decodes into T.
func LoadWithEnv[T any](name string, configPath ...string) (*T, error) {
	cfg := new(T)
	k := koanf.New(".")

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			if filepath.IsAbs(path) {
				searchPaths = append(searchPaths, path)
				continue
			}
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	var configFile string
	for _, path := range searchPaths {
		candidate := filepath.Join(path, name+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			break
		}
	}
	if configFile == "" {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", name)
	}

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", name)
	}

	existing := k.Raw()

	// JWT_SECRET -> jwt.secret, AUTH_BCRYPTCOST -> auth.bcryptCost.
	// Variables that do not land on a leaf of the YAML tree are ignored.
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			canonical, ok := canonicalizeEnvKey(key, existing)
			if !ok {
				return "", nil
			}
			return canonical, value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", name)
	}

	return cfg, nil
}

// New loads .env (when present), then config.yaml and the environment, applies defaults and validates.
func New(configPath ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	if len(configPath) == 0 {
		configPath = []string{"config", "../config", "../../config"}
	}
	cfg, err := LoadWithEnv[Config](defaultConfigName, configPath...)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = defaultHTTPPort
	}
	if c.Database.Driver == "" {
		c.Database.Driver = db.DriverPostgres
	}
}

// Validate checks struct constraints. A missing jwt.secret is reported explicitly.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.StructNamespace() == "Config.JWT.Secret" {
					return errors.New("jwt.secret is required (set JWT_SECRET)")
				}
			}
		}
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// canonicalizeEnvKey maps an environment variable name onto an existing key path.
// It reports false unless every segment matches and the path ends on a leaf value.
func canonicalizeEnvKey(rawKey string, existing map[string]any) (string, bool) {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for i, segment := range segments {
		if segment == "" {
			continue
		}

		matched, value, ok := findExistingSegment(current, segment)
		if !ok {
			return "", false
		}
		canonical = append(canonical, matched)

		child, isMap := value.(map[string]any)
		if i == len(segments)-1 {
			if isMap {
				return "", false
			}
			break
		}
		if !isMap {
			return "", false
		}
		current = child
	}

	if len(canonical) == 0 {
		return "", false
	}
	return strings.Join(canonical, "."), true
}

func findExistingSegment(current map[string]any, segment string) (matched string, value any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, v := range current {
		if normalizeToken(key) != needle {
			continue
		}
		return key, v, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
