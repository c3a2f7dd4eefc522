package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Database DatabaseConfig
	Gallery  GalleryConfig
	Oracle   OracleConfig
	Auth     AuthConfig
	Web      WebConfig
	Notify   NotifyConfig
	Sentry   SentryConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	URL          string // postgres://, mysql://, sqlite://, file: or mongodb:// URL
	Name         string // database name for MongoDB (default "crimai")
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type GalleryConfig struct {
	Dir        string   // directory holding the reference images
	Extensions []string // lower-case extensions recognised as candidate images
}

type OracleConfig struct {
	Kind             string // "deepface" or "goface"
	URL              string // DeepFace API base URL
	Model            string // DeepFace model name, e.g. VGG-Face
	Detector         string // DeepFace detector backend
	EnforceDetection bool
	Timeout          time.Duration // per comparison
	GoFaceModelsDir  string        // dlib model directory for the goface oracle
	GoFaceThreshold  float64       // max euclidean descriptor distance for a verified match
}

type AuthConfig struct {
	JWTSecret          string
	TokenTTL           time.Duration
	AllowRoleSignup    bool // honour "role" in signup requests
	LoginRatePerMinute int
}

type WebConfig struct {
	Port           int
	Host           string
	MaxProbeSize   int      // probes larger than this (width or height) are downscaled
	MaxScans       int      // concurrent recognition scans
	AllowedOrigins []string // CORS origins; empty allows any
}

type NotifyConfig struct {
	URLs         []string // shoutrrr service URLs
	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
}

// Enabled reports whether any detection notification sink is configured.
func (c *NotifyConfig) Enabled() bool {
	return len(c.URLs) > 0 || c.MQTTBroker != ""
}

type SentryConfig struct {
	DSN         string
	Environment string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

type defaultsFile struct {
	Oracle struct {
		Kind             string  `yaml:"kind"`
		URL              string  `yaml:"url"`
		Model            string  `yaml:"model"`
		Detector         string  `yaml:"detector"`
		EnforceDetection bool    `yaml:"enforce_detection"`
		Timeout          string  `yaml:"timeout"`
		GoFaceThreshold  float64 `yaml:"goface_threshold"`
	} `yaml:"oracle"`
	Gallery struct {
		Dir        string   `yaml:"dir"`
		Extensions []string `yaml:"extensions"`
	} `yaml:"gallery"`
	Auth struct {
		TokenTTL           string `yaml:"token_ttl"`
		LoginRatePerMinute int    `yaml:"login_rate_per_minute"`
	} `yaml:"auth"`
	Web struct {
		Port         int    `yaml:"port"`
		Host         string `yaml:"host"`
		MaxProbeSize int    `yaml:"max_probe_size"`
	} `yaml:"web"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return defaultVal
	}
	return b
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envList splits a comma-separated env var, dropping empty items.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic("invalid duration in embedded defaults.yaml: " + s)
	}
	return d
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

func Load() *Config {
	var d defaultsFile
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			Name:         envString("DATABASE_NAME", "crimai"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Gallery: GalleryConfig{
			Dir:        envString("FACES_DIR", d.Gallery.Dir),
			Extensions: normalizeExtensions(envList("GALLERY_EXTENSIONS", d.Gallery.Extensions)),
		},
		Oracle: OracleConfig{
			Kind:             envString("ORACLE_KIND", d.Oracle.Kind),
			URL:              envString("ORACLE_URL", d.Oracle.URL),
			Model:            envString("ORACLE_MODEL", d.Oracle.Model),
			Detector:         envString("ORACLE_DETECTOR", d.Oracle.Detector),
			EnforceDetection: envBool("ORACLE_ENFORCE_DETECTION", d.Oracle.EnforceDetection),
			Timeout:          envDuration("ORACLE_TIMEOUT", mustDuration(d.Oracle.Timeout)),
			GoFaceModelsDir:  envString("GOFACE_MODELS_DIR", "models"),
			GoFaceThreshold:  envFloat("GOFACE_THRESHOLD", d.Oracle.GoFaceThreshold),
		},
		Auth: AuthConfig{
			JWTSecret:          os.Getenv("JWT_SECRET"),
			TokenTTL:           envDuration("JWT_TTL", mustDuration(d.Auth.TokenTTL)),
			AllowRoleSignup:    envBool("ALLOW_ROLE_SIGNUP", false),
			LoginRatePerMinute: envInt("LOGIN_RATE_PER_MINUTE", d.Auth.LoginRatePerMinute),
		},
		Web: WebConfig{
			Port:           envInt("WEB_PORT", d.Web.Port),
			Host:           envString("WEB_HOST", d.Web.Host),
			MaxProbeSize:   envInt("MAX_PROBE_SIZE", d.Web.MaxProbeSize),
			MaxScans:       envInt("MAX_CONCURRENT_SCANS", 4),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS", nil),
		},
		Notify: NotifyConfig{
			URLs:         envList("NOTIFY_URLS", nil),
			MQTTBroker:   os.Getenv("MQTT_BROKER"),
			MQTTTopic:    envString("MQTT_TOPIC", "crimai/detections"),
			MQTTClientID: envString("MQTT_CLIENT_ID", "crimai"),
		},
		Sentry: SentryConfig{
			DSN:         os.Getenv("SENTRY_DSN"),
			Environment: envString("SENTRY_ENVIRONMENT", "production"),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "text"),
		},
	}
}
