package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"product-catalog/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Env             string
	LogLevel        string
	AppPort         string
	AppName         string
	GrpcPort        string
	MongoURI        string
	MongoDBName     string
	CloudinaryURL   string
	MediaFolder     string
	UploadDir       string
	MaxUploadBytes  int64
	CorsOrigins     []string
	RedisAddr       string
	RedisTTLSeconds int64
	AmqpURL         string
	ConsulAddr      string

	RemoteLogHttpURI       string
	RemoteTraceRpcURI      string
	RemoteProfilingHttpURI string
}

// MissingError lists every required variable that was unset.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Vars, ", "))
}

// LogValue renders the config without credentials or connection strings.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("env", c.Env),
		slog.String("log_level", c.LogLevel),
		slog.String("app_port", c.AppPort),
		slog.String("app_name", c.AppName),
		slog.String("grpc_port", c.GrpcPort),
		slog.String("mongo_db_name", c.MongoDBName),
		slog.String("media_folder", c.MediaFolder),
		slog.String("upload_dir", c.UploadDir),
		slog.Int64("max_upload_bytes", c.MaxUploadBytes),
		slog.String("cors_origins", strings.Join(c.CorsOrigins, ",")),
		slog.Bool("redis_enabled", c.RedisAddr != ""),
		slog.Int64("redis_ttl_seconds", c.RedisTTLSeconds),
		slog.Bool("amqp_enabled", c.AmqpURL != ""),
		slog.Bool("consul_enabled", c.ConsulAddr != ""),
		slog.Bool("remote_log_enabled", c.RemoteLogHttpURI != ""),
		slog.Bool("remote_trace_enabled", c.RemoteTraceRpcURI != ""),
		slog.Bool("remote_profiling_enabled", c.RemoteProfilingHttpURI != ""),
	)
}

// IsProduction enables graceful shutdown.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

var log = logger.Instance()

// getInt64 falls back on unset, unparsable or non-positive values.
func getInt64(varName string, fallback int64) int64 {
	raw := os.Getenv(varName)
	if raw == "" {
		return fallback
	}
	num, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || num <= 0 {
		log.Warn("Invalid integer env, using fallback",
			slog.String("var", varName),
			slog.String("value", raw),
			slog.Int64("fallback", fallback),
		)
		return fallback
	}
	return num
}

func getString(varName, fallback string) string {
	if v := os.Getenv(varName); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load reads .env (optional) and the process environment. It is called once
// at startup; the result is passed explicitly to every component.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}

	cfg := &Config{
		Env:                    getString("ENV", "development"),
		LogLevel:               getString("LOG_LEVEL", "info"),
		AppPort:                os.Getenv("APP_PORT"),
		AppName:                os.Getenv("APP_NAME"),
		GrpcPort:               os.Getenv("GRPC_PORT"),
		MongoURI:               os.Getenv("MONGO_URI"),
		MongoDBName:            os.Getenv("MONGO_DB_NAME"),
		CloudinaryURL:          os.Getenv("CLOUDINARY_URL"),
		MediaFolder:            getString("MEDIA_FOLDER", "products"),
		UploadDir:              getString("UPLOAD_DIR", os.TempDir()),
		MaxUploadBytes:         getInt64("MAX_UPLOAD_BYTES", 5<<20),
		CorsOrigins:            splitList(getString("CORS_ORIGINS", "*")),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisTTLSeconds:        getInt64("REDIS_TTL_SECONDS", 300),
		AmqpURL:                os.Getenv("AMQP_URL"),
		ConsulAddr:             os.Getenv("CONSUL_ADDR"),
		RemoteLogHttpURI:       os.Getenv("REMOTE_LOG_HTTP_URI"),
		RemoteTraceRpcURI:      os.Getenv("REMOTE_TRACE_RPC_URI"),
		RemoteProfilingHttpURI: os.Getenv("REMOTE_PROFILING_HTTP_URI"),
	}

	optional := []struct{ name, value, effect string }{
		{"REMOTE_LOG_HTTP_URI", cfg.RemoteLogHttpURI, "logs stay local"},
		{"REMOTE_TRACE_RPC_URI", cfg.RemoteTraceRpcURI, "traces go to stdout"},
		{"REMOTE_PROFILING_HTTP_URI", cfg.RemoteProfilingHttpURI, "profiling disabled"},
	}
	for _, o := range optional {
		if o.value == "" {
			log.Warn("Optional variable unset", slog.String("var", o.name), slog.String("effect", o.effect))
		}
	}

	required := []struct{ name, value string }{
		{"APP_PORT", cfg.AppPort},
		{"APP_NAME", cfg.AppName},
		{"MONGO_URI", cfg.MongoURI},
		{"MONGO_DB_NAME", cfg.MongoDBName},
		{"CLOUDINARY_URL", cfg.CloudinaryURL},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingError{Vars: missing}
	}

	return cfg, nil
}

// LogLoaded prints the safe view of cfg.
func LogLoaded(cfg *Config) {
	log.Info("Configuration loaded successfully", slog.Any("data", cfg))
}
