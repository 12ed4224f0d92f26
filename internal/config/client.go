package config

import (
	"os"

	"github.com/joho/godotenv"
)

// ClientConfig drives cmd/http-client, a traffic generator that polls the
// catalog listing endpoints.
type ClientConfig struct {
	AppName           string
	LogLevel          string
	CatalogURL        string
	CatalogGrpc       string
	CatalogService    string
	ConsulAddr        string
	ClientDelayMs     int64
	RemoteLogHttpURI  string
	RemoteTraceRpcURI string
}

// LoadClient reads the client environment. Each client binary checks its
// own target with RequireHTTPTarget or RequireGrpcTarget.
func LoadClient() *ClientConfig {
	_ = godotenv.Load()

	cfg := &ClientConfig{
		AppName:           getString("APP_NAME", "catalog-client"),
		LogLevel:          getString("LOG_LEVEL", "info"),
		CatalogURL:        os.Getenv("CATALOG_URL"),
		CatalogGrpc:       os.Getenv("CATALOG_GRPC"),
		CatalogService:    getString("CATALOG_SERVICE", "product-catalog"),
		ConsulAddr:        os.Getenv("CONSUL_ADDR"),
		ClientDelayMs:     getInt64("CLIENT_DELAY_MS", 1000),
		RemoteLogHttpURI:  os.Getenv("REMOTE_LOG_HTTP_URI"),
		RemoteTraceRpcURI: os.Getenv("REMOTE_TRACE_RPC_URI"),
	}

	return cfg
}

func (c *ClientConfig) RequireHTTPTarget() error {
	if c.CatalogURL == "" && c.ConsulAddr == "" {
		return &MissingError{Vars: []string{"CATALOG_URL or CONSUL_ADDR"}}
	}
	return nil
}

func (c *ClientConfig) RequireGrpcTarget() error {
	if c.CatalogGrpc == "" {
		return &MissingError{Vars: []string{"CATALOG_GRPC"}}
	}
	return nil
}
