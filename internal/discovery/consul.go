package discovery

import (
	"fmt"
	"log/slog"
	"strconv"

	"product-catalog/internal/logger"

	"github.com/go-faster/errors"
	"github.com/hashicorp/consul/api"
)

type ConsulClient struct {
	client *api.Client
}

type ServiceConfig struct {
	Name    string
	ID      string
	Address string
	Port    int
	Tags    []string
	// HealthPath is polled over HTTP by the agent.
	HealthPath string
}

var log = logger.Instance()

// NewConsulClient connects to the agent at addr ("host:port") and verifies
// it answers.
func NewConsulClient(addr string) (*ConsulClient, error) {
	config := api.DefaultConfig()
	config.Address = addr

	client, err := api.NewClient(config)
	if err != nil {
		return nil, errors.Wrap(err, "create consul client")
	}
	if _, err := client.Agent().Self(); err != nil {
		return nil, errors.Wrap(err, "connect to consul")
	}

	log.Info("Connected to Consul", slog.String("addr", addr))
	return &ConsulClient{client: client}, nil
}

func (c *ConsulClient) Register(cfg ServiceConfig) error {
	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/healthz"
	}

	registration := &api.AgentServiceRegistration{
		ID:      cfg.ID,
		Name:    cfg.Name,
		Port:    cfg.Port,
		Address: cfg.Address,
		Tags:    cfg.Tags,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d%s", cfg.Address, cfg.Port, healthPath),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}
	if err := c.client.Agent().ServiceRegister(registration); err != nil {
		return errors.Wrapf(err, "register service %s", cfg.ID)
	}

	log.Info("Registered service",
		slog.String("name", cfg.Name),
		slog.String("id", cfg.ID),
		slog.String("address", cfg.Address),
		slog.Int("port", cfg.Port),
	)
	return nil
}

func (c *ConsulClient) Deregister(serviceID string) error {
	if err := c.client.Agent().ServiceDeregister(serviceID); err != nil {
		return errors.Wrapf(err, "deregister service %s", serviceID)
	}
	log.Info("Deregistered service", slog.String("id", serviceID))
	return nil
}

// ServiceURL resolves the first passing instance of name to an http base URL.
func (c *ConsulClient) ServiceURL(name string) (string, error) {
	entries, _, err := c.client.Health().Service(name, "", true, nil)
	if err != nil {
		return "", errors.Wrapf(err, "lookup service %s", name)
	}
	if len(entries) == 0 {
		return "", errors.Errorf("no healthy instances of %s", name)
	}

	svc := entries[0].Service
	address := svc.Address
	if address == "" {
		address = entries[0].Node.Address
	}
	return "http://" + address + ":" + strconv.Itoa(svc.Port), nil
}
