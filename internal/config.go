package internal

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type RunEnv string

const (
	Development RunEnv = "development"
	Production  RunEnv = "production"
)

type Config struct {
	Env            RunEnv        `envconfig:"ENV" default:"development"`
	Endpoint       string        `envconfig:"SPARQL_ENDPOINT" default:"http://localhost:3030/ds/sparql"`
	UpdateEndpoint string        `envconfig:"SPARQL_UPDATE_ENDPOINT" default:""`
	Timeout        time.Duration `envconfig:"SPARQL_TIMEOUT" default:"30s"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
