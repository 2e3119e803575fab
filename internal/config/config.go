package config

import (
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Store     *storeConfig
	Annotator *annotatorConfig
	Service   *svcConfig
}

type storeConfig struct {
	Endpoint  string `envconfig:"S3_ENDPOINT" default:"localhost:9000"`
	AccessKey string `envconfig:"S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"S3_SECRET_KEY" default:""`
	UseSSL    bool   `envconfig:"S3_USE_SSL" default:"false"`
}

type annotatorConfig struct {
	URL string `envconfig:"ANNOTATOR_URL" default:"http://localhost:8800"`
}

type svcConfig struct {
	Address        string `envconfig:"BATCH_ANNOTATOR_ADDRESS" default:":8080"`
	MetricsAddress string `envconfig:"BATCH_ANNOTATOR_METRICS_ADDRESS" default:":8081"`
	LogLevel       string `envconfig:"BATCH_ANNOTATOR_LOG_LEVEL" default:"info"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}
