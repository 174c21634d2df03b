package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port            string `envconfig:"PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL" required:"true"`
	KafkaBrokers    string `envconfig:"KAFKA_BROKERS" default:""`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	PaymentBaseURL  string `envconfig:"PAYMENT_BASE_URL" default:"https://api.iamport.kr"`
	PaymentGateway  string `envconfig:"PAYMENT_GATEWAY" default:"iamport"`
	PaymentAPIKey   string `envconfig:"PAYMENT_API_KEY" default:""`
	PaymentSecret   string `envconfig:"PAYMENT_API_SECRET" default:""`
	VerifyTimeoutMS int    `envconfig:"VERIFY_TIMEOUT_MS" default:"10000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// VerifyTimeout은 결제 검증 호출 전체(게이트웨이 재시도 포함)에 적용되는 상한이다.
func (c *Config) VerifyTimeout() time.Duration {
	return time.Duration(c.VerifyTimeoutMS) * time.Millisecond
}
