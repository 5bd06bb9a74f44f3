package node

import (
	"testing"
	"time"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/sirupsen/logrus"
)

// Config ...
type Config struct {
	TickInterval  time.Duration `mapstructure:"tick"`
	StatsInterval time.Duration `mapstructure:"stats"`
	Moniker       string        `mapstructure:"moniker"`
	Logger        *logrus.Logger
}

// NewConfig ...
func NewConfig(tick time.Duration,
	stats time.Duration,
	moniker string,
	logger *logrus.Logger) *Config {

	return &Config{
		TickInterval:  tick,
		StatsInterval: stats,
		Moniker:       moniker,
		Logger:        logger,
	}
}

// DefaultConfig ...
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		TickInterval:  time.Second,
		StatsInterval: time.Minute,
		Logger:        logger,
	}
}

// TestConfig ...
func TestConfig(t *testing.T) *Config {
	config := DefaultConfig()
	config.TickInterval = time.Millisecond
	config.Logger = common.NewTestLogger(t, common.TestLogLevel)
	return config
}
