package config

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/epoch"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/net"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/node"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/oracle"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultKeyfile is the default name of the file containing the oracle's
	// private key
	DefaultKeyfile = "priv_key"

	// DefaultPeersFile is the default name of the file listing the designated
	// oracles
	DefaultPeersFile = "peers.json"

	// DefaultBadgerFile is the default name of the folder containing the Badger
	// database
	DefaultBadgerFile = "badger_db"
)

// Default configuration values.
const (
	DefaultLogLevel             = "debug"
	DefaultTickInterval         = time.Second
	DefaultStatsInterval        = time.Minute
	DefaultSendPeriod           = time.Minute
	DefaultSendInterval         = 10 * time.Second
	DefaultRequestTimeoutFactor = 10
	DefaultMaxRequestEpochs     = 100
	DefaultEpochLength          = 24 * time.Hour
	DefaultStore                = false
	DefaultRouterURL            = "ws://127.0.0.1:8080/ws"
	DefaultRouterAddr           = "127.0.0.1:8080"
	DefaultRealm                = "oraclesync"
	DefaultTopic                = "oraclesync.messages"
	DefaultServiceAddr          = "127.0.0.1:8000"
	DefaultResponseTimeout      = 10 * time.Second
	DefaultInboxSize            = 10000
)

// DefaultGenesis is the start of epoch 1, in RFC3339 format.
const DefaultGenesis = "2024-01-01T00:00:00Z"

// Config contains all the configuration properties of an oracle.
type Config struct {
	// DataDir is the top-level directory containing the key, the peers file
	// and the database
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, receives a copy of the log output.
	LogFile string `mapstructure:"log-file"`

	// Moniker defines the friendly name of this oracle
	Moniker string `mapstructure:"moniker"`

	// TickInterval is the time between two steps of the state machine.
	TickInterval time.Duration `mapstructure:"tick"`

	// StatsInterval is the time between two stats log lines. Zero disables
	// them.
	StatsInterval time.Duration `mapstructure:"stats"`

	// SendPeriod is how long the oracle stays in each sending stage.
	SendPeriod time.Duration `mapstructure:"send-period"`

	// SendInterval is the minimum delay between two broadcasts of the same
	// payload.
	SendInterval time.Duration `mapstructure:"send-interval"`

	// RequestTimeoutFactor multiplies SendPeriod to obtain the time spent
	// collecting catch-up answers.
	RequestTimeoutFactor int `mapstructure:"request-timeout-factor"`

	// MaxRequestEpochs caps the number of epochs requested or answered in one
	// catch-up message.
	MaxRequestEpochs int `mapstructure:"max-request-epochs"`

	// EpochLength and Genesis define the epoch clock. Epoch 1 starts at
	// Genesis, an RFC3339 timestamp.
	EpochLength time.Duration `mapstructure:"epoch-length"`
	Genesis     string        `mapstructure:"genesis"`

	// Store activates persistent storage of the agreed tables.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// RouterURL is the websocket URL of the WAMP router carrying the oracle
	// messages.
	RouterURL string `mapstructure:"router-url"`

	// Realm and Topic select where oracle messages are published.
	Realm string `mapstructure:"realm"`
	Topic string `mapstructure:"topic"`

	// RouterSkipVerify controls whether the WAMP client verifies the router's
	// certificate. It should only be used for testing.
	RouterSkipVerify bool `mapstructure:"router-skip-verify"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the HTTP service.
	ServiceAddr string `mapstructure:"service-listen"`

	// Key is the private key of the oracle.
	Key *ecdsa.PrivateKey

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:              DefaultDataDir(),
		LogLevel:             DefaultLogLevel,
		TickInterval:         DefaultTickInterval,
		StatsInterval:        DefaultStatsInterval,
		SendPeriod:           DefaultSendPeriod,
		SendInterval:         DefaultSendInterval,
		RequestTimeoutFactor: DefaultRequestTimeoutFactor,
		MaxRequestEpochs:     DefaultMaxRequestEpochs,
		EpochLength:          DefaultEpochLength,
		Genesis:              DefaultGenesis,
		Store:                DefaultStore,
		DatabaseDir:          DefaultDatabaseDir(),
		RouterURL:            DefaultRouterURL,
		Realm:                DefaultRealm,
		Topic:                DefaultTopic,
		ServiceAddr:          DefaultServiceAddr,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not currently the default, it means the user has explicitely set
// it to something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// Keyfile returns the full path of the file containing the private key.
func (c *Config) Keyfile() string {
	return filepath.Join(c.DataDir, DefaultKeyfile)
}

// PeersFile returns the full path of the file listing the oracles.
func (c *Config) PeersFile() string {
	return filepath.Join(c.DataDir, DefaultPeersFile)
}

// OracleConfig extracts the protocol timings.
func (c *Config) OracleConfig() *oracle.Config {
	return &oracle.Config{
		SendPeriod:           c.SendPeriod,
		SendInterval:         c.SendInterval,
		RequestTimeoutFactor: c.RequestTimeoutFactor,
		MaxRequestEpochs:     c.MaxRequestEpochs,
		Now:                  time.Now,
		Logger:               c.Logger(),
	}
}

// NodeConfig extracts the configuration of the host loop.
func (c *Config) NodeConfig() *node.Config {
	conf := node.NewConfig(c.TickInterval, c.StatsInterval, c.Moniker, c.logrus())
	return conf
}

// WAMPConfig extracts the configuration of the WAMP transport.
func (c *Config) WAMPConfig() net.WAMPConfig {
	return net.WAMPConfig{
		RouterURL:          c.RouterURL,
		Realm:              c.Realm,
		Topic:              c.Topic,
		InsecureSkipVerify: c.RouterSkipVerify,
		ResponseTimeout:    DefaultResponseTimeout,
		InboxSize:          DefaultInboxSize,
	}
}

// EpochClock returns the clock deriving epochs from Genesis and EpochLength.
func (c *Config) EpochClock() (*epoch.GenesisClock, error) {
	genesis, err := time.Parse(time.RFC3339, c.Genesis)
	if err != nil {
		return nil, fmt.Errorf("parsing genesis: %v", err)
	}

	if c.EpochLength <= 0 {
		return nil, fmt.Errorf("epoch length must be positive")
	}

	return epoch.NewGenesisClock(genesis, c.EpochLength), nil
}

// Logger returns a formatted logrus Entry, with prefix set to "oracle".
func (c *Config) Logger() *logrus.Entry {
	return c.logrus().WithField("prefix", "oracle")
}

func (c *Config) logrus() *logrus.Logger {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			c.logger.Hooks.Add(lfshook.NewHook(
				c.LogFile,
				&logrus.TextFormatter{},
			))
		}
	}
	return c.logger
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level config
// based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".OracleSync")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "OracleSync")
		} else {
			return filepath.Join(home, ".oraclesync")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
