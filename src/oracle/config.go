package oracle

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the timing parameters of the protocol.
type Config struct {
	// SendPeriod is how long an oracle stays in a sending state.
	SendPeriod time.Duration
	// SendInterval is the minimum delay between two broadcasts of the same
	// payload.
	SendInterval time.Duration
	// RequestTimeoutFactor multiplies SendPeriod to obtain the time spent
	// collecting catch-up answers.
	RequestTimeoutFactor int
	// MaxRequestEpochs caps the number of epochs sent in one catch-up answer.
	MaxRequestEpochs int

	// Now is the wall clock. Tests replace it.
	Now func() time.Time

	Logger *logrus.Entry
}

// DefaultConfig ...
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.InfoLevel

	return &Config{
		SendPeriod:           time.Minute,
		SendInterval:         10 * time.Second,
		RequestTimeoutFactor: 10,
		MaxRequestEpochs:     100,
		Now:                  time.Now,
		Logger:               logrus.NewEntry(logger),
	}
}

// RequestTimeout ...
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutFactor) * c.SendPeriod
}
