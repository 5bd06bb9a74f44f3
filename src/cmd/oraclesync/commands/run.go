package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/oraclesync"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts an oracle
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run oracle",
		PreRunE: loadConfig,
		RunE:    runOracle,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runOracle(cmd *cobra.Command, args []string) error {
	engine := oraclesync.NewOracleSync(_config)

	if err := engine.Init(); err != nil {
		_config.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	//Prepare sigCh to relay SIGINT and SIGTERM system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		_config.Logger().Info("Shutting down")
		cancel()
	}()

	return engine.Run(ctx)
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Optional file receiving a copy of the logs")
	cmd.Flags().String("moniker", _config.Moniker, "Optional name")

	// Transport
	cmd.Flags().String("router-url", _config.RouterURL, "Websocket URL of the WAMP router")
	cmd.Flags().String("realm", _config.Realm, "WAMP realm")
	cmd.Flags().String("topic", _config.Topic, "WAMP topic carrying oracle messages")
	cmd.Flags().Bool("router-skip-verify", _config.RouterSkipVerify, "Accept any certificate presented by the router")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.NoService, "Disable HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.DatabaseDir, "Dabatabase directory")

	// Epochs
	cmd.Flags().String("genesis", _config.Genesis, "Start of epoch 1 (RFC3339)")
	cmd.Flags().Duration("epoch-length", _config.EpochLength, "Length of an epoch")

	// Protocol
	cmd.Flags().Duration("tick", _config.TickInterval, "Time between two steps of the state machine")
	cmd.Flags().Duration("stats", _config.StatsInterval, "Time between two stats log lines (0 disables)")
	cmd.Flags().Duration("send-period", _config.SendPeriod, "Time spent in each sending stage")
	cmd.Flags().Duration("send-interval", _config.SendInterval, "Minimum time between two broadcasts of the same payload")
	cmd.Flags().Int("request-timeout-factor", _config.RequestTimeoutFactor, "Catch-up timeout, in send periods")
	cmd.Flags().Int("max-request-epochs", _config.MaxRequestEpochs, "Max number of epochs in a catch-up message")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	logFields := logrus.Fields{
		"DataDir":              _config.DataDir,
		"LogLevel":             _config.LogLevel,
		"Moniker":              _config.Moniker,
		"RouterURL":            _config.RouterURL,
		"Realm":                _config.Realm,
		"Topic":                _config.Topic,
		"ServiceAddr":          _config.ServiceAddr,
		"NoService":            _config.NoService,
		"Store":                _config.Store,
		"Genesis":              _config.Genesis,
		"EpochLength":          _config.EpochLength,
		"TickInterval":         _config.TickInterval,
		"SendPeriod":           _config.SendPeriod,
		"SendInterval":         _config.SendInterval,
		"RequestTimeoutFactor": _config.RequestTimeoutFactor,
		"MaxRequestEpochs":     _config.MaxRequestEpochs,
	}

	if _config.Store {
		logFields["DatabaseDir"] = _config.DatabaseDir
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/oraclesync.toml (.json, .yaml also work)
	viper.SetConfigName("oraclesync")   // name of config file (without extension)
	viper.AddConfigPath(_config.DataDir) // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}
