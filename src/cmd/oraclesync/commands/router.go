package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/config"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/net/wamp"
	"github.com/spf13/cobra"
)

var (
	routerAddr     string
	routerRealm    string
	routerCertFile string
	routerKeyFile  string
)

//NewRouterCmd returns the command that runs a WAMP router relaying the
//messages of a group of oracles.
func NewRouterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "router",
		Short: "Run a WAMP router for oracles",
		RunE:  runRouter,
	}

	cmd.Flags().StringVar(&routerAddr, "listen", config.DefaultRouterAddr, "Listen IP:Port of the router")
	cmd.Flags().StringVar(&routerRealm, "realm", config.DefaultRealm, "WAMP realm")
	cmd.Flags().StringVar(&routerCertFile, "cert", "", "Optional TLS certificate file")
	cmd.Flags().StringVar(&routerKeyFile, "key", "", "Optional TLS key file")

	return cmd
}

// runRouter starts the WAMP server and waits for a SIGINT or SIGTERM
func runRouter(cmd *cobra.Command, args []string) error {
	logger := _config.Logger().WithField("prefix", "router")

	server, err := wamp.NewServer(routerAddr, routerRealm, routerCertFile, routerKeyFile, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	//Prepare sigCh to relay SIGINT and SIGTERM system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		return err
	}

	server.Shutdown()

	return nil
}
