package commands

import (
	"github.com/NaeuralEdgeProtocol/oraclesync/src/config"
	"github.com/spf13/cobra"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for oraclesync
var RootCmd = &cobra.Command{
	Use:              "oraclesync",
	Short:            "Oracle Sync availability consensus",
	TraverseChildren: true,
}
