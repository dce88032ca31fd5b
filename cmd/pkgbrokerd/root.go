package main

import (
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-extras/cobraflags"
)

var (
	configFlag = cobraflags.StringFlag{
		Name:         "config",
		Usage:        "path to a pkgbrokerd YAML configuration file",
		DefaultValue: "",
	}
	logLevelFlag = cobraflags.StringFlag{
		Name:         "log-level",
		Usage:        "zap log level (debug, info, warn, error)",
		DefaultValue: "info",
	}
	logFormatFlag = cobraflags.StringFlag{
		Name:         "log-format",
		Usage:        "zap encoder (console or json)",
		DefaultValue: "console",
	}
	httpPortFlag = cobraflags.StringFlag{
		Name:         "http-port",
		Usage:        "bus HTTP listen port",
		DefaultValue: "8000",
	}
	serverModeFlag = cobraflags.StringFlag{
		Name:         "server-mode",
		Usage:        "dev (plain HTTP) or prod (self-signed HTTPS)",
		DefaultValue: "dev",
	}
	backendNameFlag = cobraflags.StringFlag{
		Name:         "backend-name",
		Usage:        "backend to load: memory, or a configured remote backend name",
		DefaultValue: "memory",
	}
	policyBundleFlag = cobraflags.StringFlag{
		Name:         "policy-bundle",
		Usage:        "directory of Rego policy files; empty disables authorization checks",
		DefaultValue: "",
	}
	txnDBPathFlag = cobraflags.StringFlag{
		Name:         "txn-db-path",
		Usage:        "path to the transaction database file",
		DefaultValue: "pkgbrokerd.db",
	}
	desktopCacheFlag = cobraflags.StringFlag{
		Name:         "desktop-cache-path",
		Usage:        "path to the read-only desktop-file lookup sqlite database",
		DefaultValue: "",
	}
)

// newRootCommand assembles the daemon's single cobra command: there is
// no subcommand tree, following the teacher's own single-process
// daemon shape (just a flag set and a run loop), unlike cmd/pkcon which
// has one subcommand per role.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pkgbrokerd",
		Short:         "package-management broker daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: cobrautil.SyncViperPreRunE("pkgbrokerd"),
		RunE:              runServe,
	}

	configFlag.Apply(cmd)
	logLevelFlag.Apply(cmd)
	logFormatFlag.Apply(cmd)
	httpPortFlag.Apply(cmd)
	serverModeFlag.Apply(cmd)
	backendNameFlag.Apply(cmd)
	policyBundleFlag.Apply(cmd)
	txnDBPathFlag.Apply(cmd)
	desktopCacheFlag.Apply(cmd)

	return cmd
}

func viperString(name string) string {
	return viper.GetString(name)
}

func viperInt(name string) int {
	return viper.GetInt(name)
}
