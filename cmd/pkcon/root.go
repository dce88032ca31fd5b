package main

import (
	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-extras/cobraflags"
)

var (
	serverFlag = cobraflags.StringFlag{
		Name:         "server",
		Usage:        "pkgbrokerd bus base URL",
		DefaultValue: "http://127.0.0.1:8000/api/v1",
	}
	callerUIDFlag = cobraflags.StringFlag{
		Name:         "caller-uid",
		Usage:        "uid to present as the calling identity",
		DefaultValue: "0",
	}
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "pkcon",
		Short:             "console client for the package-management broker",
		SilenceUsage:      true,
		PersistentPreRunE: cobrautil.SyncViperPreRunE("pkcon"),
	}

	serverFlag.Apply(root)
	callerUIDFlag.Apply(root)

	root.AddCommand(
		newRoleCommand("search-name", "Search installed/available packages by name"),
		newRoleCommand("search-details", "Search package descriptions"),
		newRoleCommand("resolve", "Resolve package names to package ids"),
		newRoleCommand("get-updates", "List packages with pending updates"),
		newRoleCommand("refresh-cache", "Refresh the backend's metadata cache"),
		newRoleCommand("install-packages", "Install the given package ids"),
		newRoleCommand("remove-packages", "Remove the given package ids"),
		newRoleCommand("update-packages", "Update the given package ids"),
		newRoleCommand("get-details", "Fetch package details"),
		newRoleCommand("get-old-transactions", "List past transactions"),
		newCancelCommand(),
		newDaemonStateCommand(),
		newSuggestQuitCommand(),
	)
	return root
}

func currentClient() *client {
	return newClient(viper.GetString(serverFlag.Name), uint32(viper.GetInt(callerUIDFlag.Name)))
}
