package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autounzip/internal/config"
	"autounzip/internal/ipc"
)

func newFoldersCommand(ctx *commandContext) *cobra.Command {
	foldersCmd := &cobra.Command{
		Use:   "folders",
		Short: "Manage the daemon's watch folders",
	}

	foldersCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List watched folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ListFolders()
				if err != nil {
					return err
				}
				printFolders(cmd, resp.Folders)
				return nil
			})
		},
	})

	foldersCmd.AddCommand(&cobra.Command{
		Use:   "add <path>",
		Short: "Watch an additional folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AddFolder(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", resp.Folder)
				return nil
			})
		},
	})

	foldersCmd.AddCommand(&cobra.Command{
		Use:   "remove <path>",
		Short: "Stop watching a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RemoveFolder(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "No longer watching %s\n", resp.Folder)
				return nil
			})
		},
	})

	return foldersCmd
}

func printFolders(cmd *cobra.Command, folders []string) {
	out := cmd.OutOrStdout()
	if len(folders) == 0 {
		fmt.Fprintln(out, "No folders are being watched")
		return
	}
	for _, folder := range folders {
		fmt.Fprintln(out, folder)
	}
}
