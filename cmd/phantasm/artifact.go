package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tphakala/go-phantom"
)

func (a *app) artifactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Add and inspect artifacts",
	}

	var name, label string
	var cef map[string]string
	var tags []string
	addCmd := &cobra.Command{
		Use:   "add CONTAINER_ID",
		Short: "Add an artifact with CEF fields to a container",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			containerID, err := parseID(args[0])
			if err != nil {
				return err
			}
			fields := make(map[string]any, len(cef))
			for k, v := range cef {
				fields[k] = v
			}
			result, err := c.Artifacts.Add(cmd.Context(), &phantom.AddArtifactRequest{
				ContainerID: containerID,
				Name:        name,
				Label:       label,
				CEF:         fields,
				Tags:        tags,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, result.Raw)
		}),
	}
	addCmd.Flags().StringVar(&name, "name", "", "artifact name")
	addCmd.Flags().StringVar(&label, "label", "", "artifact label")
	addCmd.Flags().StringToStringVar(&cef, "cef", nil, "CEF field as key=value (repeatable)")
	addCmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to set (repeatable)")

	getCmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show an artifact",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			artifact, err := c.Artifacts.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, artifact.Raw)
		}),
	}

	cmd.AddCommand(addCmd, getCmd)
	return cmd
}

func (a *app) vaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Upload files to container vaults",
	}

	uploadCmd := &cobra.Command{
		Use:   "upload CONTAINER_ID PATH",
		Short: "Upload a local file, or stdin when PATH is -",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			containerID, err := parseID(args[0])
			if err != nil {
				return err
			}

			var result *phantom.VaultAddResult
			if args[1] == "-" {
				result, err = c.Vault.UploadReader(cmd.Context(), containerID, "stdin", cmd.InOrStdin())
			} else {
				result, err = c.Vault.Upload(cmd.Context(), containerID, filepath.Clean(args[1]))
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, result.Raw)
		}),
	}

	cmd.AddCommand(uploadCmd)
	return cmd
}
