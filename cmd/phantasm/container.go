package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tphakala/go-phantom"
)

func (a *app) containerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "container",
		Short: "Create, inspect and delete containers",
	}

	var create phantom.CreateContainerRequest
	var severity, sensitivity string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a container; unset fields take test defaults",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			create.Severity = phantom.Severity(severity)
			create.Sensitivity = phantom.Sensitivity(sensitivity)
			result, err := c.Containers.Create(cmd.Context(), &create)
			if err != nil {
				return err
			}
			a.logger.Info("container created", zap.Int64("id", result.ID), zap.Int64("existing_id", result.ExistingID))
			return printJSON(cmd, result.Raw)
		}),
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "container name")
	createCmd.Flags().StringVar(&create.Label, "label", "", "container label")
	createCmd.Flags().StringVar(&create.Description, "description", "", "container description")
	createCmd.Flags().StringVar(&severity, "severity", "", "low, medium or high")
	createCmd.Flags().StringVar(&sensitivity, "sensitivity", "", "white, green, amber or red")
	createCmd.Flags().StringSliceVar(&create.Tags, "tag", nil, "tag to set (repeatable)")
	createCmd.Flags().StringVar(&create.SourceDataIdentifier, "source-id", "", "source data identifier (default: random UUID)")

	getCmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show a container",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			container, err := c.Containers.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, container.Raw)
		}),
	}

	statusCmd := &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Set the container status",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			result, err := c.Containers.UpdateStatus(cmd.Context(), id, phantom.ContainerStatus(args[1]))
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		}),
	}

	tagsCmd := &cobra.Command{
		Use:   "tags ID [TAG...]",
		Short: "Replace the container tags; no tags clears them",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			result, err := c.Containers.UpdateTags(cmd.Context(), id, args[1:])
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		}),
	}

	artifactsCmd := &cobra.Command{
		Use:   "artifacts ID",
		Short: "List the artifacts of a container",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			page, err := c.Containers.Artifacts(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, page)
		}),
	}

	promoteCmd := &cobra.Command{
		Use:   "promote ID TEMPLATE",
		Short: "Promote a container to a case using the named template",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			result, err := c.Containers.PromoteToCase(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		}),
	}

	demoteCmd := &cobra.Command{
		Use:   "demote ID",
		Short: "Demote a case to a container",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			result, err := c.Containers.DemoteToContainer(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		}),
	}

	var user, password string
	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a container",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var opts []phantom.RequestOption
			if user != "" {
				opts = append(opts, phantom.WithBasicAuth(user, password))
			}
			result, err := c.Containers.Delete(cmd.Context(), id, opts...)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		}),
	}
	deleteCmd.Flags().StringVar(&user, "user", "", "Phantom user for basic auth")
	deleteCmd.Flags().StringVar(&password, "password", "", "password for --user")

	cmd.AddCommand(createCmd, getCmd, statusCmd, tagsCmd, artifactsCmd, promoteCmd, demoteCmd, deleteCmd)
	return cmd
}
