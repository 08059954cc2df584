package main

import (
	"fmt"
	"iter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tphakala/go-phantom"
)

// pollFlags registers the polling bounds shared by the wait commands.
func pollFlags(cmd *cobra.Command, poll *phantom.PollOptions) {
	cmd.Flags().DurationVar(&poll.Interval, "interval", phantom.DefaultPollInterval, "delay between status checks")
	cmd.Flags().IntVar(&poll.MaxAttempts, "attempts", phantom.DefaultPollMaxAttempts, "status checks before giving up")
}

// follow prints one line per poll snapshot.
func follow(cmd *cobra.Command, lines iter.Seq2[string, error]) error {
	for line, err := range lines {
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) playbookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playbook",
		Short: "Run playbooks and fetch their results",
	}

	var scope string
	var wait bool
	var runPoll phantom.PollOptions
	runCmd := &cobra.Command{
		Use:   "run CONTAINER_ID PLAYBOOK",
		Short: `Run a playbook by ID or "repo/name"`,
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			containerID, err := parseID(args[0])
			if err != nil {
				return err
			}
			result, err := c.Playbooks.Run(cmd.Context(), &phantom.RunPlaybookRequest{
				ContainerID: containerID,
				Playbook:    args[1],
				Scope:       scope,
			})
			if err != nil {
				return err
			}
			a.logger.Info("playbook started", zap.Int64("run_id", result.RunID))
			if !wait {
				return printJSON(cmd, result.Raw)
			}
			run, err := c.Playbooks.Wait(cmd.Context(), result.RunID, &runPoll)
			if err != nil {
				return err
			}
			return printJSON(cmd, run.Raw)
		}),
	}
	runCmd.Flags().StringVar(&scope, "scope", "", `artifact scope (default "new")`)
	runCmd.Flags().BoolVar(&wait, "wait", false, "wait for the run to finish")
	pollFlags(runCmd, &runPoll)

	var action string
	getCmd := &cobra.Command{
		Use:   "get RUN_ID",
		Short: "Show a playbook run, or its app results with --action",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			runID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("action") {
				page, err := c.Playbooks.ActionResults(cmd.Context(), runID, action)
				if err != nil {
					return err
				}
				return printJSON(cmd, page)
			}
			run, err := c.Playbooks.Get(cmd.Context(), runID)
			if err != nil {
				return err
			}
			return printJSON(cmd, run.Raw)
		}),
	}
	getCmd.Flags().StringVar(&action, "action", "", "list app runs of this action (empty for all)")

	var waitPoll phantom.PollOptions
	var followRun bool
	waitCmd := &cobra.Command{
		Use:   "wait RUN_ID",
		Short: "Poll a playbook run until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			runID, err := parseID(args[0])
			if err != nil {
				return err
			}
			runs := c.Playbooks.Watch(cmd.Context(), runID, &waitPoll)
			if followRun {
				return follow(cmd, phantom.Map(runs, func(run *phantom.PlaybookRun) string {
					return fmt.Sprintf("playbook run %d: %s", run.ID, run.Status)
				}))
			}
			for run, err := range runs {
				if err != nil {
					return err
				}
				a.logger.Debug("playbook run status", zap.Int64("run_id", runID), zap.String("status", string(run.Status)))
				if run.Status.IsTerminal() {
					return printJSON(cmd, run.Raw)
				}
			}
			return nil
		}),
	}
	pollFlags(waitCmd, &waitPoll)
	waitCmd.Flags().BoolVar(&followRun, "follow", false, "print every status check instead of the final run")

	cmd.AddCommand(runCmd, getCmd, waitCmd)
	return cmd
}

func (a *app) actionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Run app actions and fetch their results",
	}

	var params map[string]string
	var wait bool
	var runPoll phantom.PollOptions
	runCmd := &cobra.Command{
		Use:   "run CONTAINER_ID ACTION ASSET",
		Short: "Run an action against a single asset",
		Args:  cobra.ExactArgs(3),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			containerID, err := parseID(args[0])
			if err != nil {
				return err
			}
			var parameters []map[string]any
			if len(params) > 0 {
				p := make(map[string]any, len(params))
				for k, v := range params {
					p[k] = v
				}
				parameters = append(parameters, p)
			}
			result, err := c.Actions.RunOnAsset(cmd.Context(), containerID, args[1], args[2], parameters)
			if err != nil {
				return err
			}
			a.logger.Info("action started", zap.Int64("action_run_id", result.RunID))
			if !wait {
				return printJSON(cmd, result.Raw)
			}
			if _, err := c.Actions.Wait(cmd.Context(), result.RunID, &runPoll); err != nil {
				return err
			}
			data, err := c.Actions.RunData(cmd.Context(), result.RunID)
			if err != nil {
				return err
			}
			return printJSON(cmd, data)
		}),
	}
	runCmd.Flags().StringToStringVarP(&params, "param", "p", nil, "action parameter as key=value (repeatable)")
	runCmd.Flags().BoolVar(&wait, "wait", false, "wait for the run and print its result data")
	pollFlags(runCmd, &runPoll)

	var data bool
	getCmd := &cobra.Command{
		Use:   "get ACTION_RUN_ID",
		Short: "Show an action run, or its app results with --data",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			runID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if data {
				page, err := c.Actions.RunData(cmd.Context(), runID)
				if err != nil {
					return err
				}
				return printJSON(cmd, page)
			}
			run, err := c.Actions.Get(cmd.Context(), runID)
			if err != nil {
				return err
			}
			return printJSON(cmd, run.Raw)
		}),
	}
	getCmd.Flags().BoolVar(&data, "data", false, "print app run result data")

	var waitPoll phantom.PollOptions
	var followRun bool
	waitCmd := &cobra.Command{
		Use:   "wait ACTION_RUN_ID",
		Short: "Poll an action run until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, c *phantom.Client, args []string) error {
			runID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if followRun {
				runs := c.Actions.Watch(cmd.Context(), runID, &waitPoll)
				return follow(cmd, phantom.Map(runs, func(run *phantom.ActionRun) string {
					return fmt.Sprintf("action run %d: %s", run.ID, run.Status)
				}))
			}
			run, err := c.Actions.Wait(cmd.Context(), runID, &waitPoll)
			if err != nil {
				return err
			}
			if run.Status != phantom.RunSuccess {
				a.logger.Warn("action run did not succeed", zap.String("status", string(run.Status)))
			}
			return printJSON(cmd, run.Raw)
		}),
	}
	pollFlags(waitCmd, &waitPoll)
	waitCmd.Flags().BoolVar(&followRun, "follow", false, "print every status check instead of the final run")

	cmd.AddCommand(runCmd, getCmd, waitCmd)
	return cmd
}
