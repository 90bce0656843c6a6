package commands

import (
	"github.com/natserract/pipedrive/pkg/pipedrive"
	"github.com/spf13/cobra"
)

// NewCallLogsCommand creates the call logs command group.
func NewCallLogsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calllogs",
		Aliases: []string{"call-logs", "cl"},
		Short:   "Manage call logs",
		Long:    "List, view, create and delete phone call records",
	}

	cmd.AddCommand(newCallLogsListCommand(app))
	cmd.AddCommand(newCallLogsGetCommand(app))
	cmd.AddCommand(newCallLogsCreateCommand(app))
	cmd.AddCommand(newCallLogsDeleteCommand(app))

	return cmd
}

func newCallLogsListCommand(app *App) *cobra.Command {
	var (
		start int
		limit int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List call logs",
		Long:  "List call logs of the authorized user, one page at a time or all of them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}

			params := map[string]interface{}{}
			if limit > 0 {
				params["limit"] = limit
			}
			if start > 0 {
				params["start"] = start
			}

			var env pipedrive.Envelope
			if all {
				env, err = client.CallLogs().All(cmd.Context(), params)
			} else {
				env, err = client.CallLogs().List(cmd.Context(), params)
			}
			if err != nil {
				return err
			}
			return printEnvelope(cmd.OutOrStdout(), env)
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "pagination start")
	cmd.Flags().IntVar(&limit, "limit", 0, "items per page")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")

	return cmd
}

func newCallLogsGetCommand(app *App) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "get CALL_LOG_ID",
		Short: "Get call log details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}

			env, err := client.CallLogs().Find(cmd.Context(), args[0], fields...)
			if err != nil {
				return err
			}
			return printEnvelope(cmd.OutOrStdout(), env)
		},
	}

	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to select")

	return cmd
}

func newCallLogsCreateCommand(app *App) *cobra.Command {
	var (
		callLog   pipedrive.CallLog
		startTime string
		endTime   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a call log",
		Long:  "Record a phone call and link it to a person, organization or deal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}

			params, err := pipedrive.ToParams(callLog)
			if err != nil {
				return err
			}
			// Times are passed through in the API's "YYYY-MM-DD HH:MM:SS" form
			if startTime != "" {
				params["start_time"] = startTime
			}
			if endTime != "" {
				params["end_time"] = endTime
			}

			env, err := client.CallLogs().Create(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printEnvelope(cmd.OutOrStdout(), env)
		},
	}

	cmd.Flags().StringVar(&callLog.Outcome, "outcome", "", "call outcome (connected, no_answer, left_message, left_voicemail, wrong_number, busy)")
	cmd.Flags().StringVar(&callLog.ToPhoneNumber, "to", "", "number that was called")
	cmd.Flags().StringVar(&callLog.FromPhoneNumber, "from", "", "number the call was made from")
	cmd.Flags().StringVar(&callLog.Subject, "subject", "", "call subject")
	cmd.Flags().StringVar(&callLog.Duration, "duration", "", "call duration in seconds")
	cmd.Flags().StringVar(&callLog.Note, "note", "", "note, may contain HTML")
	cmd.Flags().IntVar(&callLog.PersonID, "person-id", 0, "linked person")
	cmd.Flags().IntVar(&callLog.OrgID, "org-id", 0, "linked organization")
	cmd.Flags().IntVar(&callLog.DealID, "deal-id", 0, "linked deal")
	cmd.Flags().IntVar(&callLog.ActivityID, "activity-id", 0, "linked activity")
	cmd.Flags().StringVar(&startTime, "start-time", "", "call start, UTC")
	cmd.Flags().StringVar(&endTime, "end-time", "", "call end, UTC")
	_ = cmd.MarkFlagRequired("outcome")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newCallLogsDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete CALL_LOG_ID",
		Short: "Delete a call log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}

			env, err := client.CallLogs().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printEnvelope(cmd.OutOrStdout(), env)
		},
	}
}
