package commands

import (
	"github.com/natserract/pipedrive/pkg/pipedrive"
	"github.com/spf13/cobra"
)

// NewWebhooksCommand creates the webhooks command group.
func NewWebhooksCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "webhooks",
		Aliases: []string{"webhook", "wh"},
		Short:   "Manage webhooks",
		Long:    "List, create and delete webhook subscriptions of the company",
	}

	cmd.AddCommand(newWebhooksListCommand(app))
	cmd.AddCommand(newWebhooksCreateCommand(app))
	cmd.AddCommand(newWebhooksDeleteCommand(app))

	return cmd
}

func newWebhooksListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List webhooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}

			env, err := client.Webhooks().List(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return printEnvelope(cmd.OutOrStdout(), env)
		},
	}
}

func newWebhooksCreateCommand(app *App) *cobra.Command {
	var webhook pipedrive.Webhook

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a webhook",
		Long:  "Subscribe a URL to events of one object type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}

			params, err := pipedrive.ToParams(webhook)
			if err != nil {
				return err
			}

			env, err := client.Webhooks().Create(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printEnvelope(cmd.OutOrStdout(), env)
		},
	}

	cmd.Flags().StringVar(&webhook.SubscriptionURL, "url", "", "URL that receives the events")
	cmd.Flags().StringVar(&webhook.EventAction, "event-action", "*", "added, updated, deleted, merged or *")
	cmd.Flags().StringVar(&webhook.EventObject, "event-object", "*", "object type, e.g. deal, person or *")
	cmd.Flags().IntVar(&webhook.UserID, "user-id", 0, "user whose permissions apply")
	cmd.Flags().StringVar(&webhook.HTTPAuthUser, "http-auth-user", "", "basic auth user for the endpoint")
	cmd.Flags().StringVar(&webhook.HTTPAuthPassword, "http-auth-password", "", "basic auth password for the endpoint")
	cmd.Flags().StringVar(&webhook.Version, "version", "", "webhook payload version")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func newWebhooksDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete WEBHOOK_ID",
		Short: "Delete a webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}

			env, err := client.Webhooks().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printEnvelope(cmd.OutOrStdout(), env)
		},
	}
}
