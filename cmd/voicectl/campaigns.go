package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"voice-campaigns/internal/campaigns"
	"voice-campaigns/internal/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func campaignsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List campaigns and their progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				list, err := store.ListJSON[campaigns.Campaign](ctx, st, store.CollectionCampaigns)
				if err != nil {
					return err
				}
				sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
				if viper.GetBool("json") {
					return printJSON(list)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "List", "Status", "Called", "Success", "Failed"})
				for _, c := range list {
					tw.AppendRow(table.Row{
						c.ID, c.Name, c.ListName, c.Status,
						fmt.Sprintf("%d/%d", c.CalledContacts, c.TotalContacts),
						c.SuccessfulCalls, c.FailedCalls,
					})
				}
				tw.Render()
				return nil
			})
		},
	}
}
