package main

import (
	"context"
	"fmt"
	"os"

	"voice-campaigns/internal/contacts"
	"voice-campaigns/internal/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func loadContacts(ctx context.Context, st store.Store) (*contacts.Service, error) {
	svc := contacts.NewService(st)
	if err := svc.Load(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func contactsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contact lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				svc, err := loadContacts(ctx, st)
				if err != nil {
					return err
				}
				lists := svc.Lists()
				if viper.GetBool("json") {
					return printJSON(lists)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Contacts", "Pending", "Completed", "Failed", "Created"})
				for _, l := range lists {
					tw.AppendRow(table.Row{l.ID, l.Name, l.Total, l.Pending, l.Completed, l.Failed, l.CreatedAt.Format("2006-01-02 15:04")})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func contactsImportCmd() *cobra.Command {
	var file, name string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a CSV file as a new contact list",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			return withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				svc, err := loadContacts(ctx, st)
				if err != nil {
					return err
				}
				l, err := svc.Import(ctx, f, name)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(l)
				}
				fmt.Printf("imported %d contacts into %q (%s)\n", len(l.Contacts), l.Name, l.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV file with name and phone columns")
	cmd.Flags().StringVar(&name, "name", "", "list name")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func contactsExportCmd() *cobra.Command {
	var listID, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a contact list as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				svc, err := loadContacts(ctx, st)
				if err != nil {
					return err
				}
				filename, body, err := svc.Export(listID)
				if err != nil {
					return err
				}
				if out == "-" {
					_, err = os.Stdout.Write(body)
					return err
				}
				if out == "" {
					out = filename
				}
				if err := os.WriteFile(out, body, 0o644); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&listID, "list", "", "contact list id")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: <list name>_contacts.csv, - for stdout)")
	_ = cmd.MarkFlagRequired("list")
	return cmd
}
