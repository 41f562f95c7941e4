package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"voice-campaigns/internal/config"
	"voice-campaigns/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "voicectl",
	Short: "Voice campaigns admin CLI",
	Long: `voicectl works directly against the configured store (STORE_BACKEND).
It imports and exports contact lists, lists campaigns and issues API tokens
for the operator and viewer roles.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("VOICECTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before config")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("env-file", rootCmd.PersistentFlags().Lookup("env-file"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	contactsCmd := &cobra.Command{Use: "contacts", Short: "Manage contact lists"}
	contactsCmd.AddCommand(contactsListCmd(), contactsImportCmd(), contactsExportCmd())

	campaignsCmd := &cobra.Command{Use: "campaigns", Short: "Inspect campaigns"}
	campaignsCmd.AddCommand(campaignsListCmd())

	rootCmd.AddCommand(contactsCmd, campaignsCmd, tokenCmd())
}

func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(viper.GetString("env-file")); err != nil {
		return config.Config{}, err
	}
	return config.Load()
}

// withStore opens the configured backend for the duration of fn.
func withStore(ctx context.Context, fn func(ctx context.Context, st store.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	if cfg.Store.Backend == "memory" {
		fmt.Fprintln(os.Stderr, "warning: STORE_BACKEND=memory, changes are not persisted")
	}
	return fn(ctx, b.Store)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
