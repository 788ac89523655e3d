package main

import (
	"fmt"

	"github.com/docstore/docstore/docstore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "docstore",
	Short: "Embedded file-backed document store",
	Long: `docstore manages a directory of JSON-backed document collections
with a MongoDB-style query and update language.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging(viper.GetString("log-level"))
	},
}

func init() {
	rootCmd.PersistentFlags().String("dir", "./data", "database directory")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	viper.SetEnvPrefix("DOCSTORE")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// openDatabase opens the database named by --dir / DOCSTORE_DIR.
func openDatabase() (*docstore.Database, error) {
	db, err := docstore.Open(viper.GetString("dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
