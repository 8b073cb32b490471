package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the catalog schema",
	Long:  "Apply the embedded catalog schema. Safe to run repeatedly.",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, pool, err := setup(context.Background(), true)
	if err != nil {
		return err
	}
	defer pool.Close()

	fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
	return nil
}
