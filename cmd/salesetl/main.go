package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "salesetl",
	Short: "Load, transform and report on retail sales CSV files",
	Long: `salesetl reads empregados.csv, produtos.csv and vendas.csv from INPUT_DIR,
stores them in the raw database, builds the sales views, writes a Parquet
snapshot and a PDF report to OUTPUT_DIR and stores the views in the
warehouse database.

All settings come from the environment or a .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("salesetl failed", "error", err)
		os.Exit(1)
	}
}
