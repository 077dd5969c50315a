package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akylbek/payment-system/tilopay-connector/internal/config"
	"github.com/akylbek/payment-system/tilopay-connector/internal/repository"
)

var migrateCurrencies string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema and optionally seed currencies",
	Long: `Create the transaction, currency and order tables if they do not exist.

With --currencies, currency reference data is read from a YAML file and
upserted by id.

Examples:
  tilopay-connector migrate
  tilopay-connector migrate --currencies currencies.yaml`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateCurrencies, "currencies", "", "YAML file with currency reference data")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := repository.NewTransactionRepository(db).InitDB(); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	fmt.Println("Schema is up to date")

	if migrateCurrencies == "" {
		return nil
	}

	f, err := os.Open(migrateCurrencies)
	if err != nil {
		return err
	}
	defer f.Close()

	currencies, err := config.LoadCurrencies(f)
	if err != nil {
		return err
	}

	repo := repository.NewCurrencyRepository(db)
	for _, c := range currencies {
		if err := repo.Upsert(cmd.Context(), c); err != nil {
			return fmt.Errorf("upsert currency %s: %w", c.Name, err)
		}
	}
	fmt.Printf("Seeded %d currencies\n", len(currencies))
	return nil
}
