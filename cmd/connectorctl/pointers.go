package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ilpkit/connector/internal/db/sqlite"
)

var (
	pointersDB string

	newPointer sqlite.CreatePaymentPointerRequest
)

func init() {
	pointersCmd.PersistentFlags().StringVarP(&pointersDB, "db", "", "payment_pointers.db", "payment pointer database: /path/to/payment_pointers.db")

	f := pointersCreateCmd.Flags()
	f.StringVarP(&newPointer.ID, "id", "", "", "payment pointer id (generated when empty)")
	f.StringVarP(&newPointer.URL, "url", "", "", "payment pointer url")
	f.StringVarP(&newPointer.AssetCode, "asset-code", "", "", "asset code, e.g. USD")
	f.Uint8VarP(&newPointer.AssetScale, "asset-scale", "", 0, "asset scale")

	pointersCmd.AddCommand(pointersCreateCmd)
	pointersCmd.AddCommand(pointersListCmd)
	rootCmd.AddCommand(pointersCmd)
}

var pointersCmd = &cobra.Command{
	Use:   "pointers",
	Short: "manage payment pointers",
}

var pointersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "create a payment pointer",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sqlite.New(pointersDB)
		if err != nil {
			return err
		}
		defer db.Close()

		pp, err := db.CreatePaymentPointer(cmd.Context(), newPointer)
		if err != nil {
			return fmt.Errorf("create payment pointer: %w", err)
		}

		printPointers(cmd.OutOrStdout(), []sqlite.PaymentPointer{*pp})
		return nil
	},
}

var pointersListCmd = &cobra.Command{
	Use:   "list",
	Short: "list payment pointers",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sqlite.New(pointersDB)
		if err != nil {
			return err
		}
		defer db.Close()

		pointers, err := db.ListPaymentPointers(cmd.Context())
		if err != nil {
			return fmt.Errorf("list payment pointers: %w", err)
		}

		printPointers(cmd.OutOrStdout(), pointers)
		return nil
	},
}

func printPointers(w io.Writer, pointers []sqlite.PaymentPointer) {
	fmt.Fprintf(w, "ID\tURL\tAsset\tCreated\n")
	for _, pp := range pointers {
		fmt.Fprintf(w, "%s\t%s\t%s/%d\t%s\n", pp.ID, pp.URL, pp.AssetCode, pp.AssetScale, pp.CreatedAt.Format(time.RFC3339))
	}
}
