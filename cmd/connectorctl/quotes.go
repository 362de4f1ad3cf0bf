package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ilpkit/connector/internal/quote"
	"github.com/ilpkit/connector/internal/quotestore"
)

var (
	quotesDB      string
	quotesPointer string
)

func init() {
	quotesCmd.PersistentFlags().StringVarP(&quotesDB, "db", "", "quotes.db", "quote database: /path/to/quotes.db")
	quotesListCmd.Flags().StringVarP(&quotesPointer, "pointer", "", "", "payment pointer id")

	quotesCmd.AddCommand(quotesGetCmd)
	quotesCmd.AddCommand(quotesListCmd)
	rootCmd.AddCommand(quotesCmd)
}

var quotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "inspect quotes",
}

var quotesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "show a quote as json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := quotestore.New(quotesDB)
		if err != nil {
			return err
		}
		defer store.Close()

		q, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if q == nil {
			return quote.ErrNotFound
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(q)
	},
}

var quotesListCmd = &cobra.Command{
	Use:   "list",
	Short: "list quotes for a payment pointer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if quotesPointer == "" {
			return fmt.Errorf("must set --pointer")
		}

		store, err := quotestore.New(quotesDB)
		if err != nil {
			return err
		}
		defer store.Close()

		quotes, err := store.ListByPaymentPointer(cmd.Context(), quotesPointer)
		if err != nil {
			return err
		}

		printQuotes(cmd.OutOrStdout(), quotes, time.Now())
		return nil
	},
}

func printQuotes(w io.Writer, quotes []quote.Quote, now time.Time) {
	fmt.Fprintf(w, "ID\tSend\tReceive\tMinRate\tExpires\tExpired\n")
	for _, q := range quotes {
		fmt.Fprintf(w, "%s\t%s %s\t%s %s\t%s\t%s\t%t\n",
			q.ID,
			q.SendAmount.Value, q.SendAmount.AssetCode,
			q.ReceiveAmount.Value, q.ReceiveAmount.AssetCode,
			q.MinExchangeRate,
			q.ExpiresAt.Format(time.RFC3339),
			q.Expired(now),
		)
	}
}
