package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ilpkit/connector/internal/accounts"
	"github.com/ilpkit/connector/internal/accounts/repo/pg"
)

var (
	accountsDB string

	newAccount accounts.PeerAccount
)

func init() {
	accountsCmd.PersistentFlags().StringVarP(&accountsDB, "db", "", "", "accounts database: postgresql://...")

	f := accountsCreateCmd.Flags()
	f.StringVarP(&newAccount.ID, "id", "", "", "account id")
	f.StringVarP(&newAccount.Asset.Code, "asset-code", "", "", "asset code, e.g. USD")
	f.Uint8VarP(&newAccount.Asset.Scale, "asset-scale", "", 0, "asset scale")
	f.StringSliceVarP(&newAccount.HTTP.Incoming.AuthTokens, "token", "", nil, "incoming auth token (repeatable)")
	f.StringVarP(&newAccount.HTTP.Outgoing.AuthToken, "outgoing-token", "", "", "outgoing auth token")
	f.StringVarP(&newAccount.HTTP.Outgoing.Endpoint, "outgoing-endpoint", "", "", "outgoing http endpoint")
	f.BoolVarP(&newAccount.Stream.Enabled, "stream", "", false, "enable stream")

	accountsCmd.AddCommand(accountsCreateCmd)
	accountsCmd.AddCommand(accountsListCmd)
	rootCmd.AddCommand(accountsCmd)
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "manage peer accounts",
}

var accountsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "create a peer account",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openAccounts()
		if err != nil {
			return err
		}
		defer repo.Close()

		acc, err := createAccount(cmd.Context(), repo, newAccount)
		if err != nil {
			return err
		}

		printAccounts(cmd.OutOrStdout(), []accounts.PeerAccount{*acc})
		return nil
	},
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "list peer accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openAccounts()
		if err != nil {
			return err
		}
		defer repo.Close()

		accts, err := repo.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}

		printAccounts(cmd.OutOrStdout(), accts)
		return nil
	},
}

func openAccounts() (*pg.Repo, error) {
	if accountsDB == "" {
		return nil, fmt.Errorf("must set --db")
	}
	return pg.New(accountsDB)
}

func createAccount(ctx context.Context, svc accounts.Service, acc accounts.PeerAccount) (*accounts.PeerAccount, error) {
	if acc.ID == "" {
		return nil, accounts.ErrMissingID
	}
	if acc.Asset.Code == "" {
		return nil, fmt.Errorf("must set --asset-code")
	}
	if len(acc.HTTP.Incoming.AuthTokens) == 0 {
		return nil, fmt.Errorf("must set at least one --token")
	}

	created, err := svc.Create(ctx, acc)
	if err != nil {
		return nil, fmt.Errorf("create account %q: %w", acc.ID, err)
	}
	return created, nil
}

func printAccounts(w io.Writer, accts []accounts.PeerAccount) {
	fmt.Fprintf(w, "ID\tAsset\tTokens\tStream\n")
	for _, acc := range accts {
		tokens := len(acc.HTTP.Incoming.AuthTokens)
		if verbose {
			fmt.Fprintf(w, "%s\t%s/%d\t%s\t%t\n", acc.ID, acc.Asset.Code, acc.Asset.Scale, strings.Join(acc.HTTP.Incoming.AuthTokens, ","), acc.Stream.Enabled)
			continue
		}
		fmt.Fprintf(w, "%s\t%s/%d\t%d\t%t\n", acc.ID, acc.Asset.Code, acc.Asset.Scale, tokens, acc.Stream.Enabled)
	}
}
