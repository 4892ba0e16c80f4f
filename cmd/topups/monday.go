package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/wallet-topups/internal/cli"
	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/monday"
)

func mondayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monday",
		Short: "Inspect the monday.com board integration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Check the stored API token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, closeApp, err := mondayClient(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			account, err := client.TestConnection(cmd.Context())
			if err != nil {
				return err
			}
			cli.PrintSuccess(cmd.OutOrStdout(), "Connected to monday.com as %s (%s)", account.Name, account.Email)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "boards",
		Short: "List boards the token can see",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, closeApp, err := mondayClient(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			boards, err := client.ListBoards(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]cli.Cell, 0, len(boards))
			for _, b := range boards {
				rows = append(rows, []cli.Cell{cli.Plain(b.ID), cli.Plain(b.Name)})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"ID", "Board"}, rows))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "columns BOARD_ID",
		Short: "List a board's columns for the field mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeApp, err := mondayClient(cmd)
			if err != nil {
				return err
			}
			defer closeApp()

			columns, err := client.ListColumns(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := make([][]cli.Cell, 0, len(columns))
			for _, c := range columns {
				rows = append(rows, []cli.Cell{cli.Plain(c.ID), cli.Plain(c.Title), cli.Plain(c.Type)})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"ID", "Title", "Type"}, rows))
			return nil
		},
	})

	return cmd
}

// mondayClient builds a client from the board config stored in the database.
func mondayClient(cmd *cobra.Command) (*monday.Client, func(), error) {
	ctx := cmd.Context()
	a, err := buildApp(ctx, appOptions{})
	if err != nil {
		return nil, nil, err
	}

	creds, err := a.engine.BoardCredentials(ctx)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	if creds.APIToken == "" {
		a.Close()
		return nil, nil, common.NewUserError(
			"No monday.com API token saved. Set one with PUT /wallet-topups/monday/config.",
			fmt.Errorf("%w: monday api token", common.ErrMissingConfig),
		)
	}

	var opts []monday.Option
	if url := mondayAPIURL(); url != "" {
		opts = append(opts, monday.WithAPIURL(url))
	}
	return monday.NewClient(creds.APIToken, opts...), a.Close, nil
}
