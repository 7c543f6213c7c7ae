// internal/cli/remote.go
package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"libracatalog/internal/catalog"
)

func newAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add ISBN TITLE AUTHOR YEAR",
		Short:   "Add a book to a running catalog",
		Example: `  catalog add 9101 "Refactoring" "Martin Fowler" 2012`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid year %q: %w", args[3], err)
			}
			item := catalog.NewItem(args[0], args[1], args[2], year)
			if err := a.remote(cmd).AddItem(cmd.Context(), item); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), item)
			return nil
		},
	}
	addURLFlag(cmd)
	return cmd
}

func newBorrowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "borrow ISBN",
		Short: "Borrow an available book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.remote(cmd)
			if err := svc.BorrowItem(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printItem(cmd, svc, args[0])
		},
	}
	addURLFlag(cmd)
	return cmd
}

func newReturnCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "return ISBN",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.remote(cmd)
			if err := svc.ReturnItem(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printItem(cmd, svc, args[0])
		},
	}
	addURLFlag(cmd)
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.remote(cmd)
			list := svc.ListAvailable
			if all {
				list = svc.ListItems
			}
			items, err := list(cmd.Context())
			if err != nil {
				return err
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include borrowed books")
	addURLFlag(cmd)
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history ISBN",
		Short: "Show the journaled events of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := a.remote(cmd).History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range events {
				fmt.Fprintf(out, "v%d %s %s %s\n", e.Version, e.CreatedAt.Format(time.RFC3339), e.EventType, e.EventData)
			}
			return nil
		},
	}
	addURLFlag(cmd)
	return cmd
}

func printItem(cmd *cobra.Command, svc catalog.Service, isbn string) error {
	item, err := svc.GetItem(cmd.Context(), isbn)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), item)
	return nil
}
