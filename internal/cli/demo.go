// internal/cli/demo.go
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"libracatalog/internal/catalog"
)

func newDemoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Add two books, borrow one, return it",
		Long: `Runs the fixed demonstration sequence against a fresh catalog: add two
sample books, borrow "Effective Java", list the available books, return it
and list them again.

With --url the sequence runs against a catalog server instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc catalog.Service = catalog.New()
			if url, _ := cmd.Flags().GetString("url"); url != "" {
				svc = a.remote(cmd)
			}
			return runDemo(cmd.Context(), svc, cmd.OutOrStdout())
		},
	}
	addURLFlag(cmd)
	return cmd
}

func runDemo(ctx context.Context, svc catalog.Service, out io.Writer) error {
	if err := addSampleBooks(ctx, svc); err != nil {
		return err
	}
	if err := borrowAndDisplay(ctx, svc, out, "1234", "Effective Java"); err != nil {
		return err
	}
	return returnAndDisplay(ctx, svc, out, "1234", "Effective Java")
}

func addSampleBooks(ctx context.Context, svc catalog.Service) error {
	for _, item := range []*catalog.Item{
		catalog.NewItem("1234", "Effective Java", "Joshua Bloch", 2018),
		catalog.NewItem("5678", "Clean Code", "Robert C. Martin", 2008),
	} {
		if err := svc.AddItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func borrowAndDisplay(ctx context.Context, svc catalog.Service, out io.Writer, isbn, title string) error {
	if err := svc.BorrowItem(ctx, isbn); err != nil {
		return err
	}
	fmt.Fprintf(out, "Available books after borrowing '%s':\n", title)
	return printAvailable(ctx, svc, out)
}

func returnAndDisplay(ctx context.Context, svc catalog.Service, out io.Writer, isbn, title string) error {
	if err := svc.ReturnItem(ctx, isbn); err != nil {
		return err
	}
	fmt.Fprintf(out, "Available books after returning '%s':\n", title)
	return printAvailable(ctx, svc, out)
}

func printAvailable(ctx context.Context, svc catalog.Service, out io.Writer) error {
	items, err := svc.ListAvailable(ctx)
	if err != nil {
		return err
	}
	printItems(out, items)
	fmt.Fprintln(out)
	return nil
}

func printItems(out io.Writer, items []catalog.ItemView) {
	for _, item := range items {
		fmt.Fprintln(out, item)
	}
}
