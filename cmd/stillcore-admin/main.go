// Command stillcore-admin opens the configured persistent store, optionally
// loads the sample dataset into an empty store, and prints table summaries.
// It can also archive an invoice document into the configured blob store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"stillcore/internal/adapters/documents"
	"stillcore/internal/blob"
	"stillcore/internal/core"
	"stillcore/internal/infra/persistence/memory"
	"stillcore/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stillcore-admin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var seed bool
	var archiveInvoice int
	fs.BoolVar(&seed, "seed", false, "load the sample dataset when the store is empty")
	fs.IntVar(&archiveInvoice, "archive-invoice", 0, "archive the given invoice id as JSON and CSV documents")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := run(context.Background(), stdout, seed, archiveInvoice); err != nil {
		fmt.Fprintf(stderr, "stillcore-admin: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, stdout io.Writer, seed bool, archiveInvoice int) error {
	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore(store)

	if seed && len(store.ListStockItems()) == 0 {
		if err := importSeed(ctx, store); err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
		fmt.Fprintln(stdout, "seeded sample dataset")
	}

	printSummary(stdout, store)

	if archiveInvoice > 0 {
		blobStore, err := blob.Open(ctx)
		if err != nil {
			return fmt.Errorf("open blob store: %w", err)
		}
		archiver := documents.NewArchiver(store, blobStore, nil)
		artifacts, err := archiver.Archive(ctx, archiveInvoice)
		if err != nil {
			return fmt.Errorf("archive invoice %d: %w", archiveInvoice, err)
		}
		for _, artifact := range artifacts {
			fmt.Fprintf(stdout, "archived %s (%d bytes)\n", artifact.Key, artifact.SizeBytes)
		}
	}
	return nil
}

// importSeed loads the sample dataset through a backend's seeding hook when it
// has one, falling back to transactional inserts.
func importSeed(ctx context.Context, store domain.PersistentStore) error {
	snapshot := core.SeedSnapshot()
	switch s := store.(type) {
	case interface {
		Seed(memory.Snapshot) error
	}:
		return s.Seed(snapshot)
	case interface {
		Seed(context.Context, memory.Snapshot) error
	}:
		return s.Seed(ctx, snapshot)
	case interface{ ImportState(memory.Snapshot) }:
		s.ImportState(snapshot)
		return nil
	}
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for _, item := range snapshot.StockItems {
			if _, err := tx.CreateStockItem(item); err != nil {
				return err
			}
		}
		for _, customer := range snapshot.Customers {
			if _, err := tx.CreateCustomer(customer); err != nil {
				return err
			}
		}
		for _, run := range snapshot.ProductionRuns {
			if _, err := tx.CreateProductionRun(run); err != nil {
				return err
			}
		}
		for _, invoice := range snapshot.Invoices {
			if _, err := tx.CreateInvoice(invoice); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

func printSummary(stdout io.Writer, store domain.PersistentStore) {
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STOCK\tNAME\tQTY (L)\tSPIRIT\tPRICE")
	for _, item := range store.ListStockItems() {
		price := "-"
		if item.UnitPrice != nil {
			price = item.UnitPrice.StringFixed(2)
		}
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%t\t%s\n", item.ID, item.Name, item.Quantity, item.IsSpirit, price)
	}
	fmt.Fprintln(w, "\nCUSTOMER\tNAME\tEMAIL")
	for _, customer := range store.ListCustomers() {
		fmt.Fprintf(w, "%d\t%s %s\t%s\n", customer.ID, customer.FirstName, customer.LastName, customer.Email)
	}
	fmt.Fprintln(w, "\nRUN\tSPIRIT\tSTART\tOPEN")
	for _, run := range store.ListProductionRuns() {
		fmt.Fprintf(w, "%d\t%d\t%s\t%t\n", run.ID, run.SpiritID, run.StartDate.Format("2006-01-02"), run.Open())
	}
	fmt.Fprintln(w, "\nINVOICE\tCUSTOMER\tDATE\tTOTAL")
	for _, invoice := range store.ListInvoices() {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", invoice.ID, invoice.CustomerID, invoice.InvoiceDate.Format("2006-01-02"), invoice.Total.StringFixed(2))
	}
	_ = w.Flush()
}

func closeStore(store domain.PersistentStore) {
	if closer, ok := store.(io.Closer); ok {
		_ = closer.Close()
	}
}
