package documents

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"stillcore/internal/blob"
	"stillcore/internal/core"
	"stillcore/pkg/domain"
)

func newTestArchiver(t *testing.T) (*Archiver, *core.Service, *MemoryAuditLog) {
	t.Helper()
	svc := core.NewSeededService()
	audit := &MemoryAuditLog{}
	return NewArchiver(svc.Store(), blob.NewMemory(), audit), svc, audit
}

func TestArchiveRendersJSONAndCSV(t *testing.T) {
	archiver, svc, audit := newTestArchiver(t)
	ctx := context.Background()

	invoice, _, err := svc.CreateInvoice(ctx, 1, core.BillingAddress{UseResidential: true}, map[int]int{54: 10, 190: 2})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	artifacts, err := archiver.Archive(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected json and csv artifacts, got %+v", artifacts)
	}
	if artifacts[0].Key != "invoices/2/invoice.json" || artifacts[1].Key != "invoices/2/invoice.csv" {
		t.Fatalf("unexpected keys: %+v", artifacts)
	}

	payload, err := archiver.Fetch(ctx, invoice.ID, FormatJSON)
	if err != nil {
		t.Fatalf("fetch json: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.InvoiceID != invoice.ID || doc.CustomerName != "Charlie Bucket" {
		t.Fatalf("unexpected document header: %+v", doc)
	}
	if doc.Total != "553.88" {
		t.Fatalf("expected total 553.88, got %s", doc.Total)
	}
	if len(doc.Lines) != 2 || doc.Lines[0].ProductName != "Whiskey" || doc.Lines[1].ProductName != "Rum" {
		t.Fatalf("unexpected lines: %+v", doc.Lines)
	}

	raw, err := archiver.Fetch(ctx, invoice.ID, FormatCSV)
	if err != nil {
		t.Fatalf("fetch csv: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(string(raw))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	// header + two lines + total row
	if len(records) != 4 {
		t.Fatalf("expected 4 csv rows, got %+v", records)
	}
	if records[0][0] != "product_id" {
		t.Fatalf("missing header: %+v", records[0])
	}
	if records[1][1] != "Whiskey" || records[1][4] != "489.90" {
		t.Fatalf("unexpected whiskey row: %+v", records[1])
	}
	if records[3][3] != "total" || records[3][4] != "553.88" {
		t.Fatalf("unexpected total row: %+v", records[3])
	}

	entries := audit.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected two audit entries, got %+v", entries)
	}
	for _, entry := range entries {
		if entry.Action != "invoice_archive" || entry.InvoiceID != invoice.ID || entry.Error != "" {
			t.Fatalf("unexpected audit entry: %+v", entry)
		}
	}
}

func TestArchiveIsImmutable(t *testing.T) {
	archiver, _, audit := newTestArchiver(t)
	ctx := context.Background()

	if _, err := archiver.Archive(ctx, 1, FormatJSON); err != nil {
		t.Fatalf("first archive: %v", err)
	}
	if _, err := archiver.Archive(ctx, 1, FormatJSON); err == nil {
		t.Fatalf("expected second archive to fail")
	}
	entries := audit.Entries()
	last := entries[len(entries)-1]
	if last.Error == "" {
		t.Fatalf("expected audit entry with error, got %+v", last)
	}
}

func TestArchiveUnknownInvoice(t *testing.T) {
	archiver, _, _ := newTestArchiver(t)
	_, err := archiver.Archive(context.Background(), 99)
	var notFound domain.ErrNotFound
	if !errors.As(err, &notFound) || notFound.Entity != domain.EntityInvoice {
		t.Fatalf("expected invoice ErrNotFound, got %v", err)
	}
}

func TestListReturnsStoredArtifacts(t *testing.T) {
	archiver, _, _ := newTestArchiver(t)
	ctx := context.Background()

	if _, err := archiver.Archive(ctx, 1); err != nil {
		t.Fatalf("archive: %v", err)
	}
	artifacts, err := archiver.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected two artifacts, got %+v", artifacts)
	}
	if artifacts[0].Format != FormatCSV || artifacts[1].Format != FormatJSON {
		t.Fatalf("expected key-ordered csv then json, got %+v", artifacts)
	}
}
