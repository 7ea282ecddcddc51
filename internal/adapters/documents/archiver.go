// Package documents renders invoices into archival documents and stores them
// through the blob layer. Archived documents are immutable: a second archive
// attempt for the same invoice and format fails at the blob layer.
package documents

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"stillcore/internal/blob"
	"stillcore/pkg/domain"
)

// Format identifies a document rendering.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

func (f Format) contentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

func (f Format) extension() string { return string(f) }

// Document is the archival representation of an invoice, denormalized so the
// file stands alone without store access.
type Document struct {
	InvoiceID      int            `json:"invoice_id"`
	InvoiceDate    time.Time      `json:"invoice_date"`
	CustomerID     int            `json:"customer_id"`
	CustomerName   string         `json:"customer_name"`
	BillingAddress string         `json:"billing_address"`
	Lines          []DocumentLine `json:"lines"`
	Total          string         `json:"total"`
}

// DocumentLine is one product line on an archived invoice.
type DocumentLine struct {
	ProductID   int    `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	LineTotal   string `json:"line_total"`
	Unpriced    bool   `json:"unpriced,omitempty"`
}

// Artifact describes a stored document.
type Artifact struct {
	Key         string    `json:"key"`
	InvoiceID   int       `json:"invoice_id"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	ETag        string    `json:"etag,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditLogger records archive audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for document archives.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InvoiceID  int       `json:"invoice_id"`
	Format     Format    `json:"format"`
	Key        string    `json:"key,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// InvoiceSource resolves the invoice and its related names for rendering.
// Satisfied by any persistent store.
type InvoiceSource interface {
	GetInvoice(id int) (domain.Invoice, bool)
	GetCustomer(id int) (domain.Customer, bool)
	SpiritNames() map[int]string
}

// Archiver renders and stores invoice documents.
type Archiver struct {
	source InvoiceSource
	store  blob.Store
	audit  AuditLogger
}

// NewArchiver constructs a document archiver. audit may be nil.
func NewArchiver(source InvoiceSource, store blob.Store, audit AuditLogger) *Archiver {
	return &Archiver{source: source, store: store, audit: audit}
}

// Key returns the blob key for an invoice document.
func Key(invoiceID int, format Format) string {
	return fmt.Sprintf("invoices/%d/invoice.%s", invoiceID, format.extension())
}

// Archive renders the invoice in each requested format and stores the results.
// Defaults to JSON and CSV when no formats are given. Fails without partial
// cleanup if any format cannot be stored; already-stored formats remain.
func (a *Archiver) Archive(ctx context.Context, invoiceID int, formats ...Format) ([]Artifact, error) {
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	doc, err := a.buildDocument(invoiceID)
	if err != nil {
		a.record(ctx, AuditEntry{Action: "invoice_archive", InvoiceID: invoiceID, Error: err.Error()})
		return nil, err
	}
	artifacts := make([]Artifact, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, format := range formats {
		if _, duplicate := seen[format]; duplicate {
			continue
		}
		seen[format] = struct{}{}
		payload, err := render(doc, format)
		if err != nil {
			a.record(ctx, AuditEntry{Action: "invoice_archive", InvoiceID: invoiceID, Format: format, Error: err.Error()})
			return artifacts, err
		}
		key := Key(invoiceID, format)
		info, err := a.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: format.contentType(),
			Metadata: map[string]string{
				"invoice_id": strconv.Itoa(invoiceID),
				"format":     string(format),
			},
		})
		if err != nil {
			a.record(ctx, AuditEntry{Action: "invoice_archive", InvoiceID: invoiceID, Format: format, Key: key, Error: err.Error()})
			return artifacts, fmt.Errorf("store document %s: %w", key, err)
		}
		artifact := Artifact{
			Key:         info.Key,
			InvoiceID:   invoiceID,
			Format:      format,
			ContentType: info.ContentType,
			SizeBytes:   info.Size,
			ETag:        info.ETag,
			CreatedAt:   info.LastModified,
		}
		artifacts = append(artifacts, artifact)
		a.record(ctx, AuditEntry{Action: "invoice_archive", InvoiceID: invoiceID, Format: format, Key: key})
	}
	return artifacts, nil
}

// List returns the stored artifacts for an invoice, ordered by key.
func (a *Archiver) List(ctx context.Context, invoiceID int) ([]Artifact, error) {
	infos, err := a.store.List(ctx, fmt.Sprintf("invoices/%d/", invoiceID))
	if err != nil {
		return nil, err
	}
	out := make([]Artifact, 0, len(infos))
	for _, info := range infos {
		out = append(out, Artifact{
			Key:         info.Key,
			InvoiceID:   invoiceID,
			Format:      Format(info.Metadata["format"]),
			ContentType: info.ContentType,
			SizeBytes:   info.Size,
			ETag:        info.ETag,
			CreatedAt:   info.LastModified,
		})
	}
	return out, nil
}

// Fetch returns the rendered payload for a stored document.
func (a *Archiver) Fetch(ctx context.Context, invoiceID int, format Format) ([]byte, error) {
	_, rc, err := a.store.Get(ctx, Key(invoiceID, format))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

func (a *Archiver) buildDocument(invoiceID int) (Document, error) {
	invoice, ok := a.source.GetInvoice(invoiceID)
	if !ok {
		return Document{}, domain.ErrNotFound{Entity: domain.EntityInvoice, ID: invoiceID}
	}
	doc := Document{
		InvoiceID:      invoice.ID,
		InvoiceDate:    invoice.InvoiceDate,
		CustomerID:     invoice.CustomerID,
		BillingAddress: invoice.BillingAddress,
		Total:          invoice.Total.StringFixed(2),
	}
	if customer, ok := a.source.GetCustomer(invoice.CustomerID); ok {
		doc.CustomerName = customer.FirstName + " " + customer.LastName
	}
	names := a.source.SpiritNames()
	for _, line := range invoice.Lines {
		doc.Lines = append(doc.Lines, DocumentLine{
			ProductID:   line.ProductID,
			ProductName: names[line.ProductID],
			UnitPrice:   line.UnitPrice.StringFixed(2),
			Quantity:    line.Quantity,
			LineTotal:   line.LineTotal.StringFixed(2),
			Unpriced:    line.Unpriced,
		})
	}
	return doc, nil
}

func render(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		return payload, nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		header := []string{"product_id", "product_name", "unit_price", "quantity", "line_total"}
		if err := writer.Write(header); err != nil {
			return nil, err
		}
		for _, line := range doc.Lines {
			record := []string{
				strconv.Itoa(line.ProductID),
				line.ProductName,
				line.UnitPrice,
				strconv.Itoa(line.Quantity),
				line.LineTotal,
			}
			if err := writer.Write(record); err != nil {
				return nil, err
			}
		}
		if err := writer.Write([]string{"", "", "", "total", doc.Total}); err != nil {
			return nil, err
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported document format %s", format)
	}
}

func (a *Archiver) record(ctx context.Context, entry AuditEntry) {
	if a.audit == nil {
		return
	}
	entry.ID = newID()
	entry.OccurredAt = time.Now().UTC()
	a.audit.Record(ctx, entry)
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}

// MemoryAuditLog captures audit entries in-memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a defensive copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
