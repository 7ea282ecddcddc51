package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestCLISeedsAndPrintsSummary(t *testing.T) {
	t.Setenv("STILLCORE_STORAGE_DRIVER", "memory")

	var stdout, stderr bytes.Buffer
	code := cli([]string{"-seed"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"seeded sample dataset", "Whiskey", "Charlie Bucket", "98.43"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLIArchivesInvoice(t *testing.T) {
	t.Setenv("STILLCORE_STORAGE_DRIVER", "memory")
	t.Setenv("STILLCORE_BLOB_DRIVER", "memory")

	var stdout, stderr bytes.Buffer
	code := cli([]string{"-seed", "-archive-invoice", "1"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "archived invoices/1/invoice.json") || !strings.Contains(out, "archived invoices/1/invoice.csv") {
		t.Fatalf("archive output missing:\n%s", out)
	}
}

func TestCLIRejectsUnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-definitely-not-a-flag"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 for bad flags, got %d", code)
	}
}

func TestCLIFailsOnUnknownInvoice(t *testing.T) {
	t.Setenv("STILLCORE_STORAGE_DRIVER", "memory")
	t.Setenv("STILLCORE_BLOB_DRIVER", "memory")

	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-archive-invoice", "42"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "archive invoice 42") {
		t.Fatalf("stderr missing context: %s", stderr.String())
	}
}
