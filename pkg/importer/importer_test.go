package importer

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliador/pkg/models"
	"github.com/yurifrl/conciliador/pkg/parser"
)

func newImporter() *Importer {
	logger := log.New(io.Discard)
	return New(logger, parser.New(logger, nil))
}

func TestImport(t *testing.T) {
	content := []byte("Fecha,Detalle,Monto\n17/03/2025, Supermercado ,\"$1.234,56\"\n31/02/2025,Bad date,10\n26/03/2025,Sueldo,1000\n")

	b, err := newImporter().Import(File{Name: "march.csv", Data: content})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if b.ID == "" || b.Format != "generic" || b.File != "march.csv" {
		t.Errorf("unexpected batch metadata %+v", b)
	}
	if b.Skipped != 1 {
		t.Errorf("expected 1 skipped row, got %d", b.Skipped)
	}
	if len(b.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(b.Transactions))
	}

	first := b.Transactions[0]
	if !first.Date.Equal(time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %s", first.Date)
	}
	if first.Detail != "Supermercado" || first.Amount.String() != "1234.56" {
		t.Errorf("unexpected transaction %+v", first)
	}
	for _, tx := range b.Transactions {
		if tx.Category != models.PendingCategory || tx.Status() != models.StatusPending {
			t.Errorf("expected pending transaction, got %+v", tx)
		}
		if tx.Bank != "Importado" {
			t.Errorf("unexpected bank %q", tx.Bank)
		}
	}
	if p, _ := b.Transactions[1].Period(); p.String() != "2025-04" {
		t.Errorf("expected 2025-04 period, got %s", p)
	}
}

func TestImportIsDeterministic(t *testing.T) {
	content := []byte("Fecha;Detalle;Monto\n01/03/2025;A;-1\n02/03/2025;B;-2\n")
	imp := newImporter()

	a, err := imp.Import(File{Name: "a.csv", Data: content})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	b, err := imp.Import(File{Name: "a.csv", Data: content})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if a.ID == b.ID {
		t.Error("batches should get distinct IDs")
	}
	for i := range a.Transactions {
		if a.Transactions[i].Key() != b.Transactions[i].Key() {
			t.Errorf("row %d differs between imports", i)
		}
	}
}

func TestImportErrors(t *testing.T) {
	imp := newImporter()
	if _, err := imp.Import(File{Name: "a.docx", Data: []byte("x")}); !errors.Is(err, parser.ErrUnrecognizedSource) {
		t.Errorf("expected ErrUnrecognizedSource, got %v", err)
	}
	if _, err := imp.Import(File{Name: "a.csv", Data: []byte("Foo,Bar\n1,2\n")}); !errors.Is(err, parser.ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
}
