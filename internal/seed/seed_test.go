package seed

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

const sampleYAML = `
income: "4319.38"
categories:
  - name: House Expenses
    recurring:
      - name: Rent
        amount: "675.00"
      - name: Internet
        amount: 29.9
  - name: Food
`

func TestParse_YAML(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleYAML), "yaml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if doc.Income == nil || !doc.Income.Equal(decimal.RequireFromString("4319.38")) {
		t.Errorf("Income = %v, want 4319.38", doc.Income)
	}
	if len(doc.Groups) != 2 {
		t.Fatalf("Groups = %d, want 2", len(doc.Groups))
	}

	house := doc.Groups[0]
	if house.Name != "House Expenses" || len(house.Items) != 2 {
		t.Fatalf("first group = %+v", house)
	}
	if !house.Items[1].Amount.Equal(decimal.RequireFromString("29.90")) {
		t.Errorf("Internet amount = %s, want 29.90", house.Items[1].Amount)
	}
	if len(doc.Groups[1].Items) != 0 {
		t.Errorf("Food should have no recurring items")
	}
}

func TestParse_JSONWithoutIncome(t *testing.T) {
	doc, err := Parse(strings.NewReader(`{"categories":[{"name":"Fun"}]}`), "json")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Income != nil {
		t.Errorf("Income = %v, want nil", doc.Income)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		wantMsg string
	}{
		{
			name:    "too many decimals",
			doc:     "categories:\n  - name: A\n    recurring:\n      - {name: X, amount: \"1.234\"}\n",
			wantErr: core.ErrInvalidPrecision,
		},
		{
			name:    "non-positive amount",
			doc:     "categories:\n  - name: A\n    recurring:\n      - {name: X, amount: \"0\"}\n",
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "missing group name",
			doc:     "categories:\n  - recurring: []\n",
			wantErr: core.ErrEmptyName,
		},
		{
			name:    "duplicate item",
			doc:     "categories:\n  - name: A\n    recurring:\n      - {name: X, amount: \"1\"}\n  - name: B\n    recurring:\n      - {name: X, amount: \"2\"}\n",
			wantMsg: "duplicate item",
		},
		{
			name:    "negative income",
			doc:     "income: \"-5\"\ncategories: []\n",
			wantErr: core.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc), "yaml")
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(doc.Groups) != 2 {
		t.Errorf("Groups = %d, want 2", len(doc.Groups))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}
