// Package seed reads the bulk-import document that populates the template
// catalog and the current month:
//
//	income: "4319.38"
//	categories:
//	  - name: House Expenses
//	    recurring:
//	      - {name: Rent, amount: "675.00"}
//	  - name: Food
//
// A group with recurring items becomes one template per item, labelled with
// the group name. A group without items becomes a plain category.
package seed

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"budget/internal/core"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type (
	Item struct {
		Name   string
		Amount decimal.Decimal
		Notes  string
	}

	Group struct {
		Name  string
		Items []Item
	}

	Document struct {
		// Income is nil when the document does not set one.
		Income *decimal.Decimal
		Groups []Group
	}
)

type rawItem struct {
	Name   string `mapstructure:"name"`
	Amount string `mapstructure:"amount"`
	Notes  string `mapstructure:"notes"`
}

type rawGroup struct {
	Name      string    `mapstructure:"name"`
	Recurring []rawItem `mapstructure:"recurring"`
}

type rawDocument struct {
	Income     string     `mapstructure:"income"`
	Categories []rawGroup `mapstructure:"categories"`
}

// Load reads a seed document from a YAML, JSON or TOML file, chosen by
// extension.
func Load(path string) (Document, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Document{}, fmt.Errorf("read seed file: %w", err)
	}
	return decode(v)
}

// Parse reads a seed document of the given format ("yaml", "json", "toml").
func Parse(r io.Reader, format string) (Document, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return Document{}, fmt.Errorf("read seed document: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (Document, error) {
	var raw rawDocument
	if err := v.Unmarshal(&raw); err != nil {
		return Document{}, fmt.Errorf("decode seed document: %w", err)
	}
	return raw.validate()
}

// validate converts the raw document, collecting every problem.
func (raw rawDocument) validate() (Document, error) {
	var (
		doc  Document
		errs []error
	)

	if s := strings.TrimSpace(raw.Income); s != "" {
		d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
		if err == nil {
			_, err = core.IncomeFromDecimal("income", d)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("income: %w", err))
		} else {
			doc.Income = &d
		}
	}

	groups := make(map[string]bool)
	items := make(map[string]bool)
	for i, rg := range raw.Categories {
		name, err := core.ValidateName("name", rg.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("categories[%d]: %w", i, err))
			continue
		}
		if groups[name] {
			errs = append(errs, fmt.Errorf("categories[%d]: duplicate category %q", i, name))
			continue
		}
		groups[name] = true

		g := Group{Name: name}
		for j, ri := range rg.Recurring {
			itemName, err := core.ValidateName("name", ri.Name)
			if err != nil {
				errs = append(errs, fmt.Errorf("categories[%d].recurring[%d]: %w", i, j, err))
				continue
			}
			if items[itemName] {
				errs = append(errs, fmt.Errorf("categories[%d].recurring[%d]: duplicate item %q", i, j, itemName))
				continue
			}
			items[itemName] = true

			amount, err := core.ParseAmount(ri.Amount)
			if err != nil {
				errs = append(errs, fmt.Errorf("categories[%d].recurring[%d]: %w", i, j, err))
				continue
			}
			g.Items = append(g.Items, Item{Name: itemName, Amount: amount.Decimal(), Notes: ri.Notes})
		}
		doc.Groups = append(doc.Groups, g)
	}

	if len(errs) > 0 {
		return Document{}, fmt.Errorf("invalid seed document: %w", errors.Join(errs...))
	}
	return doc, nil
}
