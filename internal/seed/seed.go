// Package seed loads reference data and cards from a YAML document.
//
//	sets:
//	  - set_code: bp1
//	    name: Booster Pack vol.1
//	groups: [Liella!]
//	units: [CatChu!]
//	rarities:
//	  SEC+: Parallel
//	name_variants:
//	  Kanon Shibuya: Shibuya Kanon
//	group_variants:
//	  Superstar: Liella!
//	cards:
//	  - card_identifier: PL!SP-bp1-001-R
//	    name: Shibuya Kanon
//	    card_type: Character
//	    ...
//
// Cards use the same field names as the HTTP payload.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/llocg/internal/core"
)

// SetEntry is one set in a seed file.
type SetEntry struct {
	SetCode string `yaml:"set_code"`
	Name    string `yaml:"name"`
}

// File is a parsed seed document.
type File struct {
	Sets          []SetEntry        `yaml:"sets"`
	Groups        []string          `yaml:"groups"`
	Units         []string          `yaml:"units"`
	Rarities      map[string]string `yaml:"rarities"`
	NameVariants  map[string]string `yaml:"name_variants"`
	GroupVariants map[string]string `yaml:"group_variants"`
	Cards         []core.NewCard    `yaml:"-"`
}

// rawFile defers card decoding so cards go through the JSON payload rules.
type rawFile struct {
	File  `yaml:",inline"`
	Cards []map[string]any `yaml:"cards"`
}

// Catalog is the subset of core.Service the seeder writes through.
type Catalog interface {
	AddSet(ctx context.Context, set core.Set) error
	AddGroup(ctx context.Context, name string) error
	AddUnit(ctx context.Context, name string) error
	AddRarity(ctx context.Context, code string, t core.RarityType) error
	AddNameVariant(ctx context.Context, variant, canonical string) error
	AddGroupVariant(ctx context.Context, variant, canonical string) error
	CreateCards(ctx context.Context, cards []core.NewCard) ([]core.FullCard, error)
}

// Report counts what Apply did per table.
type Report struct {
	Added   map[string]int
	Skipped map[string]int
	Cards   int
}

func newReport() Report {
	return Report{Added: map[string]int{}, Skipped: map[string]int{}}
}

// LoadFile reads and parses the seed document at path.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	file, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Parse decodes a seed document. Unknown top-level keys are rejected and
// every card is validated like an HTTP payload.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var raw rawFile
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}

	file := raw.File
	for i, m := range raw.Cards {
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}
		card, err := core.DecodeNewCard(data)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}
		file.Cards = append(file.Cards, card)
	}
	return &file, nil
}

// Apply writes the reference data and then the cards. Entries that already
// exist are counted as skipped. Cards are created in a single batch.
func Apply(ctx context.Context, c Catalog, f *File) (Report, error) {
	rep := newReport()

	for _, s := range f.Sets {
		err := c.AddSet(ctx, core.Set{SetCode: s.SetCode, Name: s.Name})
		if err := rep.record(core.TableSets, err); err != nil {
			return rep, fmt.Errorf("set %s: %w", s.SetCode, err)
		}
	}
	for _, g := range f.Groups {
		if err := rep.record(core.TableGroups, c.AddGroup(ctx, g)); err != nil {
			return rep, fmt.Errorf("group %s: %w", g, err)
		}
	}
	for _, u := range f.Units {
		if err := rep.record(core.TableUnits, c.AddUnit(ctx, u)); err != nil {
			return rep, fmt.Errorf("unit %s: %w", u, err)
		}
	}
	for _, code := range sortedKeys(f.Rarities) {
		err := c.AddRarity(ctx, code, core.RarityType(f.Rarities[code]))
		if err := rep.record(core.TableRarities, err); err != nil {
			return rep, fmt.Errorf("rarity %s: %w", code, err)
		}
	}
	for _, v := range sortedKeys(f.NameVariants) {
		err := c.AddNameVariant(ctx, v, f.NameVariants[v])
		if err := rep.record(core.TableNameVariants, err); err != nil {
			return rep, fmt.Errorf("name variant %s: %w", v, err)
		}
	}
	for _, v := range sortedKeys(f.GroupVariants) {
		err := c.AddGroupVariant(ctx, v, f.GroupVariants[v])
		if err := rep.record(core.TableGroupVariants, err); err != nil {
			return rep, fmt.Errorf("group variant %s: %w", v, err)
		}
	}

	if len(f.Cards) > 0 {
		created, err := c.CreateCards(ctx, f.Cards)
		if err != nil {
			return rep, fmt.Errorf("create cards: %w", err)
		}
		rep.Cards = len(created)
	}

	slog.Info("seed applied", "added", rep.Added, "skipped", rep.Skipped, "cards", rep.Cards)
	return rep, nil
}

// record counts err against table and returns it only when it is fatal.
func (r Report) record(table string, err error) error {
	switch {
	case err == nil:
		r.Added[table]++
		return nil
	case core.IsConflict(err):
		r.Skipped[table]++
		return nil
	default:
		return err
	}
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
