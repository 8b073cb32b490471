package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/llocg/internal/core"
)

const sample = `
sets:
  - set_code: bp1
    name: Booster Pack vol.1
groups: [Liella!]
units: [CatChu!, KALEIDOSCORE]
rarities:
  SEC+: Parallel
  P: Parallel
name_variants:
  Kanon Shibuya: Shibuya Kanon
group_variants:
  Superstar: Liella!
cards:
  - card_identifier: PL!SP-bp1-001-R
    name: Shibuya Kanon
    card_type: Character
    groups: [Liella!]
    units: [CatChu!]
    hearts: {Red: 1, Yellow: 1, Purple: 3}
    cost: 9
    blades: 3
  - card_identifier: PL!SP-bp1-101-E
    name: Energy
    card_type: Energy
`

type stubCatalog struct {
	existing map[string]bool
	calls    []string
	cards    []core.NewCard
	failOn   string
}

func (s *stubCatalog) add(table, key string) error {
	s.calls = append(s.calls, table+":"+key)
	if s.failOn == key {
		return errors.New("connection refused")
	}
	if s.existing[table+":"+key] {
		return core.Conflict(table, key)
	}
	return nil
}

func (s *stubCatalog) AddSet(_ context.Context, set core.Set) error {
	return s.add(core.TableSets, set.SetCode)
}
func (s *stubCatalog) AddGroup(_ context.Context, name string) error {
	return s.add(core.TableGroups, name)
}
func (s *stubCatalog) AddUnit(_ context.Context, name string) error {
	return s.add(core.TableUnits, name)
}
func (s *stubCatalog) AddRarity(_ context.Context, code string, _ core.RarityType) error {
	return s.add(core.TableRarities, code)
}
func (s *stubCatalog) AddNameVariant(_ context.Context, variant, _ string) error {
	return s.add(core.TableNameVariants, variant)
}
func (s *stubCatalog) AddGroupVariant(_ context.Context, variant, _ string) error {
	return s.add(core.TableGroupVariants, variant)
}
func (s *stubCatalog) CreateCards(_ context.Context, cards []core.NewCard) ([]core.FullCard, error) {
	s.cards = cards
	return make([]core.FullCard, len(cards)), nil
}

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(f.Sets) != 1 || f.Sets[0].SetCode != "bp1" {
		t.Errorf("Sets = %+v", f.Sets)
	}
	if len(f.Units) != 2 || f.Rarities["SEC+"] != "Parallel" {
		t.Errorf("Units = %v, Rarities = %v", f.Units, f.Rarities)
	}
	if len(f.Cards) != 2 {
		t.Fatalf("Cards = %d, want 2", len(f.Cards))
	}
	spec, ok := f.Cards[0].Specifics.(core.CharacterSpecifics)
	if !ok || spec.Hearts[core.HeartPurple] != 3 {
		t.Errorf("first card specifics = %#v", f.Cards[0].Specifics)
	}
	if f.Cards[1].CardType != core.CardTypeEnergy || f.Cards[1].Specifics != nil {
		t.Errorf("second card = %+v", f.Cards[1])
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "colours: [Red]\n", "colours"},
		{"bad identifier", "cards:\n  - card_identifier: nope\n    name: X\n    card_type: Energy\n", "card 0"},
		{"type mismatch", "cards:\n  - card_identifier: A-b-1-R\n    name: X\n    card_type: Live\n    score: 1\n    cost: 2\n    hearts: {Red: 1}\n", "card 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestParseEmptyDocument(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse(\"\") error = %v", err)
	}
	if len(f.Cards) != 0 || len(f.Sets) != 0 {
		t.Errorf("empty document produced %+v", f)
	}
}

func TestApply(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	cat := &stubCatalog{existing: map[string]bool{"units:CatChu!": true}}

	rep, err := Apply(context.Background(), cat, f)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if rep.Added[core.TableUnits] != 1 || rep.Skipped[core.TableUnits] != 1 {
		t.Errorf("units added/skipped = %d/%d, want 1/1", rep.Added[core.TableUnits], rep.Skipped[core.TableUnits])
	}
	if rep.Added[core.TableRarities] != 2 {
		t.Errorf("rarities added = %d, want 2", rep.Added[core.TableRarities])
	}
	if rep.Cards != 2 || len(cat.cards) != 2 {
		t.Errorf("cards = %d (catalog saw %d), want 2", rep.Cards, len(cat.cards))
	}

	// Sets before groups before units; map-backed tables in key order.
	wantPrefix := []string{"sets:bp1", "groups:Liella!", "units:CatChu!", "units:KALEIDOSCORE", "rarities:P", "rarities:SEC+"}
	for i, w := range wantPrefix {
		if cat.calls[i] != w {
			t.Errorf("call %d = %q, want %q", i, cat.calls[i], w)
		}
	}
}

func TestApplyStopsOnStorageError(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	cat := &stubCatalog{failOn: "Liella!"}

	_, err = Apply(context.Background(), cat, f)
	if err == nil || !strings.Contains(err.Error(), "group Liella!") {
		t.Fatalf("Apply() error = %v, want group failure", err)
	}
	if cat.cards != nil {
		t.Error("cards were created after a reference failure")
	}
}

func TestLoadFileExample(t *testing.T) {
	f, err := LoadFile("testdata/example.yaml")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(f.Cards) != 2 || f.Cards[1].CardType != core.CardTypeLive {
		t.Errorf("Cards = %+v", f.Cards)
	}
	if f.GroupVariants["Liella!"] != "Love Live! Superstar!!" {
		t.Errorf("GroupVariants = %v", f.GroupVariants)
	}

	if _, err := LoadFile("testdata/missing.yaml"); err == nil {
		t.Error("LoadFile() of a missing file should fail")
	}
}
