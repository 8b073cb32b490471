package core

import (
	"encoding/json"
	"strings"
	"testing"
)

const kanonPayload = `{
	"card_identifier": "PL!SP-bp1-001-R",
	"name": "Shibuya Kanon",
	"card_type": "Character",
	"groups": ["Love Live! Superstar!!"],
	"units": ["CatChu!"],
	"skills": ["常時 自分のステージにほかのメンバーがいない場合、自分はライブできない。"],
	"hearts": { "Red": 1, "Yellow": 1, "Purple": 3 },
	"image_url": "https://llofficial-cardgame.com/wordpress/wp-content/images/cardlist/BP01/PL!SP-bp1-001-R.png",
	"cost": 9,
	"blades": 3
}`

func TestDecodeNewCard_Character(t *testing.T) {
	card, err := DecodeNewCard([]byte(kanonPayload))
	if err != nil {
		t.Fatalf("DecodeNewCard() error = %v", err)
	}

	want := Identifier{Series: "PL!SP", Set: "bp1", Number: "001", Rarity: "R"}
	if card.Identifier != want {
		t.Errorf("Identifier = %+v, want %+v", card.Identifier, want)
	}
	if card.CardType != CardTypeCharacter {
		t.Errorf("CardType = %q, want Character", card.CardType)
	}
	if len(card.Skills) != 1 {
		t.Errorf("Skills = %v, want one skill", card.Skills)
	}

	spec, ok := card.Specifics.(CharacterSpecifics)
	if !ok {
		t.Fatalf("Specifics = %T, want CharacterSpecifics", card.Specifics)
	}
	if spec.Cost != 9 || spec.Blades != 3 || spec.BladeHeart != nil {
		t.Errorf("Specifics = %+v, want cost 9 blades 3 no blade heart", spec)
	}
	if spec.Hearts[HeartPurple] != 3 || spec.Hearts[HeartRed] != 1 || len(spec.Hearts) != 3 {
		t.Errorf("Hearts = %v", spec.Hearts)
	}
}

func TestDecodeNewCard_DefaultsOptionalLists(t *testing.T) {
	card, err := DecodeNewCard([]byte(`{
		"card_identifier": "PL!SP-bp1-013-N",
		"name": "Tang Keke",
		"card_type": "Character",
		"groups": ["Love Live! Superstar!!"],
		"hearts": { "Red": 1, "Yellow": 2, "Purple": 1 },
		"cost": 9,
		"blades": 3
	}`))
	if err != nil {
		t.Fatalf("DecodeNewCard() error = %v", err)
	}
	if card.Units == nil || len(card.Units) != 0 {
		t.Errorf("Units = %#v, want empty slice", card.Units)
	}
	if card.Skills == nil || len(card.Skills) != 0 {
		t.Errorf("Skills = %#v, want empty slice", card.Skills)
	}
	if card.ImageURL != nil {
		t.Errorf("ImageURL = %v, want nil", *card.ImageURL)
	}
}

func TestDecodeNewCard_Live(t *testing.T) {
	card, err := DecodeNewCard([]byte(`{
		"card_identifier": "PL!SP-bp1-023-L",
		"name": "START!! True dreams",
		"card_type": "Live",
		"groups": ["Love Live! Superstar!!"],
		"hearts": { "Red": 1, "Yellow": 1, "Purple": 1, "Gray": 1 },
		"score": 1,
		"special_heart": "Score"
	}`))
	if err != nil {
		t.Fatalf("DecodeNewCard() error = %v", err)
	}
	spec, ok := card.Specifics.(LiveSpecifics)
	if !ok {
		t.Fatalf("Specifics = %T, want LiveSpecifics", card.Specifics)
	}
	if spec.Score != 1 || spec.SpecialHeart == nil || *spec.SpecialHeart != SpecialScore {
		t.Errorf("Specifics = %+v", spec)
	}
	if spec.BladeHeart != nil {
		t.Errorf("BladeHeart = %v, want nil", *spec.BladeHeart)
	}
}

func TestDecodeNewCard_Energy(t *testing.T) {
	card, err := DecodeNewCard([]byte(`{
		"card_identifier": "PL!S-bp1-101-E",
		"name": "Energy",
		"card_type": "Energy",
		"groups": [],
		"hearts": {},
		"image_url": null
	}`))
	if err != nil {
		t.Fatalf("DecodeNewCard() error = %v", err)
	}
	if card.Specifics != nil {
		t.Errorf("Specifics = %#v, want nil", card.Specifics)
	}
	if len(card.Hearts()) != 0 {
		t.Errorf("Hearts() = %v, want empty", card.Hearts())
	}
}

func TestDecodeNewCard_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantMsg string
	}{
		{
			name: "malformed identifier",
			payload: `{"card_identifier": "PL!S-bp2-001", "name": "Takami Chika", "card_type": "Character",
				"groups": [], "hearts": {"Red": 1}, "cost": 1, "blades": 1}`,
			wantMsg: "field `card_identifier` must be in the format 'series-set-number-rarity'",
		},
		{
			name: "identifier with empty set",
			payload: `{"card_identifier": "PL!S--001-R", "name": "Takami Chika", "card_type": "Character",
				"groups": [], "hearts": {"Red": 1}, "cost": 1, "blades": 1}`,
			wantMsg: "field `card_identifier` must be in the format 'series-set-number-rarity'",
		},
		{
			name: "identifier with empty rarity",
			payload: `{"card_identifier": "PL!S-bp2-001-", "name": "Takami Chika", "card_type": "Character",
				"groups": [], "hearts": {"Red": 1}, "cost": 1, "blades": 1}`,
			wantMsg: "field `card_identifier` must be in the format 'series-set-number-rarity'",
		},
		{
			name: "live card with character fields",
			payload: `{"card_identifier": "PL!S-bp2-001-R", "name": "Takami Chika", "card_type": "Live",
				"groups": [], "hearts": {}, "cost": 1, "blades": 1}`,
			wantMsg: "Mismatch between `card_type` and the data provided in `type_specifics`",
		},
		{
			name: "live card with empty hearts",
			payload: `{"card_identifier": "PL!S-bp2-020-L", "name": "Mijuku DREAMER", "card_type": "Live",
				"groups": [], "hearts": {}, "score": 2}`,
			wantMsg: "at least one heart",
		},
		{
			name: "character card without hearts",
			payload: `{"card_identifier": "PL!S-bp2-001-R", "name": "Takami Chika", "card_type": "Character",
				"groups": [], "cost": 1, "blades": 1}`,
			wantMsg: "at least one heart",
		},
		{
			name: "energy card with specifics",
			payload: `{"card_identifier": "PL!S-bp1-101-E", "name": "Energy", "card_type": "Energy",
				"groups": [], "hearts": {}, "cost": 1, "blades": 1}`,
			wantMsg: "Mismatch between",
		},
		{
			name: "energy card with hearts",
			payload: `{"card_identifier": "PL!S-bp1-101-E", "name": "Energy", "card_type": "Energy",
				"groups": [], "hearts": {"Red": 1}}`,
			wantMsg: "must be empty for Energy cards",
		},
		{
			name: "character card missing blades",
			payload: `{"card_identifier": "PL!S-bp2-001-R", "name": "Takami Chika", "card_type": "Character",
				"groups": [], "hearts": {"Red": 1}, "cost": 1}`,
			wantMsg: "Mismatch between",
		},
		{
			name: "unknown heart color",
			payload: `{"card_identifier": "PL!S-bp2-001-R", "name": "Takami Chika", "card_type": "Character",
				"groups": [], "hearts": {"Orange": 1}, "cost": 1, "blades": 1}`,
			wantMsg: "unknown color",
		},
		{
			name: "negative heart count",
			payload: `{"card_identifier": "PL!S-bp2-001-R", "name": "Takami Chika", "card_type": "Character",
				"groups": [], "hearts": {"Red": -1}, "cost": 1, "blades": 1}`,
			wantMsg: "non-negative",
		},
		{
			name: "unknown card type",
			payload: `{"card_identifier": "PL!S-bp2-001-R", "name": "Takami Chika", "card_type": "Spell",
				"groups": [], "hearts": {"Red": 1}}`,
			wantMsg: "card_type",
		},
		{
			name:    "wrong field type",
			payload: `{"card_identifier": 12}`,
			wantMsg: "failed to parse request payload",
		},
		{
			name:    "not json",
			payload: `{"card_identifier": `,
			wantMsg: "failed to parse request payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeNewCard([]byte(tt.payload))
			if err == nil {
				t.Fatal("DecodeNewCard() expected error")
			}
			if !IsValidation(err) {
				t.Errorf("error type = %T, want *ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestDecodeNewCard_Slice(t *testing.T) {
	var cards []NewCard
	err := json.Unmarshal([]byte(`[`+kanonPayload+`, {"card_identifier": "bad"}]`), &cards)
	if err == nil || !IsValidation(err) {
		t.Fatalf("Unmarshal() error = %v, want *ValidationError", err)
	}
}

func TestNewCard_JSONRoundTrip(t *testing.T) {
	card, err := DecodeNewCard([]byte(kanonPayload))
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(card)
	if err != nil {
		t.Fatal(err)
	}
	again, err := DecodeNewCard(data)
	if err != nil {
		t.Fatalf("re-decode error = %v (%s)", err, data)
	}
	if again.Identifier != card.Identifier || again.Name != card.Name {
		t.Errorf("round trip changed the card: %+v vs %+v", again, card)
	}
}

func TestNewCard_ValidateProgrammatic(t *testing.T) {
	base := NewCard{
		Identifier: Identifier{Series: "PL!SP", Set: "bp1", Number: "001", Rarity: "R"},
		Name:       "Shibuya Kanon",
		CardType:   CardTypeCharacter,
		Specifics:  LiveSpecifics{Score: 1, Hearts: Hearts{HeartRed: 1}},
	}
	if err := base.Validate(); err == nil || !strings.Contains(err.Error(), "Mismatch") {
		t.Errorf("Validate() = %v, want mismatch", err)
	}

	base.CardType = CardTypeEnergy
	if err := base.Validate(); err == nil {
		t.Error("Validate() accepted Energy card with specifics")
	}

	bad := BladeHeartColor("Gray")
	base.CardType = CardTypeCharacter
	base.Specifics = CharacterSpecifics{Cost: 1, Blades: 1, BladeHeart: &bad, Hearts: Hearts{HeartRed: 1}}
	if err := base.Validate(); err == nil || !strings.Contains(err.Error(), "blade_heart") {
		t.Errorf("Validate() = %v, want blade_heart error", err)
	}
}

func TestFullCard_MarshalJSON(t *testing.T) {
	blade := BladeAll
	card := FullCard{
		ID:          1,
		SeriesCode:  "PL!SP",
		SetCode:     "bp1",
		NumberInSet: "001",
		Name:        "Shibuya Kanon",
		CardType:    CardTypeCharacter,
		SetName:     "Booster Pack vol.1",
		Groups:      []string{"Love Live! Superstar!!"},
		Specifics:   CharacterSpecifics{Cost: 9, Blades: 3, BladeHeart: &blade, Hearts: Hearts{HeartRed: 1}},
	}
	data, err := json.Marshal(card)
	if err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["cost"] != float64(9) || out["blades"] != float64(3) || out["blade_heart"] != "All" {
		t.Errorf("specifics not flattened: %s", data)
	}
	if _, ok := out["score"]; ok {
		t.Errorf("character card should not carry score: %s", data)
	}
	if units, ok := out["units"].([]any); !ok || len(units) != 0 {
		t.Errorf("units = %v, want empty array", out["units"])
	}

	var back FullCard
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	spec, ok := back.Specifics.(CharacterSpecifics)
	if !ok || spec.Cost != 9 || back.Hearts()[HeartRed] != 1 {
		t.Errorf("decoded = %+v", back)
	}
}

func TestFullCard_EnergyHasNoSpecifics(t *testing.T) {
	data, err := json.Marshal(FullCard{ID: 2, CardType: CardTypeEnergy})
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, field := range []string{`"cost"`, `"blades"`, `"score"`, `"special_heart"`} {
		if strings.Contains(s, field) {
			t.Errorf("energy card JSON contains %s: %s", field, s)
		}
	}
	if !strings.Contains(s, `"hearts":{}`) {
		t.Errorf("energy card JSON should carry empty hearts: %s", s)
	}
}

func TestNewCard_ValidateRejectsPartialIdentifier(t *testing.T) {
	full := Identifier{Series: "PL!SP", Set: "bp1", Number: "001", Rarity: "R"}
	tests := []struct {
		name string
		edit func(*Identifier)
	}{
		{"empty series", func(id *Identifier) { id.Series = "" }},
		{"empty set", func(id *Identifier) { id.Set = "" }},
		{"empty number", func(id *Identifier) { id.Number = "" }},
		{"empty rarity", func(id *Identifier) { id.Rarity = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := full
			tt.edit(&id)
			card := NewCard{
				Identifier: id,
				Name:       "Shibuya Kanon",
				CardType:   CardTypeCharacter,
				Specifics:  CharacterSpecifics{Cost: 9, Blades: 3, Hearts: Hearts{HeartRed: 1}},
			}
			err := card.Validate()
			if err == nil {
				t.Fatal("Validate() accepted a partial identifier")
			}
			if got := MapError(err).Code; got != "VAL001" {
				t.Errorf("MapError() code = %q, want VAL001 (%v)", got, err)
			}
		})
	}
}
