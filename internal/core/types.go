package core

import (
	"fmt"
	"sort"
)

// CardType is the structural kind of a card.
type CardType string

const (
	CardTypeCharacter CardType = "Character"
	CardTypeLive      CardType = "Live"
	CardTypeEnergy    CardType = "Energy"
)

// Valid reports whether t is a known card type.
func (t CardType) Valid() bool {
	switch t {
	case CardTypeCharacter, CardTypeLive, CardTypeEnergy:
		return true
	}
	return false
}

// RarityType classifies a rarity code. Unmapped codes are Regular.
type RarityType string

const (
	RarityRegular  RarityType = "Regular"
	RarityParallel RarityType = "Parallel"
)

func (t RarityType) Valid() bool {
	return t == RarityRegular || t == RarityParallel
}

// HeartColor is a heart-cost color.
type HeartColor string

const (
	HeartPink   HeartColor = "Pink"
	HeartRed    HeartColor = "Red"
	HeartYellow HeartColor = "Yellow"
	HeartGreen  HeartColor = "Green"
	HeartBlue   HeartColor = "Blue"
	HeartPurple HeartColor = "Purple"
	HeartGray   HeartColor = "Gray"
)

func (c HeartColor) Valid() bool {
	switch c {
	case HeartPink, HeartRed, HeartYellow, HeartGreen, HeartBlue, HeartPurple, HeartGray:
		return true
	}
	return false
}

// BladeHeartColor is the color of a blade heart. All matches any color.
type BladeHeartColor string

const (
	BladePink   BladeHeartColor = "Pink"
	BladeRed    BladeHeartColor = "Red"
	BladeYellow BladeHeartColor = "Yellow"
	BladeGreen  BladeHeartColor = "Green"
	BladeBlue   BladeHeartColor = "Blue"
	BladePurple BladeHeartColor = "Purple"
	BladeAll    BladeHeartColor = "All"
)

func (c BladeHeartColor) Valid() bool {
	switch c {
	case BladePink, BladeRed, BladeYellow, BladeGreen, BladeBlue, BladePurple, BladeAll:
		return true
	}
	return false
}

// SpecialHeart is the special heart printed on some live cards.
type SpecialHeart string

const (
	SpecialDraw  SpecialHeart = "Draw"
	SpecialScore SpecialHeart = "Score"
)

func (s SpecialHeart) Valid() bool {
	return s == SpecialDraw || s == SpecialScore
}

// Hearts is a heart-cost allocation: color to count.
type Hearts map[HeartColor]int64

// Colors returns the declared colors in a stable order.
func (h Hearts) Colors() []HeartColor {
	colors := make([]HeartColor, 0, len(h))
	for c := range h {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool { return colors[i] < colors[j] })
	return colors
}

func (h Hearts) validate() error {
	for _, c := range h.Colors() {
		if !c.Valid() {
			return NewValidationErrorKind(KindUnknownValue, "hearts", fmt.Sprintf("has unknown color %q", c))
		}
		if h[c] < 0 {
			return NewValidationErrorKind(KindHearts, "hearts", fmt.Sprintf("count for %s must be non-negative", c))
		}
	}
	return nil
}

// Specifics is the type-dependent part of a card. The only implementations
// are CharacterSpecifics and LiveSpecifics; Energy cards have none.
type Specifics interface {
	CardType() CardType
	HeartAllocation() Hearts
	validate() error
}

// CharacterSpecifics are the attributes of a Character card.
type CharacterSpecifics struct {
	Cost       int64
	Blades     int64
	BladeHeart *BladeHeartColor
	Hearts     Hearts
}

func (CharacterSpecifics) CardType() CardType        { return CardTypeCharacter }
func (s CharacterSpecifics) HeartAllocation() Hearts { return s.Hearts }

func (s CharacterSpecifics) validate() error {
	if s.BladeHeart != nil && !s.BladeHeart.Valid() {
		return NewValidationErrorKind(KindUnknownValue, "blade_heart", fmt.Sprintf("has unknown color %q", *s.BladeHeart))
	}
	return nil
}

// LiveSpecifics are the attributes of a Live card.
type LiveSpecifics struct {
	Score        int64
	BladeHeart   *BladeHeartColor
	SpecialHeart *SpecialHeart
	Hearts       Hearts
}

func (LiveSpecifics) CardType() CardType        { return CardTypeLive }
func (s LiveSpecifics) HeartAllocation() Hearts { return s.Hearts }

func (s LiveSpecifics) validate() error {
	if s.BladeHeart != nil && !s.BladeHeart.Valid() {
		return NewValidationErrorKind(KindUnknownValue, "blade_heart", fmt.Sprintf("has unknown color %q", *s.BladeHeart))
	}
	if s.SpecialHeart != nil && !s.SpecialHeart.Valid() {
		return NewValidationErrorKind(KindUnknownValue, "special_heart", fmt.Sprintf("has unknown value %q", *s.SpecialHeart))
	}
	return nil
}

const mismatchMsg = "Mismatch between `card_type` and the data provided in `type_specifics`"

// NewCard is a validated creation payload.
type NewCard struct {
	Identifier Identifier
	Name       string
	CardType   CardType
	Groups     []string
	Units      []string
	Skills     []string
	ImageURL   *string
	Specifics  Specifics // nil for Energy
}

// Hearts returns the card's heart allocation, empty for Energy cards.
func (c NewCard) Hearts() Hearts {
	if c.Specifics == nil {
		return Hearts{}
	}
	return c.Specifics.HeartAllocation()
}

// Validate checks the payload without touching storage. The card type must
// agree with the specifics variant, and Character and Live cards must
// declare at least one heart.
func (c NewCard) Validate() error {
	if !c.CardType.Valid() {
		return NewValidationErrorKind(KindUnknownValue, "card_type", fmt.Sprintf("has unknown value %q", c.CardType))
	}
	if !c.Identifier.Complete() {
		return NewValidationErrorKind(KindIdentifier, "card_identifier", identifierFormatMsg)
	}
	if c.Name == "" {
		return NewValidationError("name", "is required")
	}

	switch c.CardType {
	case CardTypeEnergy:
		if c.Specifics != nil {
			return NewValidationErrorKind(KindTypeMismatch, "", mismatchMsg)
		}
		return nil
	default:
		if c.Specifics == nil || c.Specifics.CardType() != c.CardType {
			return NewValidationErrorKind(KindTypeMismatch, "", mismatchMsg)
		}
	}

	hearts := c.Specifics.HeartAllocation()
	if len(hearts) == 0 {
		return NewValidationErrorKind(KindHearts, "hearts", fmt.Sprintf("must declare at least one heart for %s cards", c.CardType))
	}
	if err := hearts.validate(); err != nil {
		return err
	}
	return c.Specifics.validate()
}

// Printing is one physical printing of a card.
type Printing struct {
	ID         int64      `json:"id"`
	CardID     int64      `json:"card_id"`
	RarityCode string     `json:"rarity_code"`
	RarityType RarityType `json:"rarity_type"`
	ImageURL   *string    `json:"image_url"`
}

// Set is a card set.
type Set struct {
	SetCode string `json:"set_code"`
	Name    string `json:"name"`
}

// FullCard is the aggregate view of one card across every catalog table.
type FullCard struct {
	ID          int64
	SeriesCode  string
	SetCode     string
	NumberInSet string
	Name        string
	CardType    CardType
	SetName     string
	Groups      []string
	Units       []string
	Skills      []string
	Printings   []Printing
	Specifics   Specifics // nil for Energy
}

// Hearts returns the card's heart allocation.
func (c FullCard) Hearts() Hearts {
	if c.Specifics == nil || c.Specifics.HeartAllocation() == nil {
		return Hearts{}
	}
	return c.Specifics.HeartAllocation()
}
