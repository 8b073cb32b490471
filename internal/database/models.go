package database

// Card is a row of the cards table.
type Card struct {
	ID          int64
	SeriesCode  string
	SetCode     string
	NumberInSet string
	NameID      int64
	CardType    string
}

// Set is a row of the sets table.
type Set struct {
	SetCode string
	Name    string
}

// CharacterCard is a row of character_cards.
type CharacterCard struct {
	CardID     int64
	Cost       int64
	Blades     int64
	BladeHeart *string
}

// LiveCard is a row of live_cards.
type LiveCard struct {
	CardID       int64
	Score        int64
	BladeHeart   *string
	SpecialHeart *string
}

// Printing is a row of printings.
type Printing struct {
	ID         int64
	CardID     int64
	RarityCode string
	RarityType string
	ImageURL   *string
}

// CardHeart is a row of card_hearts.
type CardHeart struct {
	Color string
	Count int64
}

// Mapping is one key/value row of rarities, name_variants or group_variants.
type Mapping struct {
	Key   string
	Value string
}
