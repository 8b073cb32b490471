package core

import "strings"

// identifierFormatMsg is returned for every malformed card identifier.
const identifierFormatMsg = "must be in the format 'series-set-number-rarity'"

// Identifier is a card identifier split into its parts.
//
//	PL!SP-bp1-001-R -> {Series: "PL!SP", Set: "bp1", Number: "001", Rarity: "R"}
type Identifier struct {
	Series string
	Set    string
	Number string
	Rarity string
}

// String reassembles the identifier.
func (id Identifier) String() string {
	return id.Series + "-" + id.Set + "-" + id.Number + "-" + id.Rarity
}

// Complete reports whether every segment is non-empty.
func (id Identifier) Complete() bool {
	return id.Series != "" && id.Set != "" && id.Number != "" && id.Rarity != ""
}

// ParseIdentifier splits a card identifier. The rarity is taken from the
// right of the last hyphen; the rest must split into exactly series, set and
// number at its first two hyphens. Any remaining hyphens stay in the number.
func ParseIdentifier(s string) (Identifier, error) {
	cut := strings.LastIndexByte(s, '-')
	if cut < 0 {
		return Identifier{}, NewValidationErrorKind(KindIdentifier, "card_identifier", identifierFormatMsg)
	}
	prefix, rarity := s[:cut], s[cut+1:]

	parts := strings.SplitN(prefix, "-", 3)
	if len(parts) != 3 {
		return Identifier{}, NewValidationErrorKind(KindIdentifier, "card_identifier", identifierFormatMsg)
	}

	return Identifier{
		Series: parts[0],
		Set:    parts[1],
		Number: parts[2],
		Rarity: rarity,
	}, nil
}
