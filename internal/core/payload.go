package core

import (
	"encoding/json"
	"fmt"
)

// cardPayload is the wire shape of a creation request. Type-specific fields
// sit at the top level next to the common ones; card_type decides which of
// them are allowed.
type cardPayload struct {
	CardIdentifier string               `json:"card_identifier"`
	Name           string               `json:"name"`
	CardType       CardType             `json:"card_type"`
	Groups         []string             `json:"groups"`
	Units          []string             `json:"units"`
	Skills         []string             `json:"skills"`
	Hearts         map[HeartColor]int64 `json:"hearts"`
	ImageURL       *string              `json:"image_url"`

	Cost         *int64           `json:"cost,omitempty"`
	Blades       *int64           `json:"blades,omitempty"`
	Score        *int64           `json:"score,omitempty"`
	BladeHeart   *BladeHeartColor `json:"blade_heart,omitempty"`
	SpecialHeart *SpecialHeart    `json:"special_heart,omitempty"`
}

// UnmarshalJSON decodes and validates a creation payload. Every failure is
// a *ValidationError.
func (c *NewCard) UnmarshalJSON(data []byte) error {
	var p cardPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return NewValidationErrorKind(KindUnreadable, "", fmt.Sprintf("failed to parse request payload: %v", err))
	}
	card, err := p.toNewCard()
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// MarshalJSON writes the payload back in its wire shape.
func (c NewCard) MarshalJSON() ([]byte, error) {
	p := cardPayload{
		CardIdentifier: c.Identifier.String(),
		Name:           c.Name,
		CardType:       c.CardType,
		Groups:         nonNil(c.Groups),
		Units:          nonNil(c.Units),
		Skills:         nonNil(c.Skills),
		Hearts:         c.Hearts(),
		ImageURL:       c.ImageURL,
	}
	switch s := c.Specifics.(type) {
	case CharacterSpecifics:
		p.Cost, p.Blades, p.BladeHeart = &s.Cost, &s.Blades, s.BladeHeart
	case LiveSpecifics:
		p.Score, p.BladeHeart, p.SpecialHeart = &s.Score, s.BladeHeart, s.SpecialHeart
	}
	return json.Marshal(p)
}

// DecodeNewCard parses a single JSON creation payload.
func DecodeNewCard(data []byte) (NewCard, error) {
	var c NewCard
	if err := json.Unmarshal(data, &c); err != nil {
		if IsValidation(err) {
			return NewCard{}, err
		}
		return NewCard{}, NewValidationErrorKind(KindUnreadable, "", fmt.Sprintf("failed to parse request payload: %v", err))
	}
	return c, nil
}

func (p cardPayload) toNewCard() (NewCard, error) {
	id, err := ParseIdentifier(p.CardIdentifier)
	if err != nil {
		return NewCard{}, err
	}

	card := NewCard{
		Identifier: id,
		Name:       p.Name,
		CardType:   p.CardType,
		Groups:     nonNil(p.Groups),
		Units:      nonNil(p.Units),
		Skills:     nonNil(p.Skills),
		ImageURL:   p.ImageURL,
	}

	hasCharacter := p.Cost != nil || p.Blades != nil
	hasLive := p.Score != nil || p.SpecialHeart != nil

	switch p.CardType {
	case CardTypeCharacter:
		if hasLive || p.Cost == nil || p.Blades == nil {
			return NewCard{}, NewValidationErrorKind(KindTypeMismatch, "", mismatchMsg)
		}
		card.Specifics = CharacterSpecifics{
			Cost:       *p.Cost,
			Blades:     *p.Blades,
			BladeHeart: p.BladeHeart,
			Hearts:     Hearts(p.Hearts),
		}
	case CardTypeLive:
		if hasCharacter || p.Score == nil {
			return NewCard{}, NewValidationErrorKind(KindTypeMismatch, "", mismatchMsg)
		}
		card.Specifics = LiveSpecifics{
			Score:        *p.Score,
			BladeHeart:   p.BladeHeart,
			SpecialHeart: p.SpecialHeart,
			Hearts:       Hearts(p.Hearts),
		}
	case CardTypeEnergy:
		if hasCharacter || hasLive || p.BladeHeart != nil {
			return NewCard{}, NewValidationErrorKind(KindTypeMismatch, "", mismatchMsg)
		}
		if len(p.Hearts) > 0 {
			return NewCard{}, NewValidationErrorKind(KindHearts, "hearts", "must be empty for Energy cards")
		}
	}

	if err := card.Validate(); err != nil {
		return NewCard{}, err
	}
	return card, nil
}

// fullCardJSON is the flattened wire shape of a FullCard.
type fullCardJSON struct {
	ID          int64                `json:"id"`
	SeriesCode  string               `json:"series_code"`
	SetCode     string               `json:"set_code"`
	NumberInSet string               `json:"number_in_set"`
	Name        string               `json:"name"`
	CardType    CardType             `json:"card_type"`
	SetName     string               `json:"set_name"`
	Groups      []string             `json:"groups"`
	Units       []string             `json:"units"`
	Skills      []string             `json:"skills"`
	Hearts      map[HeartColor]int64 `json:"hearts"`
	Printings   []Printing           `json:"printings"`

	Cost         *int64           `json:"cost,omitempty"`
	Blades       *int64           `json:"blades,omitempty"`
	Score        *int64           `json:"score,omitempty"`
	BladeHeart   *BladeHeartColor `json:"blade_heart,omitempty"`
	SpecialHeart *SpecialHeart    `json:"special_heart,omitempty"`
}

// MarshalJSON flattens the aggregate: type-specific fields appear at the top
// level and are absent for Energy cards.
func (c FullCard) MarshalJSON() ([]byte, error) {
	out := fullCardJSON{
		ID:          c.ID,
		SeriesCode:  c.SeriesCode,
		SetCode:     c.SetCode,
		NumberInSet: c.NumberInSet,
		Name:        c.Name,
		CardType:    c.CardType,
		SetName:     c.SetName,
		Groups:      nonNil(c.Groups),
		Units:       nonNil(c.Units),
		Skills:      nonNil(c.Skills),
		Hearts:      c.Hearts(),
		Printings:   c.Printings,
	}
	if out.Printings == nil {
		out.Printings = []Printing{}
	}
	switch s := c.Specifics.(type) {
	case CharacterSpecifics:
		out.Cost, out.Blades, out.BladeHeart = &s.Cost, &s.Blades, s.BladeHeart
	case LiveSpecifics:
		out.Score, out.BladeHeart, out.SpecialHeart = &s.Score, s.BladeHeart, s.SpecialHeart
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flattened aggregate, rebuilding the specifics
// variant from card_type.
func (c *FullCard) UnmarshalJSON(data []byte) error {
	var in fullCardJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = FullCard{
		ID:          in.ID,
		SeriesCode:  in.SeriesCode,
		SetCode:     in.SetCode,
		NumberInSet: in.NumberInSet,
		Name:        in.Name,
		CardType:    in.CardType,
		SetName:     in.SetName,
		Groups:      in.Groups,
		Units:       in.Units,
		Skills:      in.Skills,
		Printings:   in.Printings,
	}
	switch in.CardType {
	case CardTypeCharacter:
		s := CharacterSpecifics{BladeHeart: in.BladeHeart, Hearts: Hearts(in.Hearts)}
		if in.Cost != nil {
			s.Cost = *in.Cost
		}
		if in.Blades != nil {
			s.Blades = *in.Blades
		}
		c.Specifics = s
	case CardTypeLive:
		s := LiveSpecifics{BladeHeart: in.BladeHeart, SpecialHeart: in.SpecialHeart, Hearts: Hearts(in.Hearts)}
		if in.Score != nil {
			s.Score = *in.Score
		}
		c.Specifics = s
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
