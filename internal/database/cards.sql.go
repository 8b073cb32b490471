package database

import (
	"context"
)

const getCard = `SELECT id, series_code, set_code, number_in_set, name_id, card_type FROM cards WHERE id = $1`

// GetCard returns the base card row. Returns pgx.ErrNoRows when absent.
func (q *Queries) GetCard(ctx context.Context, id int64) (Card, error) {
	var c Card
	err := q.db.QueryRow(ctx, getCard, id).Scan(
		&c.ID, &c.SeriesCode, &c.SetCode, &c.NumberInSet, &c.NameID, &c.CardType,
	)
	return c, err
}

const insertCard = `INSERT INTO cards (series_code, set_code, number_in_set, name_id, card_type)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

// InsertCardParams are the columns of a new base card.
type InsertCardParams struct {
	SeriesCode  string
	SetCode     string
	NumberInSet string
	NameID      int64
	CardType    string
}

// InsertCard inserts a base card and returns its generated id.
func (q *Queries) InsertCard(ctx context.Context, arg InsertCardParams) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, insertCard,
		arg.SeriesCode, arg.SetCode, arg.NumberInSet, arg.NameID, arg.CardType,
	).Scan(&id)
	return id, err
}

const insertCharacterCard = `INSERT INTO character_cards (card_id, cost, blades, blade_heart) VALUES ($1, $2, $3, $4)`

func (q *Queries) InsertCharacterCard(ctx context.Context, arg CharacterCard) error {
	_, err := q.db.Exec(ctx, insertCharacterCard, arg.CardID, arg.Cost, arg.Blades, arg.BladeHeart)
	return err
}

const insertLiveCard = `INSERT INTO live_cards (card_id, score, blade_heart, special_heart) VALUES ($1, $2, $3, $4)`

func (q *Queries) InsertLiveCard(ctx context.Context, arg LiveCard) error {
	_, err := q.db.Exec(ctx, insertLiveCard, arg.CardID, arg.Score, arg.BladeHeart, arg.SpecialHeart)
	return err
}

const insertPrinting = `INSERT INTO printings (card_id, rarity_code, rarity_type, image_url)
VALUES ($1, $2, $3, $4)
RETURNING id`

// InsertPrinting inserts a printing and returns its generated id.
func (q *Queries) InsertPrinting(ctx context.Context, arg Printing) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, insertPrinting, arg.CardID, arg.RarityCode, arg.RarityType, arg.ImageURL).Scan(&id)
	return id, err
}

const insertCardHeart = `INSERT INTO card_hearts (card_id, color, count) VALUES ($1, $2, $3)`

func (q *Queries) InsertCardHeart(ctx context.Context, cardID int64, color string, count int64) error {
	_, err := q.db.Exec(ctx, insertCardHeart, cardID, color, count)
	return err
}

const insertCardGroup = `INSERT INTO card_groups (card_id, group_id, position) VALUES ($1, $2, $3)`

func (q *Queries) InsertCardGroup(ctx context.Context, cardID, groupID int64, position int) error {
	_, err := q.db.Exec(ctx, insertCardGroup, cardID, groupID, position)
	return err
}

const insertCardUnit = `INSERT INTO card_units (card_id, unit_id, position) VALUES ($1, $2, $3)`

func (q *Queries) InsertCardUnit(ctx context.Context, cardID, unitID int64, position int) error {
	_, err := q.db.Exec(ctx, insertCardUnit, cardID, unitID, position)
	return err
}

const insertCardSkill = `INSERT INTO card_skills (card_id, skill_id, position) VALUES ($1, $2, $3)`

func (q *Queries) InsertCardSkill(ctx context.Context, cardID, skillID int64, position int) error {
	_, err := q.db.Exec(ctx, insertCardSkill, cardID, skillID, position)
	return err
}

const getNameByID = `SELECT name FROM names WHERE id = $1`

func (q *Queries) GetNameByID(ctx context.Context, id int64) (string, error) {
	var name string
	err := q.db.QueryRow(ctx, getNameByID, id).Scan(&name)
	return name, err
}

const getSetName = `SELECT name FROM sets WHERE set_code = $1`

func (q *Queries) GetSetName(ctx context.Context, setCode string) (string, error) {
	var name string
	err := q.db.QueryRow(ctx, getSetName, setCode).Scan(&name)
	return name, err
}

const listCardGroups = `SELECT g.name FROM groups g
JOIN card_groups cg ON g.id = cg.group_id
WHERE cg.card_id = $1
ORDER BY cg.position`

func (q *Queries) ListCardGroups(ctx context.Context, cardID int64) ([]string, error) {
	return q.listStrings(ctx, listCardGroups, cardID)
}

const listCardUnits = `SELECT u.name FROM units u
JOIN card_units cu ON u.id = cu.unit_id
WHERE cu.card_id = $1
ORDER BY cu.position`

func (q *Queries) ListCardUnits(ctx context.Context, cardID int64) ([]string, error) {
	return q.listStrings(ctx, listCardUnits, cardID)
}

const listCardSkills = `SELECT s.text FROM skills s
JOIN card_skills cs ON s.id = cs.skill_id
WHERE cs.card_id = $1
ORDER BY cs.position`

func (q *Queries) ListCardSkills(ctx context.Context, cardID int64) ([]string, error) {
	return q.listStrings(ctx, listCardSkills, cardID)
}

const listCardHearts = `SELECT color, count FROM card_hearts WHERE card_id = $1 ORDER BY color`

func (q *Queries) ListCardHearts(ctx context.Context, cardID int64) ([]CardHeart, error) {
	rows, err := q.db.Query(ctx, listCardHearts, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CardHeart
	for rows.Next() {
		var h CardHeart
		if err := rows.Scan(&h.Color, &h.Count); err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}

const listCardPrintings = `SELECT id, card_id, rarity_code, rarity_type, image_url FROM printings WHERE card_id = $1 ORDER BY id`

func (q *Queries) ListCardPrintings(ctx context.Context, cardID int64) ([]Printing, error) {
	rows, err := q.db.Query(ctx, listCardPrintings, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Printing
	for rows.Next() {
		var p Printing
		if err := rows.Scan(&p.ID, &p.CardID, &p.RarityCode, &p.RarityType, &p.ImageURL); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const getCharacterCard = `SELECT card_id, cost, blades, blade_heart FROM character_cards WHERE card_id = $1`

// GetCharacterCard returns pgx.ErrNoRows when the card has no character row.
func (q *Queries) GetCharacterCard(ctx context.Context, cardID int64) (CharacterCard, error) {
	var c CharacterCard
	err := q.db.QueryRow(ctx, getCharacterCard, cardID).Scan(&c.CardID, &c.Cost, &c.Blades, &c.BladeHeart)
	return c, err
}

const getLiveCard = `SELECT card_id, score, blade_heart, special_heart FROM live_cards WHERE card_id = $1`

// GetLiveCard returns pgx.ErrNoRows when the card has no live row.
func (q *Queries) GetLiveCard(ctx context.Context, cardID int64) (LiveCard, error) {
	var l LiveCard
	err := q.db.QueryRow(ctx, getLiveCard, cardID).Scan(&l.CardID, &l.Score, &l.BladeHeart, &l.SpecialHeart)
	return l, err
}

// listStrings runs a single-column text query.
func (q *Queries) listStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
