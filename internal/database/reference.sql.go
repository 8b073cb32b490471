package database

import (
	"context"
)

// Reference tables: sets, groups, units, names, skills and the three
// key/value mapping tables used for canonicalization.

const upsertName = `INSERT INTO names (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
const getNameID = `SELECT id FROM names WHERE name = $1`

// GetOrCreateName inserts name if absent and returns its id.
func (q *Queries) GetOrCreateName(ctx context.Context, name string) (int64, error) {
	if _, err := q.db.Exec(ctx, upsertName, name); err != nil {
		return 0, err
	}
	var id int64
	err := q.db.QueryRow(ctx, getNameID, name).Scan(&id)
	return id, err
}

const listNames = `SELECT name FROM names ORDER BY name`

func (q *Queries) ListNames(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, listNames)
}

const upsertSkill = `INSERT INTO skills (text) VALUES ($1) ON CONFLICT (text) DO NOTHING`
const getSkillID = `SELECT id FROM skills WHERE text = $1`

// GetOrCreateSkill inserts the skill text if absent and returns its id.
func (q *Queries) GetOrCreateSkill(ctx context.Context, text string) (int64, error) {
	if _, err := q.db.Exec(ctx, upsertSkill, text); err != nil {
		return 0, err
	}
	var id int64
	err := q.db.QueryRow(ctx, getSkillID, text).Scan(&id)
	return id, err
}

const setExists = `SELECT EXISTS (SELECT 1 FROM sets WHERE set_code = $1)`

func (q *Queries) SetExists(ctx context.Context, setCode string) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, setExists, setCode).Scan(&ok)
	return ok, err
}

const listSets = `SELECT set_code, name FROM sets ORDER BY set_code`

func (q *Queries) ListSets(ctx context.Context) ([]Set, error) {
	rows, err := q.db.Query(ctx, listSets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Set{}
	for rows.Next() {
		var s Set
		if err := rows.Scan(&s.SetCode, &s.Name); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const insertSet = `INSERT INTO sets (set_code, name) VALUES ($1, $2)`

func (q *Queries) InsertSet(ctx context.Context, arg Set) error {
	_, err := q.db.Exec(ctx, insertSet, arg.SetCode, arg.Name)
	return err
}

const deleteSet = `DELETE FROM sets WHERE set_code = $1`

// DeleteSet returns the number of rows removed.
func (q *Queries) DeleteSet(ctx context.Context, setCode string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteSet, setCode)
	return tag.RowsAffected(), err
}

const getGroupID = `SELECT id FROM groups WHERE name = $1`

// GetGroupID returns pgx.ErrNoRows when the group does not exist.
func (q *Queries) GetGroupID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, getGroupID, name).Scan(&id)
	return id, err
}

const listGroups = `SELECT name FROM groups ORDER BY name`

func (q *Queries) ListGroups(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, listGroups)
}

const insertGroup = `INSERT INTO groups (name) VALUES ($1)`

func (q *Queries) InsertGroup(ctx context.Context, name string) error {
	_, err := q.db.Exec(ctx, insertGroup, name)
	return err
}

const deleteGroup = `DELETE FROM groups WHERE name = $1`

func (q *Queries) DeleteGroup(ctx context.Context, name string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteGroup, name)
	return tag.RowsAffected(), err
}

const getUnitID = `SELECT id FROM units WHERE name = $1`

// GetUnitID returns pgx.ErrNoRows when the unit does not exist.
func (q *Queries) GetUnitID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, getUnitID, name).Scan(&id)
	return id, err
}

const listUnits = `SELECT name FROM units ORDER BY name`

func (q *Queries) ListUnits(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, listUnits)
}

const insertUnit = `INSERT INTO units (name) VALUES ($1)`

func (q *Queries) InsertUnit(ctx context.Context, name string) error {
	_, err := q.db.Exec(ctx, insertUnit, name)
	return err
}

const deleteUnit = `DELETE FROM units WHERE name = $1`

func (q *Queries) DeleteUnit(ctx context.Context, name string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteUnit, name)
	return tag.RowsAffected(), err
}

// MappingTable names one of the key/value canonicalization tables.
type MappingTable struct {
	Table    string
	KeyCol   string
	ValueCol string
}

// The mapping tables. Values are fixed identifiers, never user input.
var (
	RaritiesTable      = MappingTable{Table: "rarities", KeyCol: "rarity_code", ValueCol: "rarity_type"}
	NameVariantsTable  = MappingTable{Table: "name_variants", KeyCol: "variant_name", ValueCol: "canonical_name"}
	GroupVariantsTable = MappingTable{Table: "group_variants", KeyCol: "variant_name", ValueCol: "canonical_name"}
)

// ListMappings loads every row of a mapping table.
func (q *Queries) ListMappings(ctx context.Context, t MappingTable) ([]Mapping, error) {
	query := "SELECT " + t.KeyCol + ", " + t.ValueCol + " FROM " + t.Table + " ORDER BY " + t.KeyCol
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Mapping{}
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.Key, &m.Value); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// InsertMapping adds one row; a duplicate key surfaces as a unique violation.
func (q *Queries) InsertMapping(ctx context.Context, t MappingTable, key, value string) error {
	query := "INSERT INTO " + t.Table + " (" + t.KeyCol + ", " + t.ValueCol + ") VALUES ($1, $2)"
	_, err := q.db.Exec(ctx, query, key, value)
	return err
}

// DeleteMapping removes a row by key and returns the number of rows removed.
func (q *Queries) DeleteMapping(ctx context.Context, t MappingTable, key string) (int64, error) {
	query := "DELETE FROM " + t.Table + " WHERE " + t.KeyCol + " = $1"
	tag, err := q.db.Exec(ctx, query, key)
	return tag.RowsAffected(), err
}
