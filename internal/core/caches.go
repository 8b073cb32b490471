package core

import (
	"context"
	"fmt"
	"log/slog"

	db "github.com/JonMunkholm/llocg/internal/database"
)

// Reference table names, as used for cache reloads and invalidation messages.
const (
	TableRarities      = "rarities"
	TableNameVariants  = "name_variants"
	TableGroupVariants = "group_variants"
	TableSets          = "sets"
	TableGroups        = "groups"
	TableUnits         = "units"
	TableNames         = "names"
)

// Tables lists every cached reference table.
var Tables = []string{
	TableRarities, TableNameVariants, TableGroupVariants,
	TableSets, TableGroups, TableUnits, TableNames,
}

// Caches is the set of reference-table caches shared by every request.
type Caches struct {
	Rarities      *Mapping[RarityType]
	NameVariants  *Mapping[string]
	GroupVariants *Mapping[string]

	Sets   *ListCache[Set]
	Groups *ListCache[string]
	Units  *ListCache[string]
	Names  *ListCache[string]
}

func identity(key string) string { return key }

// NewCaches builds empty caches reading through pool. Call LoadAll before use.
func NewCaches(pool db.DBTX) *Caches {
	q := db.New(pool)
	return &Caches{
		Rarities: NewMapping(TableRarities, mappingStore{q: q, table: db.RaritiesTable},
			func(string) RarityType { return RarityRegular }),
		NameVariants:  NewMapping(TableNameVariants, mappingStore{q: q, table: db.NameVariantsTable}, identity),
		GroupVariants: NewMapping(TableGroupVariants, mappingStore{q: q, table: db.GroupVariantsTable}, identity),

		Sets: NewListCache(TableSets, func(ctx context.Context) ([]Set, error) {
			rows, err := q.ListSets(ctx)
			if err != nil {
				return nil, err
			}
			sets := make([]Set, len(rows))
			for i, r := range rows {
				sets[i] = Set{SetCode: r.SetCode, Name: r.Name}
			}
			return sets, nil
		}),
		Groups: NewListCache(TableGroups, q.ListGroups),
		Units:  NewListCache(TableUnits, q.ListUnits),
		Names:  NewListCache(TableNames, q.ListNames),
	}
}

// LoadAll loads every cache from storage.
func (c *Caches) LoadAll(ctx context.Context) error {
	for _, table := range Tables {
		if err := c.Reload(ctx, table); err != nil {
			return err
		}
	}
	slog.Info("reference caches loaded",
		"rarities", c.Rarities.Len(),
		"name_variants", c.NameVariants.Len(),
		"group_variants", c.GroupVariants.Len(),
	)
	return nil
}

// Reload refreshes one cache by table name.
func (c *Caches) Reload(ctx context.Context, table string) error {
	switch table {
	case TableRarities:
		return c.Rarities.Load(ctx)
	case TableNameVariants:
		return c.NameVariants.Load(ctx)
	case TableGroupVariants:
		return c.GroupVariants.Load(ctx)
	case TableSets:
		return c.Sets.Load(ctx)
	case TableGroups:
		return c.Groups.Load(ctx)
	case TableUnits:
		return c.Units.Load(ctx)
	case TableNames:
		return c.Names.Load(ctx)
	}
	return fmt.Errorf("unknown table: %s", table)
}
