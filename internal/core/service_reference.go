package core

// service_reference.go manages the reference tables cards point at: sets,
// groups, units, rarity mappings and the two variant mappings. Every change
// goes through the matching cache so lookups never run ahead of storage,
// is logged with the caller's address, and is announced to other replicas.

import (
	"context"
	"fmt"

	db "github.com/JonMunkholm/llocg/internal/database"
	"github.com/JonMunkholm/llocg/internal/logging"
)

const stillReferenced = "is still referenced by cards"

// ListSets returns every set.
func (s *Service) ListSets() []Set { return s.caches.Sets.All() }

// AddSet creates a set. A duplicate code is a *ConflictError.
func (s *Service) AddSet(ctx context.Context, set Set) error {
	if set.SetCode == "" {
		return NewValidationError("set_code", "is required")
	}
	if set.Name == "" {
		return NewValidationError("name", "is required")
	}
	q := db.New(s.pool)
	_, err := s.caches.Sets.Apply(ctx, func(ctx context.Context) (bool, error) {
		if err := q.InsertSet(ctx, db.Set{SetCode: set.SetCode, Name: set.Name}); err != nil {
			return false, insertErr("set", set.SetCode, err)
		}
		return true, nil
	})
	s.recordChange(ctx, TableSets, "add", set.SetCode, err)
	return err
}

// DeleteSet removes a set. Reports whether it existed.
func (s *Service) DeleteSet(ctx context.Context, code string) (bool, error) {
	q := db.New(s.pool)
	removed, err := s.caches.Sets.Apply(ctx, func(ctx context.Context) (bool, error) {
		n, err := q.DeleteSet(ctx, code)
		if err != nil {
			return false, deleteErr("set", code, err)
		}
		return n > 0, nil
	})
	s.recordRemoval(ctx, TableSets, code, removed, err)
	return removed, err
}

// ListGroups returns every group name.
func (s *Service) ListGroups() []string { return s.caches.Groups.All() }

// AddGroup creates a group.
func (s *Service) AddGroup(ctx context.Context, name string) error {
	return s.addNamed(ctx, s.caches.Groups, "group", name, db.New(s.pool).InsertGroup)
}

// DeleteGroup removes a group. Reports whether it existed.
func (s *Service) DeleteGroup(ctx context.Context, name string) (bool, error) {
	return s.deleteNamed(ctx, s.caches.Groups, "group", name, db.New(s.pool).DeleteGroup)
}

// ListUnits returns every unit name.
func (s *Service) ListUnits() []string { return s.caches.Units.All() }

// AddUnit creates a unit.
func (s *Service) AddUnit(ctx context.Context, name string) error {
	return s.addNamed(ctx, s.caches.Units, "unit", name, db.New(s.pool).InsertUnit)
}

// DeleteUnit removes a unit. Reports whether it existed.
func (s *Service) DeleteUnit(ctx context.Context, name string) (bool, error) {
	return s.deleteNamed(ctx, s.caches.Units, "unit", name, db.New(s.pool).DeleteUnit)
}

// ListNames returns every canonical card name.
func (s *Service) ListNames() []string { return s.caches.Names.All() }

func (s *Service) addNamed(ctx context.Context, cache *ListCache[string], entity, name string,
	insert func(context.Context, string) error) error {
	if name == "" {
		return NewValidationError("name", "is required")
	}
	_, err := cache.Apply(ctx, func(ctx context.Context) (bool, error) {
		if err := insert(ctx, name); err != nil {
			return false, insertErr(entity, name, err)
		}
		return true, nil
	})
	s.recordChange(ctx, cache.Name(), "add", name, err)
	return err
}

func (s *Service) deleteNamed(ctx context.Context, cache *ListCache[string], entity, name string,
	del func(context.Context, string) (int64, error)) (bool, error) {
	removed, err := cache.Apply(ctx, func(ctx context.Context) (bool, error) {
		n, err := del(ctx, name)
		if err != nil {
			return false, deleteErr(entity, name, err)
		}
		return n > 0, nil
	})
	s.recordRemoval(ctx, cache.Name(), name, removed, err)
	return removed, err
}

// ListRarities returns the rarity code mapping.
func (s *Service) ListRarities() map[string]RarityType { return s.caches.Rarities.Snapshot() }

// GetRarity returns the rarity type for code, Regular when unmapped.
func (s *Service) GetRarity(code string) RarityType { return s.caches.Rarities.Lookup(code) }

// AddRarity maps a rarity code to a type.
func (s *Service) AddRarity(ctx context.Context, code string, t RarityType) error {
	if code == "" {
		return NewValidationError("rarity_code", "is required")
	}
	if !t.Valid() {
		return NewValidationErrorKind(KindUnknownValue, "rarity_type", fmt.Sprintf("has unknown value %q", t))
	}
	err := s.caches.Rarities.Upsert(ctx, code, t)
	s.recordChange(ctx, TableRarities, "add", code, err)
	return err
}

// DeleteRarity removes a rarity mapping. Reports whether it existed.
func (s *Service) DeleteRarity(ctx context.Context, code string) (bool, error) {
	removed, err := s.caches.Rarities.Remove(ctx, code)
	s.recordRemoval(ctx, TableRarities, code, removed, err)
	return removed, err
}

// ListNameVariants returns the name variant mapping.
func (s *Service) ListNameVariants() map[string]string { return s.caches.NameVariants.Snapshot() }

// AddNameVariant maps a spelling variant to its canonical card name.
func (s *Service) AddNameVariant(ctx context.Context, variant, canonical string) error {
	return s.addVariant(ctx, s.caches.NameVariants, variant, canonical)
}

// DeleteNameVariant removes a name variant. Reports whether it existed.
func (s *Service) DeleteNameVariant(ctx context.Context, variant string) (bool, error) {
	return s.deleteVariant(ctx, s.caches.NameVariants, variant)
}

// ListGroupVariants returns the group variant mapping.
func (s *Service) ListGroupVariants() map[string]string { return s.caches.GroupVariants.Snapshot() }

// AddGroupVariant maps a spelling variant to its canonical group name.
func (s *Service) AddGroupVariant(ctx context.Context, variant, canonical string) error {
	return s.addVariant(ctx, s.caches.GroupVariants, variant, canonical)
}

// DeleteGroupVariant removes a group variant. Reports whether it existed.
func (s *Service) DeleteGroupVariant(ctx context.Context, variant string) (bool, error) {
	return s.deleteVariant(ctx, s.caches.GroupVariants, variant)
}

func (s *Service) addVariant(ctx context.Context, m *Mapping[string], variant, canonical string) error {
	if variant == "" {
		return NewValidationError("variant_name", "is required")
	}
	if canonical == "" {
		return NewValidationError("canonical_name", "is required")
	}
	err := m.Upsert(ctx, variant, canonical)
	s.recordChange(ctx, m.Name(), "add", variant, err)
	return err
}

func (s *Service) deleteVariant(ctx context.Context, m *Mapping[string], variant string) (bool, error) {
	removed, err := m.Remove(ctx, variant)
	s.recordRemoval(ctx, m.Name(), variant, removed, err)
	return removed, err
}

// recordChange logs a reference mutation and, on success, publishes it.
func (s *Service) recordChange(ctx context.Context, table, action, key string, err error) {
	logger := logging.WithFields(ctx,
		"table", table,
		"action", action,
		"key", key,
		"ip", GetIPAddressFromContext(ctx),
		"user_agent", GetUserAgentFromContext(ctx),
	)
	if err != nil {
		logger.Info("reference change rejected", "error", err)
		return
	}
	logger.Info("reference data changed")
	s.publish(ctx, table)
}

func (s *Service) recordRemoval(ctx context.Context, table, key string, removed bool, err error) {
	if err == nil && !removed {
		logging.WithFields(ctx, "table", table, "key", key).Debug("delete matched no rows")
		return
	}
	s.recordChange(ctx, table, "delete", key, err)
}

func insertErr(entity, key string, err error) error {
	if db.IsUniqueViolation(err) {
		return Conflict(entity, key)
	}
	return storageErr("insert "+entity, err)
}

func deleteErr(entity, key string, err error) error {
	if db.IsForeignKeyViolation(err) {
		return &ConflictError{Entity: entity, Key: key, Reason: stillReferenced}
	}
	return storageErr("delete "+entity, err)
}
