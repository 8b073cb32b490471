package core

import (
	"context"
	"fmt"

	db "github.com/JonMunkholm/llocg/internal/database"
	"github.com/jackc/pgx/v5"
)

// Beginner starts transactions. Satisfied by *pgxpool.Pool.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UnitOfWork owns one transaction for a sequence of card inserts. It commits
// at most once; Close rolls back anything not committed.
//
//	uow, err := BeginUnitOfWork(ctx, pool, caches)
//	if err != nil { ... }
//	defer uow.Close(ctx)
//	id, err := uow.Insert(ctx, card)
//	...
//	err = uow.Commit(ctx)
type UnitOfWork struct {
	tx     pgx.Tx
	q      *db.Queries
	caches *Caches
	done   bool
}

// BeginUnitOfWork opens a transaction on pool.
func BeginUnitOfWork(ctx context.Context, pool Beginner, caches *Caches) (*UnitOfWork, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, storageErr("begin transaction", err)
	}
	return &UnitOfWork{tx: tx, q: db.New(tx), caches: caches}, nil
}

// Insert validates card and writes it with every dependent row. On error the
// unit of work must not be committed.
func (u *UnitOfWork) Insert(ctx context.Context, card NewCard) (int64, error) {
	if u.done {
		return 0, fmt.Errorf("unit of work already finished")
	}
	if err := card.Validate(); err != nil {
		return 0, err
	}

	ident := card.Identifier
	rarityType := u.caches.Rarities.Lookup(ident.Rarity)
	canonicalName := u.caches.NameVariants.Lookup(card.Name)

	nameID, err := u.q.GetOrCreateName(ctx, canonicalName)
	if err != nil {
		return 0, storageErr("upsert name", err)
	}

	ok, err := u.q.SetExists(ctx, ident.Set)
	if err != nil {
		return 0, storageErr("check set", err)
	}
	if !ok {
		return 0, NotFound("set", ident.Set)
	}

	cardID, err := u.q.InsertCard(ctx, db.InsertCardParams{
		SeriesCode:  ident.Series,
		SetCode:     ident.Set,
		NumberInSet: ident.Number,
		NameID:      nameID,
		CardType:    string(card.CardType),
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, Conflict("card", ident.Series+"-"+ident.Set+"-"+ident.Number)
		}
		return 0, storageErr("insert card", err)
	}

	if err := u.insertSpecifics(ctx, cardID, card.Specifics); err != nil {
		return 0, err
	}

	if _, err := u.q.InsertPrinting(ctx, db.Printing{
		CardID:     cardID,
		RarityCode: ident.Rarity,
		RarityType: string(rarityType),
		ImageURL:   card.ImageURL,
	}); err != nil {
		return 0, storageErr("insert printing", err)
	}

	hearts := card.Hearts()
	for _, color := range hearts.Colors() {
		if err := u.q.InsertCardHeart(ctx, cardID, string(color), hearts[color]); err != nil {
			return 0, storageErr("insert heart", err)
		}
	}

	for i, group := range card.Groups {
		canonical := u.caches.GroupVariants.Lookup(group)
		groupID, err := u.q.GetGroupID(ctx, canonical)
		if err != nil {
			if db.IsNoRows(err) {
				return 0, NotFound("group", canonical)
			}
			return 0, storageErr("get group", err)
		}
		if err := u.q.InsertCardGroup(ctx, cardID, groupID, i); err != nil {
			return 0, linkErr("group", canonical, err)
		}
	}

	for i, unit := range card.Units {
		unitID, err := u.q.GetUnitID(ctx, unit)
		if err != nil {
			if db.IsNoRows(err) {
				return 0, NotFound("unit", unit)
			}
			return 0, storageErr("get unit", err)
		}
		if err := u.q.InsertCardUnit(ctx, cardID, unitID, i); err != nil {
			return 0, linkErr("unit", unit, err)
		}
	}

	for i, skill := range card.Skills {
		skillID, err := u.q.GetOrCreateSkill(ctx, skill)
		if err != nil {
			return 0, storageErr("upsert skill", err)
		}
		if err := u.q.InsertCardSkill(ctx, cardID, skillID, i); err != nil {
			return 0, linkErr("skill", skill, err)
		}
	}

	return cardID, nil
}

func (u *UnitOfWork) insertSpecifics(ctx context.Context, cardID int64, s Specifics) error {
	switch s := s.(type) {
	case CharacterSpecifics:
		err := u.q.InsertCharacterCard(ctx, db.CharacterCard{
			CardID:     cardID,
			Cost:       s.Cost,
			Blades:     s.Blades,
			BladeHeart: (*string)(s.BladeHeart),
		})
		return storageErr("insert character specifics", err)
	case LiveSpecifics:
		err := u.q.InsertLiveCard(ctx, db.LiveCard{
			CardID:       cardID,
			Score:        s.Score,
			BladeHeart:   (*string)(s.BladeHeart),
			SpecialHeart: (*string)(s.SpecialHeart),
		})
		return storageErr("insert live specifics", err)
	}
	return nil
}

// Commit commits the transaction. A commit failure is returned, never dropped.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}
	u.done = true
	if err := u.tx.Commit(ctx); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

// Close rolls back unless Commit succeeded. Safe to call more than once.
func (u *UnitOfWork) Close(ctx context.Context) {
	if u.done {
		return
	}
	u.done = true
	_ = u.tx.Rollback(ctx)
}

// linkErr reports a duplicate association, e.g. the same group listed twice.
func linkErr(entity, key string, err error) error {
	if db.IsUniqueViolation(err) {
		return NewValidationError(entity+"s", fmt.Sprintf("lists %q more than once", key))
	}
	return storageErr("link "+entity, err)
}
