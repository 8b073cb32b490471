package core

import (
	"context"
	"strconv"
	"time"

	db "github.com/JonMunkholm/llocg/internal/database"
	"golang.org/x/sync/errgroup"
)

// Reader assembles FullCard aggregates. It must be given a pool, not a
// transaction: the per-table reads run concurrently.
type Reader struct {
	q       *db.Queries
	timeout time.Duration
}

// NewReader returns a Reader over pool. A positive timeout bounds each Fetch.
func NewReader(pool db.DBTX, timeout time.Duration) *Reader {
	return &Reader{q: db.New(pool), timeout: timeout}
}

// Fetch reads card id and everything attached to it. A missing card is a
// *NotFoundError; any other failure aborts the whole read and no partial
// aggregate is returned.
func (r *Reader) Fetch(ctx context.Context, id int64) (FullCard, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	base, err := r.q.GetCard(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return FullCard{}, NotFound("card", strconv.FormatInt(id, 10))
		}
		return FullCard{}, storageErr("get card", err)
	}

	var (
		name      string
		setName   string
		groups    []string
		units     []string
		skills    []string
		hearts    []db.CardHeart
		printings []db.Printing
		specifics Specifics
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		name, err = r.q.GetNameByID(gctx, base.NameID)
		return wrapRead("card name", err)
	})
	g.Go(func() (err error) {
		setName, err = r.q.GetSetName(gctx, base.SetCode)
		return wrapRead("set name", err)
	})
	g.Go(func() (err error) {
		groups, err = r.q.ListCardGroups(gctx, id)
		return wrapRead("card groups", err)
	})
	g.Go(func() (err error) {
		units, err = r.q.ListCardUnits(gctx, id)
		return wrapRead("card units", err)
	})
	g.Go(func() (err error) {
		skills, err = r.q.ListCardSkills(gctx, id)
		return wrapRead("card skills", err)
	})
	g.Go(func() (err error) {
		hearts, err = r.q.ListCardHearts(gctx, id)
		return wrapRead("card hearts", err)
	})
	g.Go(func() (err error) {
		printings, err = r.q.ListCardPrintings(gctx, id)
		return wrapRead("card printings", err)
	})
	g.Go(func() (err error) {
		specifics, err = r.readSpecifics(gctx, id, CardType(base.CardType))
		return err
	})

	if err := g.Wait(); err != nil {
		return FullCard{}, err
	}

	allocation := make(Hearts, len(hearts))
	for _, h := range hearts {
		allocation[HeartColor(h.Color)] = h.Count
	}
	switch s := specifics.(type) {
	case CharacterSpecifics:
		s.Hearts = allocation
		specifics = s
	case LiveSpecifics:
		s.Hearts = allocation
		specifics = s
	}

	out := FullCard{
		ID:          base.ID,
		SeriesCode:  base.SeriesCode,
		SetCode:     base.SetCode,
		NumberInSet: base.NumberInSet,
		Name:        name,
		CardType:    CardType(base.CardType),
		SetName:     setName,
		Groups:      groups,
		Units:       units,
		Skills:      skills,
		Printings:   make([]Printing, 0, len(printings)),
		Specifics:   specifics,
	}
	for _, p := range printings {
		out.Printings = append(out.Printings, Printing{
			ID:         p.ID,
			CardID:     p.CardID,
			RarityCode: p.RarityCode,
			RarityType: RarityType(p.RarityType),
			ImageURL:   p.ImageURL,
		})
	}
	return out, nil
}

func (r *Reader) readSpecifics(ctx context.Context, id int64, t CardType) (Specifics, error) {
	switch t {
	case CardTypeCharacter:
		row, err := r.q.GetCharacterCard(ctx, id)
		if err != nil {
			return nil, wrapRead("character specifics", err)
		}
		return CharacterSpecifics{
			Cost:       row.Cost,
			Blades:     row.Blades,
			BladeHeart: (*BladeHeartColor)(row.BladeHeart),
		}, nil
	case CardTypeLive:
		row, err := r.q.GetLiveCard(ctx, id)
		if err != nil {
			return nil, wrapRead("live specifics", err)
		}
		return LiveSpecifics{
			Score:        row.Score,
			BladeHeart:   (*BladeHeartColor)(row.BladeHeart),
			SpecialHeart: (*SpecialHeart)(row.SpecialHeart),
		}, nil
	}
	return nil, nil
}

func wrapRead(what string, err error) error {
	if err == nil {
		return nil
	}
	return storageErr("read "+what, err)
}
