package db

import (
	"context"
	"fmt"

	m "fincalendar/internal/model"
)

// SaveFavorite marks a calendar row as a favorite of the user. Saving the same favorite twice is a no-op.
func (s Storage) SaveFavorite(ctx context.Context, userID uint, kind m.FavoriteKind, targetID uint) error {

	var err error
	switch kind {
	case m.EarningsKind:
		if _, err = For[m.Earnings](&s).FindUniqueOrThrow(ctx, &m.Earnings{ID: targetID}); err == nil {
			_, err = For[m.FavoriteEarnings](&s).CreateMany(ctx, []m.FavoriteEarnings{{UserID: userID, EarningsID: targetID}}, true)
		}
	case m.DividendKind:
		if _, err = For[m.Dividend](&s).FindUniqueOrThrow(ctx, &m.Dividend{ID: targetID}); err == nil {
			_, err = For[m.FavoriteDividends](&s).CreateMany(ctx, []m.FavoriteDividends{{UserID: userID, DividendID: targetID}}, true)
		}
	case m.IndicatorKind:
		if _, err = For[m.EconomicIndicator](&s).FindUniqueOrThrow(ctx, &m.EconomicIndicator{ID: targetID}); err == nil {
			_, err = For[m.FavoriteIndicator](&s).CreateMany(ctx, []m.FavoriteIndicator{{UserID: userID, IndicatorID: targetID}}, true)
		}
	default:
		err = fmt.Errorf("%w. unknown kind %q", ErrInvalidField, kind)
	}
	if err != nil {
		return err
	}

	s.lg.Info().Msgf("Saved favorite %s ID %d of user ID %d", kind, targetID, userID)
	return nil
}

// DeleteFavorite returns ErrNotFound when the row was not a favorite.
func (s Storage) DeleteFavorite(ctx context.Context, userID uint, kind m.FavoriteKind, targetID uint) error {

	var (
		n   int64
		err error
	)
	switch kind {
	case m.EarningsKind:
		n, err = For[m.FavoriteEarnings](&s).DeleteMany(ctx, Query{Where: []Cond{
			Where("UserID", Eq, userID), Where("EarningsID", Eq, targetID),
		}})
	case m.DividendKind:
		n, err = For[m.FavoriteDividends](&s).DeleteMany(ctx, Query{Where: []Cond{
			Where("UserID", Eq, userID), Where("DividendID", Eq, targetID),
		}})
	case m.IndicatorKind:
		n, err = For[m.FavoriteIndicator](&s).DeleteMany(ctx, Query{Where: []Cond{
			Where("UserID", Eq, userID), Where("IndicatorID", Eq, targetID),
		}})
	default:
		err = fmt.Errorf("%w. unknown kind %q", ErrInvalidField, kind)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w. %s ID %d is not a favorite of user ID %d", ErrNotFound, kind, targetID, userID)
	}

	s.lg.Info().Msgf("Deleted favorite %s ID %d of user ID %d", kind, targetID, userID)
	return nil
}

func (s Storage) RetrieveFavoriteEarnings(ctx context.Context, userID uint) ([]m.Earnings, error) {

	favs, err := For[m.FavoriteEarnings](&s).FindMany(ctx, Query{
		Where:   []Cond{Where("UserID", Eq, userID)},
		OrderBy: []Order{Asc("EarningsID")},
		Include: []string{"Earnings.Company"},
	})
	if err != nil {
		return nil, err
	}

	earnings := make([]m.Earnings, 0, len(favs))
	for _, f := range favs {
		if f.Earnings != nil {
			earnings = append(earnings, *f.Earnings)
		}
	}
	return earnings, nil
}

func (s Storage) RetrieveFavoriteDividends(ctx context.Context, userID uint) ([]m.Dividend, error) {

	favs, err := For[m.FavoriteDividends](&s).FindMany(ctx, Query{
		Where:   []Cond{Where("UserID", Eq, userID)},
		OrderBy: []Order{Asc("DividendID")},
		Include: []string{"Dividend.Company"},
	})
	if err != nil {
		return nil, err
	}

	dividends := make([]m.Dividend, 0, len(favs))
	for _, f := range favs {
		if f.Dividend != nil {
			dividends = append(dividends, *f.Dividend)
		}
	}
	return dividends, nil
}

func (s Storage) RetrieveFavoriteIndicators(ctx context.Context, userID uint) ([]m.EconomicIndicator, error) {

	favs, err := For[m.FavoriteIndicator](&s).FindMany(ctx, Query{
		Where:   []Cond{Where("UserID", Eq, userID)},
		OrderBy: []Order{Asc("IndicatorID")},
		Include: []string{"Indicator"},
	})
	if err != nil {
		return nil, err
	}

	indicators := make([]m.EconomicIndicator, 0, len(favs))
	for _, f := range favs {
		if f.Indicator != nil {
			indicators = append(indicators, *f.Indicator)
		}
	}
	return indicators, nil
}
