package db

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Table is the typed client for one model: the usual find/create/update/delete/upsert/
// count/aggregate/groupBy verbs, all going through the same Query filter.
type Table[T any] struct {
	db *gorm.DB
	lg zerolog.Logger
}

func For[T any](s *Storage) Table[T] {
	return Table[T]{db: s.db, lg: s.lg}
}

func (t Table[T]) session(ctx context.Context) (*gorm.DB, *schema.Schema, error) {
	sch, err := parseSchema(t.db, new(T))
	if err != nil {
		return nil, nil, err
	}
	return t.db.WithContext(ctx).Model(new(T)), sch, nil
}

// FindUnique looks a row up by the non-zero fields of where, which should form a unique key.
// It returns (nil, nil) when nothing matches.
func (t Table[T]) FindUnique(ctx context.Context, where *T) (*T, error) {
	row, err := t.FindUniqueOrThrow(ctx, where)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return row, err
}

func (t Table[T]) FindUniqueOrThrow(ctx context.Context, where *T) (*T, error) {
	tx, sch, err := t.session(ctx)
	if err != nil {
		return nil, err
	}
	cond, err := uniqueWhere(ctx, sch, where)
	if err != nil {
		return nil, err
	}

	var row T
	if err := tx.Where(cond).Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (t Table[T]) FindFirst(ctx context.Context, q Query) (*T, error) {
	row, err := t.FindFirstOrThrow(ctx, q)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return row, err
}

func (t Table[T]) FindFirstOrThrow(ctx context.Context, q Query) (*T, error) {
	tx, sch, err := t.session(ctx)
	if err != nil {
		return nil, err
	}
	q.Take = 1
	tx, err = q.scope(tx, sch, true)
	if err != nil {
		return nil, err
	}

	var row T
	if err := tx.Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (t Table[T]) FindMany(ctx context.Context, q Query) ([]T, error) {
	tx, sch, err := t.session(ctx)
	if err != nil {
		return nil, err
	}
	tx, err = q.scope(tx, sch, true)
	if err != nil {
		return nil, err
	}

	rows := make([]T, 0)
	if err := tx.Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (t Table[T]) Create(ctx context.Context, row *T) error {
	return translate(t.db.WithContext(ctx).Create(row).Error)
}

// CreateMany inserts rows in batches and reports how many were written.
// With skipDuplicates, rows hitting a unique key are silently skipped.
func (t Table[T]) CreateMany(ctx context.Context, rows []T, skipDuplicates bool) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx := t.db.WithContext(ctx)
	if skipDuplicates {
		tx = tx.Clauses(clause.OnConflict{DoNothing: true})
	}
	result := tx.CreateInBatches(rows, 200)
	return result.RowsAffected, translate(result.Error)
}

// Update changes the single row matching where and returns it as stored.
func (t Table[T]) Update(ctx context.Context, where *T, values map[string]any) (*T, error) {
	tx, sch, err := t.session(ctx)
	if err != nil {
		return nil, err
	}
	cols, err := assignments(sch, values)
	if err != nil {
		return nil, err
	}

	row, err := t.FindUniqueOrThrow(ctx, where)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(row).Updates(cols).Error; err != nil {
		return nil, translate(err)
	}

	var updated T
	if err := t.db.WithContext(ctx).Where(primaryKeyOf(ctx, sch, row)).Take(&updated).Error; err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

// UpdateMany requires at least one condition; it never updates a whole table.
func (t Table[T]) UpdateMany(ctx context.Context, q Query, values map[string]any) (int64, error) {
	if err := t.requireWhere(q, "UpdateMany"); err != nil {
		return 0, err
	}
	tx, sch, err := t.session(ctx)
	if err != nil {
		return 0, err
	}
	cols, err := assignments(sch, values)
	if err != nil {
		return 0, err
	}
	tx, err = q.scope(tx, sch, false)
	if err != nil {
		return 0, err
	}

	result := tx.Updates(cols)
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	t.lg.Debug().Str("table", t.String()).Int64("rows", result.RowsAffected).Msg("UpdateMany")
	return result.RowsAffected, nil
}

// Upsert inserts row, or updates the listed fields when a row with the same conflict
// fields exists. row is reloaded from the database afterwards so its id is always right.
func (t Table[T]) Upsert(ctx context.Context, row *T, conflict []string, update []string) error {
	_, sch, err := t.session(ctx)
	if err != nil {
		return err
	}
	conflictCols, err := columns(sch, conflict)
	if err != nil {
		return err
	}
	updateCols, err := columns(sch, update)
	if err != nil {
		return err
	}
	if f := sch.LookUpField("UpdatedAt"); f != nil && f.AutoUpdateTime > 0 {
		updateCols = append(updateCols, f.DBName)
	}

	onConflict := clause.OnConflict{
		Columns:   make([]clause.Column, len(conflictCols)),
		DoUpdates: clause.AssignmentColumns(updateCols),
	}
	for i, c := range conflictCols {
		onConflict.Columns[i] = clause.Column{Name: c}
	}
	if len(updateCols) == 0 {
		onConflict.DoUpdates = nil
		onConflict.DoNothing = true
	}

	if err := t.db.WithContext(ctx).Clauses(onConflict).Create(row).Error; err != nil {
		return translate(err)
	}

	// memo. MySQL 은 ON DUPLICATE KEY UPDATE 로 갱신된 경우 LAST_INSERT_ID 가 기존 id 가 아님
	rv := reflect.ValueOf(row)
	exprs := make([]clause.Expression, 0, len(conflict))
	for _, name := range conflict {
		f := sch.LookUpField(name)
		v, _ := f.ValueOf(ctx, rv)
		exprs = append(exprs, clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: f.DBName}, Value: v})
	}

	var stored T
	if err := t.db.WithContext(ctx).Where(clause.And(exprs...)).Take(&stored).Error; err != nil {
		return translate(err)
	}
	*row = stored
	return nil
}

func (t Table[T]) Delete(ctx context.Context, where *T) error {
	_, sch, err := t.session(ctx)
	if err != nil {
		return err
	}
	row, err := t.FindUniqueOrThrow(ctx, where)
	if err != nil {
		return err
	}
	return translate(t.db.WithContext(ctx).Where(primaryKeyOf(ctx, sch, row)).Delete(new(T)).Error)
}

// DeleteMany requires at least one condition; it never empties a table.
func (t Table[T]) DeleteMany(ctx context.Context, q Query) (int64, error) {
	if err := t.requireWhere(q, "DeleteMany"); err != nil {
		return 0, err
	}
	tx, sch, err := t.session(ctx)
	if err != nil {
		return 0, err
	}
	tx, err = q.scope(tx, sch, false)
	if err != nil {
		return 0, err
	}
	result := tx.Delete(new(T))
	if result.Error != nil {
		return 0, translate(result.Error)
	}
	t.lg.Debug().Str("table", t.String()).Int64("rows", result.RowsAffected).Msg("DeleteMany")
	return result.RowsAffected, nil
}

func (t Table[T]) requireWhere(q Query, verb string) error {
	if len(q.Where) > 0 {
		return nil
	}
	t.lg.Warn().Str("table", t.String()).Msgf("%s without conditions rejected", verb)
	return fmt.Errorf("%w. %s on %s needs at least one condition", ErrInvalidField, verb, t)
}

func (t Table[T]) Count(ctx context.Context, q Query) (int64, error) {
	tx, sch, err := t.session(ctx)
	if err != nil {
		return 0, err
	}
	tx, err = q.scope(tx, sch, false)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// uniqueWhere turns the non-zero column fields of where into an equality filter.
func uniqueWhere(ctx context.Context, sch *schema.Schema, where any) (clause.Expression, error) {
	rv := reflect.ValueOf(where)
	exprs := make([]clause.Expression, 0, 2)
	for _, f := range sch.Fields {
		if f.DBName == "" {
			continue
		}
		v, zero := f.ValueOf(ctx, rv)
		if zero {
			continue
		}
		exprs = append(exprs, clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: f.DBName}, Value: v})
	}
	if len(exprs) == 0 {
		return nil, fmt.Errorf("%w. unique lookup on %s without any key", ErrInvalidField, sch.Table)
	}
	return clause.And(exprs...), nil
}

func primaryKeyOf(ctx context.Context, sch *schema.Schema, row any) clause.Expression {
	rv := reflect.ValueOf(row)
	exprs := make([]clause.Expression, 0, len(sch.PrimaryFields))
	for _, f := range sch.PrimaryFields {
		v, _ := f.ValueOf(ctx, rv)
		exprs = append(exprs, clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: f.DBName}, Value: v})
	}
	return clause.And(exprs...)
}

func (t Table[T]) String() string {
	var zero T
	return fmt.Sprintf("Table[%T]", zero)
}
