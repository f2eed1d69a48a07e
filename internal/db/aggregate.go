package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	m "fincalendar/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// Aggregate is computed with decimal arithmetic so decimal text columns keep their precision.
// Rows counts matching rows, Count only those with a value in the field.
type Aggregate struct {
	Rows  int64    `json:"rows"`
	Count int64    `json:"count"`
	Sum   m.Figure `json:"sum"`
	Avg   m.Figure `json:"avg"`
	Min   m.Figure `json:"min"`
	Max   m.Figure `json:"max"`
}

// Aggregate folds one numeric or decimal text field over the rows matching q.
// memo. SUM/AVG 를 DB 에서 하면 varchar 가 double 로 캐스팅되어 정밀도 손실. 값을 읽어와 decimal 로 계산
func (t Table[T]) Aggregate(ctx context.Context, q Query, field string) (*Aggregate, error) {
	tx, sch, err := t.session(ctx)
	if err != nil {
		return nil, err
	}
	f, err := lookUpColumn(sch, field)
	if err != nil {
		return nil, err
	}
	tx, err = q.scope(tx, sch, false)
	if err != nil {
		return nil, err
	}

	var values []sql.NullString
	if err := tx.Pluck(f.DBName, &values).Error; err != nil {
		return nil, translate(err)
	}
	return foldDecimals(values)
}

func foldDecimals(values []sql.NullString) (*Aggregate, error) {
	agg := &Aggregate{Rows: int64(len(values))}

	var sum, min, max decimal.Decimal
	for _, v := range values {
		if !v.Valid || v.String == "" {
			continue
		}
		d, err := decimal.NewFromString(v.String)
		if err != nil {
			return nil, fmt.Errorf("aggregate over non decimal value %q. %w", v.String, err)
		}
		if agg.Count == 0 {
			min, max = d, d
		} else {
			if d.LessThan(min) {
				min = d
			}
			if d.GreaterThan(max) {
				max = d
			}
		}
		sum = sum.Add(d)
		agg.Count++
	}

	if agg.Count == 0 {
		return agg, nil
	}
	agg.Sum = m.NewFigure(sum)
	// DivRound 결과는 8자리 고정이라 뒤쪽 0 을 정리
	agg.Avg = m.NewFigure(decimal.RequireFromString(sum.DivRound(decimal.NewFromInt(agg.Count), 8).String()))
	agg.Min = m.NewFigure(min)
	agg.Max = m.NewFigure(max)
	return agg, nil
}

type Group struct {
	Keys  map[string]any `json:"keys"`
	Count int64          `json:"count"`
}

// GroupBy counts the rows matching q per distinct combination of fields. Keys are column names.
func (t Table[T]) GroupBy(ctx context.Context, q Query, fields ...string) ([]Group, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w. group by needs at least one field", ErrInvalidField)
	}
	tx, sch, err := t.session(ctx)
	if err != nil {
		return nil, err
	}
	cols, err := columns(sch, fields)
	if err != nil {
		return nil, err
	}
	tx, err = q.scope(tx, sch, false)
	if err != nil {
		return nil, err
	}

	selects := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		quoted := tx.Statement.Quote(clause.Column{Name: c})
		selects = append(selects, quoted)
		tx = tx.Group(c).Order(quoted)
	}
	selects = append(selects, "COUNT(*) AS "+tx.Statement.Quote(groupCountColumn))

	var rows []map[string]any
	if err := tx.Select(strings.Join(selects, ", ")).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	groups := make([]Group, len(rows))
	for i, row := range rows {
		groups[i].Count = toInt64(row[groupCountColumn])
		delete(row, groupCountColumn)
		groups[i].Keys = row
	}
	return groups, nil
}

const groupCountColumn = "_count"

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	case []byte:
		i, _ := strconv.ParseInt(string(n), 10, 64)
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}
