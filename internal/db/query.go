package db

import (
	"fmt"
	"reflect"
	"strings"

	m "fincalendar/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

type Op string

const (
	Eq         Op = "eq"
	Ne         Op = "ne"
	Gt         Op = "gt"
	Gte        Op = "gte"
	Lt         Op = "lt"
	Lte        Op = "lte"
	In         Op = "in"
	NotIn      Op = "notIn"
	Contains   Op = "contains"
	StartsWith Op = "startsWith"
	EndsWith   Op = "endsWith"
	IsNull     Op = "isNull"
)

// Cond is a single filter. Field is either the Go field name or the column name.
type Cond struct {
	Field string
	Op    Op
	Value any
}

func Where(field string, op Op, value any) Cond {
	return Cond{Field: field, Op: op, Value: value}
}

type Order struct {
	Field string
	Desc  bool
}

func Asc(field string) Order  { return Order{Field: field} }
func Desc(field string) Order { return Order{Field: field, Desc: true} }

// Query is the filter/paging shape shared by every Table operation.
// Conditions are ANDed. Take 0 means no limit.
type Query struct {
	Where   []Cond
	OrderBy []Order
	Skip    int
	Take    int
	Include []string
}

var figureType = reflect.TypeOf(m.Figure{})

func parseSchema(db *gorm.DB, model any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, err
	}
	return stmt.Schema, nil
}

func lookUpColumn(sch *schema.Schema, name string) (*schema.Field, error) {
	f := sch.LookUpField(name)
	if f == nil || f.DBName == "" {
		return nil, fmt.Errorf("%w. %s has no column %q", ErrInvalidField, sch.Table, name)
	}
	return f, nil
}

func (c Cond) expression(sch *schema.Schema) (clause.Expression, error) {
	f, err := lookUpColumn(sch, c.Field)
	if err != nil {
		return nil, err
	}
	col := clause.Column{Table: clause.CurrentTable, Name: f.DBName}

	switch c.Op {
	case Gt, Gte, Lt, Lte:
		// memo. decimal 문자열 컬럼은 사전순 비교가 되므로 범위 비교 불가
		if f.FieldType == figureType {
			return nil, fmt.Errorf("%w. range comparison on decimal text column %q", ErrInvalidField, f.DBName)
		}
	}

	switch c.Op {
	case Eq, "":
		return clause.Eq{Column: col, Value: c.Value}, nil
	case Ne:
		return clause.Neq{Column: col, Value: c.Value}, nil
	case Gt:
		return clause.Gt{Column: col, Value: c.Value}, nil
	case Gte:
		return clause.Gte{Column: col, Value: c.Value}, nil
	case Lt:
		return clause.Lt{Column: col, Value: c.Value}, nil
	case Lte:
		return clause.Lte{Column: col, Value: c.Value}, nil
	case In:
		return clause.IN{Column: col, Values: toValues(c.Value)}, nil
	case NotIn:
		return clause.Not(clause.IN{Column: col, Values: toValues(c.Value)}), nil
	case Contains:
		return clause.Like{Column: col, Value: "%" + escapeLike(c.Value) + "%"}, nil
	case StartsWith:
		return clause.Like{Column: col, Value: escapeLike(c.Value) + "%"}, nil
	case EndsWith:
		return clause.Like{Column: col, Value: "%" + escapeLike(c.Value)}, nil
	case IsNull:
		if isNull, _ := c.Value.(bool); !isNull {
			return clause.Neq{Column: col, Value: nil}, nil
		}
		return clause.Eq{Column: col, Value: nil}, nil
	}
	return nil, fmt.Errorf("%w. unknown operator %q", ErrInvalidField, c.Op)
}

func toValues(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(v any) string {
	return likeEscaper.Replace(fmt.Sprint(v))
}

// scope applies q to tx. Paging is left out when paged is false (count, aggregate).
func (q Query) scope(tx *gorm.DB, sch *schema.Schema, paged bool) (*gorm.DB, error) {

	if len(q.Where) > 0 {
		exprs := make([]clause.Expression, 0, len(q.Where))
		for _, c := range q.Where {
			expr, err := c.expression(sch)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
		}
		tx = tx.Where(clause.And(exprs...))
	}

	if !paged {
		return tx, nil
	}

	for _, o := range q.OrderBy {
		f, err := lookUpColumn(sch, o.Field)
		if err != nil {
			return nil, err
		}
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Table: clause.CurrentTable, Name: f.DBName},
			Desc:   o.Desc,
		})
	}

	for _, inc := range q.Include {
		relation := strings.Split(inc, ".")[0]
		if _, ok := sch.Relationships.Relations[relation]; !ok {
			return nil, fmt.Errorf("%w. %s has no relation %q", ErrInvalidField, sch.Table, relation)
		}
		tx = tx.Preload(inc)
	}

	if q.Skip > 0 {
		tx = tx.Offset(q.Skip)
	}
	if q.Take > 0 {
		tx = tx.Limit(q.Take)
	}
	return tx, nil
}

// columns resolves field names into column names in the given order.
func columns(sch *schema.Schema, fields []string) ([]string, error) {
	cols := make([]string, len(fields))
	for i, name := range fields {
		f, err := lookUpColumn(sch, name)
		if err != nil {
			return nil, err
		}
		cols[i] = f.DBName
	}
	return cols, nil
}

// assignments resolves the keys of an update map into column names.
func assignments(sch *schema.Schema, values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for name, v := range values {
		f, err := lookUpColumn(sch, name)
		if err != nil {
			return nil, err
		}
		if f.PrimaryKey {
			return nil, fmt.Errorf("%w. primary key %q cannot be updated", ErrInvalidField, f.DBName)
		}
		out[f.DBName] = v
	}
	return out, nil
}
