package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// CRUD implements create/get/getAll/update/destroy for one table. Entity
// repositories embed it and add their own queries.
type CRUD[T any] struct {
	db      DB
	sb      sq.StatementBuilderType
	table   string
	columns []string
	fields  func(*T) map[string]any
}

// NewCRUD builds a CRUD over table. columns must match the db tags of T;
// fields returns the writable columns of an entity.
func NewCRUD[T any](db DB, table string, columns []string, fields func(*T) map[string]any) *CRUD[T] {
	return &CRUD[T]{
		db:      db,
		sb:      sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		table:   table,
		columns: columns,
		fields:  fields,
	}
}

func (r *CRUD[T]) returning() string {
	return "RETURNING " + strings.Join(r.columns, ", ")
}

func (r *CRUD[T]) Create(ctx context.Context, item *T) (*T, error) {
	sqlStr, args, err := r.sb.
		Insert(r.table).
		SetMap(r.fields(item)).
		Suffix(r.returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert %s sql: %w", r.table, err)
	}
	return r.one(ctx, sqlStr, args...)
}

func (r *CRUD[T]) Get(ctx context.Context, id int64) (*T, error) {
	sqlStr, args, err := r.sb.
		Select(r.columns...).
		From(r.table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get %s sql: %w", r.table, err)
	}
	return r.one(ctx, sqlStr, args...)
}

func (r *CRUD[T]) GetAll(ctx context.Context) ([]T, error) {
	sqlStr, args, err := r.sb.
		Select(r.columns...).
		From(r.table).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list %s sql: %w", r.table, err)
	}
	return r.many(ctx, sqlStr, args...)
}

func (r *CRUD[T]) Update(ctx context.Context, id int64, item *T) (*T, error) {
	sqlStr, args, err := r.sb.
		Update(r.table).
		SetMap(r.fields(item)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix(r.returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update %s sql: %w", r.table, err)
	}
	return r.one(ctx, sqlStr, args...)
}

func (r *CRUD[T]) Destroy(ctx context.Context, id int64) error {
	sqlStr, args, err := r.sb.
		Delete(r.table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s sql: %w", r.table, err)
	}
	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", r.table, id, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s %d: %w", r.table, id, domain.ErrNotFound)
	}
	return nil
}

func (r *CRUD[T]) one(ctx context.Context, sqlStr string, args ...any) (*T, error) {
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.table, mapError(err))
	}
	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.table, mapError(err))
	}
	return item, nil
}

func (r *CRUD[T]) many(ctx context.Context, sqlStr string, args ...any) ([]T, error) {
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.table, mapError(err))
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.table, mapError(err))
	}
	return items, nil
}
