package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"restaurant-ordering/internal/infra"
	"restaurant-ordering/internal/infra/uow"
	"restaurant-ordering/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// fieldNamePattern guards field names interpolated into JSONB paths.
var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore keeps every collection in one JSONB table:
// records(collection, id, data, created, updated).
type PostgresStore struct {
	pool   *pgxpool.Pool
	uow    *uow.PostgresUoW
	logger *slog.Logger
}

var (
	_ Store   = (*PostgresStore)(nil)
	_ Mutator = (*PostgresStore)(nil)
)

func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		uow:    uow.NewPostgresUoW(pool),
		logger: logger,
	}
}

const selectColumns = `id, data, created, updated`

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Record, error) {
	return s.get(ctx, s.pool, collection, id, false)
}

func (s *PostgresStore) get(ctx context.Context, q querier, collection, id string, forUpdate bool) (Record, error) {
	sql := `SELECT ` + selectColumns + ` FROM records WHERE collection = $1 AND id = $2`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	rec, err := scanRecord(q.QueryRow(ctx, sql, collection, id))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NotFound(fmt.Sprintf("%s record %q not found", collection, id))
		}
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to get "+collection+" record", err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, collection string, opts ListOptions) (*Page, error) {
	opts = opts.normalized()

	where, args, err := buildWhere(collection, opts.Filter)
	if err != nil {
		return nil, err
	}
	orderBy, err := buildOrderBy(opts.Sort)
	if err != nil {
		return nil, err
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM records WHERE `+where, args...).Scan(&total); err != nil {
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to count "+collection+" records", err)
	}

	args = append(args, opts.PerPage, (opts.Page-1)*opts.PerPage)
	sql := fmt.Sprintf(`SELECT %s FROM records WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		selectColumns, where, orderBy, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to list "+collection+" records", err)
	}
	defer rows.Close()

	page := &Page{Page: opts.Page, PerPage: opts.PerPage, TotalItems: total}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to scan "+collection+" record", err)
		}
		page.Items = append(page.Items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to iterate "+collection+" records", err)
	}
	return page, nil
}

func (s *PostgresStore) Create(ctx context.Context, collection string, fields Record) (Record, error) {
	id := fields.ID()
	if id == "" {
		id = uuid.NewString()
	}
	data, err := encodeData(fields)
	if err != nil {
		return nil, err
	}

	rec, err := scanRecord(s.pool.QueryRow(ctx,
		`INSERT INTO records (collection, id, data) VALUES ($1, $2, $3)
		 RETURNING `+selectColumns,
		collection, id, data))
	if err != nil {
		if pgconv.IsUniqueViolation(err) {
			return nil, infra.Conflict(fmt.Sprintf("%s record %q already exists", collection, id))
		}
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to create "+collection+" record", err)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields Record) (Record, error) {
	return s.update(ctx, s.pool, collection, id, fields)
}

func (s *PostgresStore) update(ctx context.Context, q querier, collection, id string, fields Record) (Record, error) {
	data, err := encodeData(fields)
	if err != nil {
		return nil, err
	}

	rec, err := scanRecord(q.QueryRow(ctx,
		`UPDATE records SET data = data || $3::jsonb, updated = now()
		 WHERE collection = $1 AND id = $2
		 RETURNING `+selectColumns,
		collection, id, data))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NotFound(fmt.Sprintf("%s record %q not found", collection, id))
		}
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "failed to update "+collection+" record", err)
	}
	return rec, nil
}

// Mutate locks the row with SELECT ... FOR UPDATE and applies fn inside one
// transaction, retried on serialization failures and deadlocks.
func (s *PostgresStore) Mutate(ctx context.Context, collection, id string, fn MutateFunc) (Record, error) {
	var out Record
	err := s.uow.Within(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.get(ctx, tx, collection, id, true)
		if err != nil {
			return err
		}
		fields, err := fn(current)
		if err != nil {
			return err
		}
		out, err = s.update(ctx, tx, collection, id, fields)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		id      string
		data    []byte
		created pgtype.Timestamptz
		updated pgtype.Timestamptz
	)
	if err := row.Scan(&id, &data, &created, &updated); err != nil {
		return nil, err
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	rec[FieldID] = id
	rec[FieldCreated] = pgconv.TimeFromPgtype(created).UTC().Format(StampLayout)
	rec[FieldUpdated] = pgconv.TimeFromPgtype(updated).UTC().Format(StampLayout)
	return rec, nil
}

func encodeData(fields Record) ([]byte, error) {
	data := fields.Clone()
	delete(data, FieldID)
	delete(data, FieldCreated)
	delete(data, FieldUpdated)

	b, err := json.Marshal(data)
	if err != nil {
		return nil, infra.NewValidationErr("failed to encode record", map[string]string{"data": err.Error()})
	}
	return b, nil
}

// buildWhere turns equality conditions into JSONB predicates. A condition
// matches a scalar field by text value or an array field by membership.
func buildWhere(collection string, conds []Cond) (string, []any, error) {
	clauses := []string{"collection = $1"}
	args := []any{collection}

	for _, c := range conds {
		if c.Field == FieldID {
			args = append(args, scalarString(c.Value))
			clauses = append(clauses, fmt.Sprintf("id = $%d", len(args)))
			continue
		}
		if !fieldNamePattern.MatchString(c.Field) {
			return "", nil, infra.NewValidationErr("invalid filter", map[string]string{c.Field: "invalid field name"})
		}
		args = append(args, scalarString(c.Value))
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(data->>'%[1]s' = $%[2]d OR (jsonb_typeof(data->'%[1]s') = 'array' AND data->'%[1]s' ? $%[2]d))",
			c.Field, n))
	}
	return strings.Join(clauses, " AND "), args, nil
}

func buildOrderBy(sortSpec string) (string, error) {
	if sortSpec == "" {
		return "created ASC, id ASC", nil
	}
	dir := "ASC"
	field := sortSpec
	if strings.HasPrefix(sortSpec, "-") {
		dir = "DESC"
		field = sortSpec[1:]
	}
	switch field {
	case FieldCreated, FieldUpdated, FieldID:
		return field + " " + dir, nil
	}
	if !fieldNamePattern.MatchString(field) {
		return "", infra.NewValidationErr("invalid sort", map[string]string{field: "invalid field name"})
	}
	return fmt.Sprintf("data->'%s' %s, id ASC", field, dir), nil
}
