package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hiredesk/internal/utils"
	"hiredesk/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationTableName = "applications"

var applicationColumns = utils.StructTagValues(types.Application{})

type ApplicationRepository struct {
	pool *pgxpool.Pool
}

func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

// Create inserts a new application. The ID, creation timestamp and pending
// status are assigned here, not by the caller.
func (r *ApplicationRepository) Create(ctx context.Context, app *types.Application) error {

	app.ID = utils.NanoID()
	app.CreatedAt = time.Now()
	if app.Status == "" {
		app.Status = types.ApplicationStatusPending
	}
	if app.Documents == nil {
		app.Documents = types.DocumentSet{}
	}

	query, args, err := psql().
		Insert(applicationTableName).
		SetMap(utils.StructToMap(app)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build application insert: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}

	return nil
}

// Application retrieves a single application by ID.
func (r *ApplicationRepository) Application(ctx context.Context, id string) (*types.Application, error) {

	query, args, err := psql().
		Select(applicationColumns...).
		From(applicationTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build application query: %w", err)
	}

	var app = new(types.Application)
	err = pgxscan.Get(ctx, r.pool, app, query, args...)
	if pgxscan.NotFound(err) {
		return nil, types.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select application: %w", err)
	}

	return app, nil
}

// Applications lists applications matching the filter. Search matches
// case-insensitively over the applicant's full name, email and role; status
// is an exact match unless empty or "all". Both conditions combine with AND.
func (r *ApplicationRepository) Applications(ctx context.Context, filter types.ApplicationFilter) ([]*types.Application, error) {

	builder := psql().
		Select(applicationColumns...).
		From(applicationTableName)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"personal_info->>'fullName'": pattern},
			sq.ILike{"personal_info->>'email'": pattern},
			sq.ILike{"role": pattern},
		})
	}

	if filter.Status != "" && filter.Status != "all" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}

	query, args, err := builder.OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build applications query: %w", err)
	}

	var apps = make([]*types.Application, 0)
	if err := pgxscan.Select(ctx, r.pool, &apps, query, args...); err != nil {
		return nil, fmt.Errorf("select applications: %w", err)
	}

	return apps, nil
}

// SubmittedOn reports whether an application with the same email and phone
// was already submitted on the given calendar day. The check is advisory:
// two concurrent submissions can both pass it before either inserts.
func (r *ApplicationRepository) SubmittedOn(ctx context.Context, email, phone string, day time.Time) (bool, error) {

	query, args, err := psql().
		Select("1").
		From(applicationTableName).
		Where(sq.Eq{
			"personal_info->>'email'": email,
			"personal_info->>'phone'": phone,
		}).
		Where(sq.Expr("created_at::date = ?", day.Format("2006-01-02"))).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build duplicate check query: %w", err)
	}

	var one int
	err = pgxscan.Get(ctx, r.pool, &one, query, args...)
	if pgxscan.NotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check duplicate application: %w", err)
	}

	return true, nil
}

// UpdateStatus overwrites the status of an application unconditionally and
// returns the updated row. Any of the three statuses may follow any other.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status types.ApplicationStatus) (*types.Application, error) {

	query, args, err := psql().
		Update(applicationTableName).
		Set("status", status).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(applicationColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build status update: %w", err)
	}

	var app = new(types.Application)
	err = pgxscan.Get(ctx, r.pool, app, query, args...)
	if pgxscan.NotFound(err) {
		return nil, types.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	return app, nil
}

// SetOfferLetter attaches an offer letter reference to an application,
// replacing any previous reference, and returns the updated row.
func (r *ApplicationRepository) SetOfferLetter(ctx context.Context, id string, doc *types.DocumentMeta) (*types.Application, error) {

	query, args, err := psql().
		Update(applicationTableName).
		Set("offer_letter", doc).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(applicationColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build offer letter update: %w", err)
	}

	var app = new(types.Application)
	err = pgxscan.Get(ctx, r.pool, app, query, args...)
	if pgxscan.NotFound(err) {
		return nil, types.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set offer letter: %w", err)
	}

	return app, nil
}

// ClearOfferLetter nulls the offer letter reference.
func (r *ApplicationRepository) ClearOfferLetter(ctx context.Context, id string) error {

	query, args, err := psql().
		Update(applicationTableName).
		Set("offer_letter", nil).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build offer letter clear: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("clear offer letter: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return types.ErrApplicationNotFound
	}

	return nil
}

type fileRefsRow struct {
	Documents   types.DocumentSet   `db:"documents"`
	OfferLetter *types.DocumentMeta `db:"offer_letter"`
}

// DeleteAll removes every application row in a single transaction and
// returns the stored paths the deleted rows referenced, so the caller can
// sweep the files afterwards. Deleting rows before files means a crash can
// only ever orphan files, never leave references to deleted files.
func (r *ApplicationRepository) DeleteAll(ctx context.Context) ([]string, error) {

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback(ctx)

	query, args, err := psql().
		Select("documents", "offer_letter").
		From(applicationTableName).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build file refs query: %w", err)
	}

	var rows []*fileRefsRow
	if err := pgxscan.Select(ctx, tx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select file refs: %w", err)
	}

	paths := make([]string, 0, len(rows))
	for _, row := range rows {
		for _, doc := range row.Documents {
			paths = append(paths, doc.StoredPath)
		}
		if row.OfferLetter != nil {
			paths = append(paths, row.OfferLetter.StoredPath)
		}
	}

	query, args, err = psql().Delete(applicationTableName).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build clear delete: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("delete applications: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit clear: %w", err)
	}

	return paths, nil
}
