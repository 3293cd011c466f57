package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nlevin/shortly/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUniqueViolation = errors.New("unique violation")
)

type PostgresRepository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresRepository{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver,
	)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (p *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query, args, err := p.sb.
		Insert("users").
		Columns("id", "name", "email", "password_hash", "created_at", "updated_at").
		Values(user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrUniqueViolation
		}
		return fmt.Errorf("execute query: %w", err)
	}

	return nil
}

func (p *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query, args, err := p.sb.
		Select("id", "name", "email", "password_hash", "created_at", "updated_at").
		From("users").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user models.User
	err = p.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}

	return &user, nil
}

func (p *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query, args, err := p.sb.
		Select("id", "name", "email", "password_hash", "created_at", "updated_at").
		From("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user models.User
	err = p.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}

	return &user, nil
}

func (p *PostgresRepository) CreateURL(ctx context.Context, url *models.URL) error {
	query, args, err := p.sb.
		Insert("urls").
		Columns("id", "original_url", "hash", "user_id", "created_at").
		Values(url.ID, url.OriginalURL, url.Hash, url.UserID, url.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrUniqueViolation
		}
		return fmt.Errorf("execute query: %w", err)
	}

	return nil
}

// GetURLByHash returns the live URL with the given hash. Soft-deleted rows
// are invisible to this lookup.
func (p *PostgresRepository) GetURLByHash(ctx context.Context, hash string) (*models.URL, error) {
	query, args, err := p.sb.
		Select("id", "original_url", "hash", "user_id", "created_at", "deleted_at").
		From("urls").
		Where(squirrel.Eq{"hash": hash, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var url models.URL
	err = p.pool.QueryRow(ctx, query, args...).Scan(
		&url.ID, &url.OriginalURL, &url.Hash, &url.UserID, &url.CreatedAt, &url.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}

	return &url, nil
}

// GetURLByID returns the URL row regardless of deletion state; callers decide
// how a soft-deleted row is reported.
func (p *PostgresRepository) GetURLByID(ctx context.Context, id string) (*models.URL, error) {
	query, args, err := p.sb.
		Select("id", "original_url", "hash", "user_id", "created_at", "deleted_at").
		From("urls").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var url models.URL
	err = p.pool.QueryRow(ctx, query, args...).Scan(
		&url.ID, &url.OriginalURL, &url.Hash, &url.UserID, &url.CreatedAt, &url.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}

	return &url, nil
}

func (p *PostgresRepository) MarkURLDeleted(ctx context.Context, id string, deletedAt time.Time) error {
	query, args, err := p.sb.
		Update("urls").
		Set("deleted_at", deletedAt).
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	cmdTag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *PostgresRepository) ListURLs(ctx context.Context, userID string, offset, limit int) ([]models.URL, error) {
	query, args, err := p.sb.
		Select("id", "original_url", "hash", "user_id", "created_at", "deleted_at").
		From("urls").
		Where(squirrel.Eq{"user_id": userID, "deleted_at": nil}).
		OrderBy("created_at ASC").
		Offset(uint64(offset)).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	urls := make([]models.URL, 0)
	for rows.Next() {
		var url models.URL
		if err := rows.Scan(
			&url.ID, &url.OriginalURL, &url.Hash, &url.UserID, &url.CreatedAt, &url.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return urls, nil
}

func (p *PostgresRepository) CountURLs(ctx context.Context, userID string) (int, error) {
	query, args, err := p.sb.
		Select("COUNT(*)").
		From("urls").
		Where(squirrel.Eq{"user_id": userID, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("query row: %w", err)
	}

	return count, nil
}

func (p *PostgresRepository) CreateURLAccess(ctx context.Context, urlID string) error {
	query, args, err := p.sb.
		Insert("url_access").
		Columns("url_id").
		Values(urlID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("execute query: %w", err)
	}

	return nil
}

func (p *PostgresRepository) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresRepository) Close() {
	p.pool.Close()
}
