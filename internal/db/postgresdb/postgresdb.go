// Package postgresdb provides a PostgreSQL-based implementation of the storage
// interface for persisting users and tracked links.
// Schema management is handled by goose migrations at startup.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/linktrack/internal/models"
)

// Postgres error codes relevant to the schema constraints.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresDB is a PostgreSQL-backed implementation of the linktrack storage.
// It handles all persistence operations via a PostgreSQL database connection.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables resetting the database schema before migration.
// It can be used for test setups or development purposes.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
// Optionally accepts initialization options, such as WithDBPreReset.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil, fmt.Errorf("reset database before migration: %w", err)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return result, nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// CreateUser inserts a new user record into the database.
// A violated username or email uniqueness constraint is reported
// as models.ErrDuplicateUser.
func (db *PostgresDB) CreateUser(ctx context.Context, username, email string) (*models.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO users (username, email) VALUES ($1, $2) RETURNING id`,
		username,
		email,
	)

	usr := models.User{
		Username: username,
		Email:    email,
	}
	if err := row.Scan(&usr.ID); err != nil {
		if isPgError(err, pgUniqueViolation) {
			return nil, models.ErrDuplicateUser
		}
		return nil, err
	}

	return &usr, nil
}

// FindUserByUsername fetches a user by username.
// Returns models.ErrUserNotFound when no row matches.
func (db *PostgresDB) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, username, email FROM users WHERE username = $1`,
		username,
	)

	var usr models.User
	if err := row.Scan(&usr.ID, &usr.Username, &usr.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}

	return &usr, nil
}

// FindUserByID fetches a user by their UUID.
// Returns models.ErrUserNotFound when no row matches.
func (db *PostgresDB) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, username, email FROM users WHERE id = $1`,
		userID,
	)

	var usr models.User
	if err := row.Scan(&usr.ID, &usr.Username, &usr.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}

	return &usr, nil
}

// CreateLink inserts a new link owned by an existing user. The owner
// foreign key is enforced by the schema; a violation is reported as
// models.ErrUnknownOwner.
func (db *PostgresDB) CreateLink(ctx context.Context, ownerID, url string, initialVisits int64) (*models.Link, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO links (owner_id, url, visits)
				VALUES ($1, $2, $3)
				RETURNING id, last_visited
		`,
		ownerID,
		url,
		initialVisits,
	)

	link := models.Link{
		OwnerID: ownerID,
		URL:     url,
		Visits:  initialVisits,
	}
	if err := row.Scan(&link.ID, &link.LastVisited); err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return nil, models.ErrUnknownOwner
		}
		return nil, err
	}

	return &link, nil
}

// FindLinksByOwner returns every link owned by the given user.
func (db *PostgresDB) FindLinksByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT id, owner_id, url, visits, last_visited
				FROM links
				WHERE owner_id = $1
		`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Link
	for rows.Next() {
		var link models.Link
		err = rows.Scan(&link.ID, &link.OwnerID, &link.URL, &link.Visits, &link.LastVisited)
		if err != nil {
			return nil, err
		}

		result = append(result, link)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// FindAllLinksWithOwners returns every link joined with its owning user.
func (db *PostgresDB) FindAllLinksWithOwners(ctx context.Context) ([]models.OwnedLink, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT links.id, links.owner_id, links.url, links.visits, links.last_visited,
					users.id, users.username, users.email
				FROM links
					JOIN users ON users.id = links.owner_id
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.OwnedLink
	for rows.Next() {
		var item models.OwnedLink
		err = rows.Scan(
			&item.Link.ID,
			&item.Link.OwnerID,
			&item.Link.URL,
			&item.Link.Visits,
			&item.Link.LastVisited,
			&item.Owner.ID,
			&item.Owner.Username,
			&item.Owner.Email,
		)
		if err != nil {
			return nil, err
		}

		result = append(result, item)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateLinkVisits overwrites the visit count and last-visited timestamp
// of the given link.
func (db *PostgresDB) UpdateLinkVisits(ctx context.Context, linkID string, visits int64, visitedAt time.Time) error {
	_, err := db.database.ExecContext(
		ctx,
		`UPDATE links SET visits = $2, last_visited = $3 WHERE id = $1`,
		linkID,
		visits,
		visitedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	err := db.database.Close()
	if err != nil {
		return err
	}

	return nil
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf("drop public tables: %w", err)
	}
	return nil
}
