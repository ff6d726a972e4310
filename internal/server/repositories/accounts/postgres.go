package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/passguard/passguard/internal/common"
	"github.com/passguard/passguard/internal/dbx"
	"github.com/passguard/passguard/internal/server/models"
)

const uniqueViolation = "23505"

const accountColumns = `id, user_id, service, username, ciphertext, nonce,
	strength, breached, breach_checked, has_2fa, last_changed, version`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + `
		 FROM accounts
		 WHERE user_id = $1
		 ORDER BY service
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		a := &models.Account{}
		if err := scanAccount(rows.Scan, a); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByService(ctx context.Context, userID, service string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + `
		 FROM accounts
		 WHERE user_id = $1 AND service = $2
		 `

	a := &models.Account{}
	err := scanAccount(r.db.QueryRowContext(ctx, query, userID, service).Scan, a)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts
		     (user_id, service, username, ciphertext, nonce,
		      strength, breached, breach_checked, has_2fa, last_changed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, version
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.UserID, account.Service, account.Username,
		account.Ciphertext, account.Nonce,
		account.Strength, account.Breached, account.BreachChecked,
		account.Has2FA, account.LastChanged).
		Scan(&account.ID, &account.Version)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) Update(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`UPDATE accounts
		 SET username = $4, ciphertext = $5, nonce = $6,
		     strength = $7, breached = $8, breach_checked = $9,
		     has_2fa = $10, last_changed = $11, version = version + 1
		 WHERE user_id = $1 AND service = $2 AND version = $3
		 RETURNING version
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.UserID, account.Service, account.Version,
		account.Username, account.Ciphertext, account.Nonce,
		account.Strength, account.Breached, account.BreachChecked,
		account.Has2FA, account.LastChanged).
		Scan(&account.Version)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the row is gone or someone else bumped the version.
			if _, getErr := r.GetByService(ctx, account.UserID, account.Service); getErr != nil {
				return nil, getErr
			}
			return nil, common.ErrVersionConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, service string) error {
	query :=
		`DELETE FROM accounts
		 WHERE user_id = $1 AND service = $2
		 `

	res, err := r.db.ExecContext(ctx, query, userID, service)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanFunc func(dest ...any) error

func scanAccount(scan scanFunc, a *models.Account) error {
	return scan(&a.ID, &a.UserID, &a.Service, &a.Username,
		&a.Ciphertext, &a.Nonce, &a.Strength, &a.Breached, &a.BreachChecked,
		&a.Has2FA, &a.LastChanged, &a.Version)
}
