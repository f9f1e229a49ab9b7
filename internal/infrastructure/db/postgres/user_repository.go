package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/folioapp/portfolio-api/internal/core/domain"
)

const userColumns = `id, first_name, last_name, username, email, password_hash,
       is_admin, is_verified, email_verify_token, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		u     domain.User
		nonce sql.NullString
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.PasswordHash,
		&u.IsAdmin, &u.IsVerified, &nonce, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.EmailVerifyToken = nonce.String
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (id, first_name, last_name, username, email, password_hash,
                   is_admin, is_verified, email_verify_token)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
         RETURNING created_at, updated_at`

	u := *user
	u.ID = uuid.NewString()
	u.Email = domain.NormalizeEmail(u.Email)

	err := r.db.QueryRowContext(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash,
		u.IsAdmin, u.IsVerified, nullString(u.EmailVerifyToken),
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if mapped := mapUserWriteError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, `id = $1`, id)
}

func (r *UserRepository) FindByLogin(ctx context.Context, identifier string) (*domain.User, error) {
	return r.findOne(ctx, `lower(username) = lower($1) OR email = lower($1) LIMIT 1`, identifier)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `lower(username) = lower($1)`, username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, `email = $1`, domain.NormalizeEmail(email))
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	if !validID(user.ID) {
		return nil, domain.ErrUserNotFound
	}
	query := `UPDATE users
            SET first_name = $2, last_name = $3, username = $4, email = $5, password_hash = $6,
                is_admin = $7, is_verified = $8, email_verify_token = $9, updated_at = now()
          WHERE id = $1
      RETURNING created_at, updated_at`

	u := *user
	u.Email = domain.NormalizeEmail(u.Email)

	err := r.db.QueryRowContext(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash,
		u.IsAdmin, u.IsVerified, nullString(u.EmailVerifyToken),
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		if mapped := mapUserWriteError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

// Delete removes the user's portfolios and then the user in one transaction.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrUserNotFound
	}
	return WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM portfolios WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("delete portfolios: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if n == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}
