package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/folioapp/portfolio-api/internal/core/domain"
)

const portfolioColumns = `id, title, description, detail, link, user_id, created_at, updated_at`

type PortfolioRepository struct {
	db DBTX
}

func NewPortfolioRepository(db DBTX) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

func scanPortfolio(row scanner) (*domain.Portfolio, error) {
	var p domain.Portfolio
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Detail, &p.Link, &p.UserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PortfolioRepository) Create(ctx context.Context, p *domain.Portfolio) (*domain.Portfolio, error) {
	if !validID(p.UserID) {
		return nil, domain.ErrUserNotFound
	}
	query := `INSERT INTO portfolios (id, title, description, detail, link, user_id)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING created_at, updated_at`

	out := *p
	out.ID = uuid.NewString()
	err := r.db.QueryRowContext(ctx, query,
		out.ID, out.Title, out.Description, out.Detail, out.Link, out.UserID,
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("insert portfolio: %w", err)
	}
	return &out, nil
}

func (r *PortfolioRepository) FindByID(ctx context.Context, id string) (*domain.Portfolio, error) {
	if !validID(id) {
		return nil, domain.ErrPortfolioNotFound
	}
	p, err := scanPortfolio(r.db.QueryRowContext(ctx, `SELECT `+portfolioColumns+` FROM portfolios WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("select portfolio: %w", err)
	}
	return p, nil
}

func (r *PortfolioRepository) List(ctx context.Context) ([]*domain.Portfolio, error) {
	return r.query(ctx, `SELECT `+portfolioColumns+` FROM portfolios ORDER BY created_at, id`)
}

func (r *PortfolioRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Portfolio, error) {
	if !validID(userID) {
		return []*domain.Portfolio{}, nil
	}
	return r.query(ctx, `SELECT `+portfolioColumns+` FROM portfolios WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

func (r *PortfolioRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Portfolio, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer rows.Close()

	out := []*domain.Portfolio{}
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("scan portfolio: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	return out, nil
}

func (r *PortfolioRepository) Update(ctx context.Context, p *domain.Portfolio) (*domain.Portfolio, error) {
	if !validID(p.ID) {
		return nil, domain.ErrPortfolioNotFound
	}
	query := `UPDATE portfolios
            SET title = $2, description = $3, detail = $4, link = $5, updated_at = now()
          WHERE id = $1
      RETURNING user_id, created_at, updated_at`

	out := *p
	err := r.db.QueryRowContext(ctx, query, out.ID, out.Title, out.Description, out.Detail, out.Link).
		Scan(&out.UserID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("update portfolio: %w", err)
	}
	return &out, nil
}

func (r *PortfolioRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrPortfolioNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete portfolio: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete portfolio: %w", err)
	}
	if n == 0 {
		return domain.ErrPortfolioNotFound
	}
	return nil
}
