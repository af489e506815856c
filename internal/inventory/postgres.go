package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Suzzal26/Your-IT-Center/internal/domain"
)

// PostgresStore keeps stock in the products table. The reservation is a
// single conditional UPDATE, so concurrent reservations against one product
// serialize on the row and can never drive stock below zero.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	var p domain.Product
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(description, ''), price, stock, category, COALESCE(subcategory, ''), COALESCE(image, ''), created_at, updated_at
		 FROM products WHERE id=$1`, string(id)).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category, &p.Subcategory, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrProductNotFound)
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *PostgresStore) Reserve(ctx context.Context, id domain.ProductID, qty int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = now()
		 WHERE id = $1 AND stock >= $2`, string(id), qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing product from too little stock.
		p, gerr := s.Get(ctx, id)
		if gerr != nil {
			return gerr
		}
		return fmt.Errorf("product %q has %d in stock, requested %d: %w", p.Name, p.Stock, qty, domain.ErrInsufficientStock)
	}
	return nil
}

func (s *PostgresStore) Release(ctx context.Context, id domain.ProductID, qty int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`, string(id), qty)
	return err
}
