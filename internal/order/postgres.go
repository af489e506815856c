package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Suzzal26/Your-IT-Center/internal/domain"
)

// PostgresRepository persists orders in the orders/order_items tables, with
// order_idempotency backing Idempotency-Key replay and users providing the
// purchaser join.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, o *domain.Order, idempotencyKey string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO orders(id, user_id, shipping_name, shipping_phone, shipping_address, shipping_city,
			shipping_lat, shipping_lng, total_amount, payment_method, status, cancel_reason, is_verified, created_at, updated_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		string(o.ID), string(o.UserID), o.Shipping.Name, o.Shipping.Phone, o.Shipping.Address, o.Shipping.City,
		o.Shipping.Lat, o.Shipping.Lng, o.TotalAmount, string(o.PaymentMethod), string(o.Status), o.CancelReason,
		o.IsVerified, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	for pos, it := range o.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items(order_id, position, product_id, name, price, quantity)
			 VALUES($1, $2, $3, $4, $5, $6)`,
			string(o.ID), pos, string(it.ProductID), it.Name, it.Price, it.Quantity)
		if err != nil {
			return err
		}
	}

	if idempotencyKey != "" {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_idempotency(idempotency_key, order_id) VALUES($1, $2)`,
			idempotencyKey, string(o.ID))
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateIdempotencyKey
			}
			return err
		}
	}

	return tx.Commit(ctx)
}

const orderColumns = `o.id, o.user_id, o.shipping_name, o.shipping_phone, o.shipping_address, o.shipping_city,
	o.shipping_lat, o.shipping_lng, o.total_amount, o.payment_method, o.status, o.cancel_reason, o.is_verified,
	o.created_at, o.updated_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Shipping.Name, &o.Shipping.Phone, &o.Shipping.Address, &o.Shipping.City,
		&o.Shipping.Lat, &o.Shipping.Lng, &o.TotalAmount, &o.PaymentMethod, &o.Status, &o.CancelReason,
		&o.IsVerified, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *PostgresRepository) Get(ctx context.Context, id domain.OrderID) (domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.id=$1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrOrderNotFound)
	}
	if err != nil {
		return domain.Order{}, err
	}
	if err := r.loadItems(ctx, map[domain.OrderID]*domain.Order{o.ID: &o}); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) GetWithUser(ctx context.Context, id domain.OrderID) (domain.OrderWithUser, error) {
	var ow domain.OrderWithUser
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+`, COALESCE(u.name, ''), COALESCE(u.email, '')
		 FROM orders o LEFT JOIN users u ON u.id = o.user_id WHERE o.id=$1`, string(id))
	err := row.Scan(&ow.ID, &ow.UserID, &ow.Shipping.Name, &ow.Shipping.Phone, &ow.Shipping.Address, &ow.Shipping.City,
		&ow.Shipping.Lat, &ow.Shipping.Lng, &ow.TotalAmount, &ow.PaymentMethod, &ow.Status, &ow.CancelReason,
		&ow.IsVerified, &ow.CreatedAt, &ow.UpdatedAt, &ow.User.Name, &ow.User.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.OrderWithUser{}, fmt.Errorf("order %s: %w", id, domain.ErrOrderNotFound)
	}
	if err != nil {
		return domain.OrderWithUser{}, err
	}
	if err := r.loadItems(ctx, map[domain.OrderID]*domain.Order{ow.ID: &ow.Order}); err != nil {
		return domain.OrderWithUser{}, err
	}
	return ow, nil
}

func (r *PostgresRepository) OrderIDByIdempotencyKey(ctx context.Context, key string) (domain.OrderID, error) {
	var orderID string
	err := r.pool.QueryRow(ctx,
		`SELECT order_id FROM order_idempotency WHERE idempotency_key=$1`, key).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("idempotency key: %w", domain.ErrOrderNotFound)
	}
	if err != nil {
		return "", err
	}
	return domain.OrderID(orderID), nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]domain.OrderWithUser, error) {
	return r.listJoined(ctx, ``)
}

func (r *PostgresRepository) ListDelivered(ctx context.Context) ([]domain.OrderWithUser, error) {
	return r.listJoined(ctx, `WHERE o.status = 'delivered'`)
}

func (r *PostgresRepository) listJoined(ctx context.Context, where string) ([]domain.OrderWithUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+`, COALESCE(u.name, ''), COALESCE(u.email, '')
		 FROM orders o LEFT JOIN users u ON u.id = o.user_id `+where+`
		 ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OrderWithUser
	byID := make(map[domain.OrderID]*domain.Order)
	for rows.Next() {
		var ow domain.OrderWithUser
		if err := rows.Scan(&ow.ID, &ow.UserID, &ow.Shipping.Name, &ow.Shipping.Phone, &ow.Shipping.Address, &ow.Shipping.City,
			&ow.Shipping.Lat, &ow.Shipping.Lng, &ow.TotalAmount, &ow.PaymentMethod, &ow.Status, &ow.CancelReason,
			&ow.IsVerified, &ow.CreatedAt, &ow.UpdatedAt, &ow.User.Name, &ow.User.Email); err != nil {
			return nil, err
		}
		out = append(out, ow)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		byID[out[i].ID] = &out[i].Order
	}
	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID domain.UserID) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.user_id=$1 ORDER BY o.created_at DESC`, string(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	byID := make(map[domain.OrderID]*domain.Order, len(out))
	for i := range out {
		byID[out[i].ID] = &out[i]
	}
	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

// loadItems fills Items for every order in byID with one query.
func (r *PostgresRepository) loadItems(ctx context.Context, byID map[domain.OrderID]*domain.Order) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, string(id))
	}
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, name, price, quantity
		 FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var it domain.LineItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return err
		}
		if o, ok := byID[domain.OrderID(orderID)]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id domain.OrderID, from, to domain.OrderStatus, cancelReason string) (domain.Order, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status=$3, cancel_reason = CASE WHEN $4 <> '' THEN $4 ELSE cancel_reason END, updated_at=now()
		 WHERE id=$1 AND status=$2`, string(id), string(from), string(to), cancelReason)
	if err != nil {
		return domain.Order{}, err
	}
	if tag.RowsAffected() == 0 {
		// Either the order is gone or a concurrent transition won.
		current, gerr := r.Get(ctx, id)
		if gerr != nil {
			return domain.Order{}, gerr
		}
		return domain.Order{}, fmt.Errorf("order %s is %s, expected %s: %w", id, current.Status, from, domain.ErrInvalidTransition)
	}
	return r.Get(ctx, id)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
