package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
)

// OrderRepository provides data access for order headers. Items live in
// OrderItemRepository; keeping TotalAmount in step with them is the caller's job.
type OrderRepository interface {
	List(ctx context.Context) ([]*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	Create(ctx context.Context, o *models.Order) error
	Update(ctx context.Context, o *models.Order, version int64) error
	// Lock holds the order row until the transaction ends so line writes
	// against the same order recompute its total one at a time.
	Lock(ctx context.Context, id int64) error
	// SetTotal stores a recomputed total and bumps the version, returning the new one.
	SetTotal(ctx context.Context, id int64, total decimal.Decimal) (int64, error)
}

type orderRepository struct{}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository() OrderRepository {
	return &orderRepository{}
}

var _ OrderRepository = (*orderRepository)(nil)

const orderSelect = `
	SELECT o.id, o.order_date, o.order_number, o.customer_id, o.total_amount, o.version,
	       cu.first_name, cu.last_name, ci.name, co.name
	FROM orders o
	JOIN customers cu ON cu.id = o.customer_id
	JOIN cities ci ON ci.id = cu.city_id
	JOIN countries co ON co.id = ci.country_id`

func scanOrder(row scanner) (*models.Order, error) {
	o := &models.Order{}
	var first, last string
	err := row.Scan(&o.ID, &o.OrderDate, &o.OrderNumber, &o.CustomerID, &o.TotalAmount, &o.Version,
		&first, &last, &o.CityName, &o.CountryName)
	if err != nil {
		return nil, err
	}
	o.CustomerName = models.CustomerDisplayName(first, last)
	return o, nil
}

func (r *orderRepository) List(ctx context.Context) ([]*models.Order, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, orderSelect+` ORDER BY o.order_date, o.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", database.ClassifyError(err))
	}
	return orders, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	o, err := scanOrder(q.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(integrity.KindOrder, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", database.ClassifyError(err))
	}
	return o, nil
}

func (r *orderRepository) Create(ctx context.Context, o *models.Order) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, `
		INSERT INTO orders (order_date, order_number, customer_id, total_amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, version`,
		o.OrderDate, o.OrderNumber, o.CustomerID, o.TotalAmount,
	).Scan(&o.ID, &o.Version)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *orderRepository) Update(ctx context.Context, o *models.Order, version int64) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, `
		UPDATE orders
		SET order_date = $2, order_number = $3, customer_id = $4, total_amount = $5,
		    version = version + 1
		WHERE id = $1 AND version = $6
		RETURNING version`,
		o.ID, o.OrderDate, o.OrderNumber, o.CustomerID, o.TotalAmount, version,
	).Scan(&o.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return staleOrMissing(ctx, q, integrity.KindOrder, o.ID, version)
	}
	if err != nil {
		return fmt.Errorf("failed to update order: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *orderRepository) SetTotal(ctx context.Context, id int64, total decimal.Decimal) (int64, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return 0, err
	}

	var version int64
	err = q.QueryRow(ctx, `
		UPDATE orders SET total_amount = $2, version = version + 1
		WHERE id = $1
		RETURNING version`, id, total).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, notFound(integrity.KindOrder, id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update order total: %w", database.ClassifyError(err))
	}
	return version, nil
}

func (r *orderRepository) Lock(ctx context.Context, id int64) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	var locked int64
	err = q.QueryRow(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound(integrity.KindOrder, id)
	}
	if err != nil {
		return fmt.Errorf("failed to lock order: %w", database.ClassifyError(err))
	}
	return nil
}
