package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
)

// OrderItemRepository provides data access for order lines.
type OrderItemRepository interface {
	List(ctx context.Context) ([]*models.OrderItem, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*models.OrderItem, error)
	GetByID(ctx context.Context, id int64) (*models.OrderItem, error)
	Create(ctx context.Context, item *models.OrderItem) error
	// CreateBatch inserts items in one round trip, setting their ids and versions.
	CreateBatch(ctx context.Context, items []*models.OrderItem) error
	Update(ctx context.Context, item *models.OrderItem, version int64) error
	// DeleteByOrder removes every line of an order, for full replacement on edit.
	DeleteByOrder(ctx context.Context, orderID int64) (int64, error)
}

type orderItemRepository struct{}

// NewOrderItemRepository creates a new OrderItemRepository.
func NewOrderItemRepository() OrderItemRepository {
	return &orderItemRepository{}
}

var _ OrderItemRepository = (*orderItemRepository)(nil)

const orderItemSelect = `
	SELECT i.id, i.order_id, i.product_id, i.unit_price, i.quantity, i.version,
	       o.order_number, p.product_name
	FROM order_items i
	JOIN orders o ON o.id = i.order_id
	JOIN products p ON p.id = i.product_id`

const orderItemInsert = `
	INSERT INTO order_items (order_id, product_id, unit_price, quantity)
	VALUES ($1, $2, $3, $4)
	RETURNING id, version`

func scanOrderItem(row scanner) (*models.OrderItem, error) {
	i := &models.OrderItem{}
	err := row.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.UnitPrice, &i.Quantity, &i.Version,
		&i.OrderNumber, &i.ProductName)
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (r *orderItemRepository) query(ctx context.Context, sql string, args ...any) ([]*models.OrderItem, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	var items []*models.OrderItem
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", database.ClassifyError(err))
	}
	return items, nil
}

func (r *orderItemRepository) List(ctx context.Context) ([]*models.OrderItem, error) {
	return r.query(ctx, orderItemSelect+` ORDER BY i.order_id, i.id`)
}

func (r *orderItemRepository) ListByOrder(ctx context.Context, orderID int64) ([]*models.OrderItem, error) {
	return r.query(ctx, orderItemSelect+` WHERE i.order_id = $1 ORDER BY i.id`, orderID)
}

func (r *orderItemRepository) GetByID(ctx context.Context, id int64) (*models.OrderItem, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	i, err := scanOrderItem(q.QueryRow(ctx, orderItemSelect+` WHERE i.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(integrity.KindOrderItem, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order item: %w", database.ClassifyError(err))
	}
	return i, nil
}

func (r *orderItemRepository) Create(ctx context.Context, item *models.OrderItem) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, orderItemInsert, item.OrderID, item.ProductID, item.UnitPrice, item.Quantity).
		Scan(&item.ID, &item.Version)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *orderItemRepository) CreateBatch(ctx context.Context, items []*models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(orderItemInsert, item.OrderID, item.ProductID, item.UnitPrice, item.Quantity).
			QueryRow(func(row pgx.Row) error {
				return row.Scan(&item.ID, &item.Version)
			})
	}

	br := q.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to create order items: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *orderItemRepository) Update(ctx context.Context, item *models.OrderItem, version int64) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, `
		UPDATE order_items
		SET order_id = $2, product_id = $3, unit_price = $4, quantity = $5, version = version + 1
		WHERE id = $1 AND version = $6
		RETURNING version`,
		item.ID, item.OrderID, item.ProductID, item.UnitPrice, item.Quantity, version,
	).Scan(&item.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return staleOrMissing(ctx, q, integrity.KindOrderItem, item.ID, version)
	}
	if err != nil {
		return fmt.Errorf("failed to update order item: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *orderItemRepository) DeleteByOrder(ctx context.Context, orderID int64) (int64, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return 0, err
	}

	result, err := q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete order items: %w", database.ClassifyDeleteError(err))
	}
	return result.RowsAffected(), nil
}
