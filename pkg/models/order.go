package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Order is placed by one Customer and exclusively owns its items.
// TotalAmount always equals OrderTotal(Items) once committed.
type Order struct {
	ID          int64           `json:"id"`
	OrderDate   Date            `json:"order_date"`
	OrderNumber string          `json:"order_number"`
	CustomerID  int64           `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Version     int64           `json:"version"`

	Items []*OrderItem `json:"items,omitempty"`

	CustomerName string `json:"customer_name,omitempty"`
	CityName     string `json:"city_name,omitempty"`
	CountryName  string `json:"country_name,omitempty"`
}

// OrderItem is one line of an Order. UnitPrice is the product price
// snapshotted when the line was written; later product price changes do not
// touch it.
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	Version   int64           `json:"version"`

	OrderNumber string `json:"order_number,omitempty"`
	ProductName string `json:"product_name,omitempty"`
}

// LineTotal is UnitPrice × Quantity in exact decimal arithmetic.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// OrderTotal sums the line totals of items. An empty set totals zero.
func OrderTotal(items []*OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// DraftState is the lifecycle position of an OrderDraft.
type DraftState string

const (
	// DraftOpen is being composed; lines may be added, changed and removed.
	DraftOpen DraftState = "draft"
	// DraftCommitted has been persisted and is read-only until reopened by Edit.
	DraftCommitted DraftState = "committed"
)

// DraftLine is a line being composed. A nil UnitPrice is filled from the
// product's current price when the draft is committed.
type DraftLine struct {
	ProductID int64            `json:"product_id" validate:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	Quantity  int64            `json:"quantity" validate:"gte=0"`
}

// OrderDraft is the editable form of an Order: header fields plus the full
// replacement set of lines. Version is the token the draft was opened at and
// is ignored for new orders.
type OrderDraft struct {
	OrderDate   Date        `json:"order_date" validate:"required"`
	OrderNumber string      `json:"order_number" validate:"max=50"`
	CustomerID  int64       `json:"customer_id" validate:"required"`
	Lines       []DraftLine `json:"items" validate:"dive"`
	Version     int64       `json:"version"`

	state DraftState
}

// NewOrderDraft returns an empty open draft.
func NewOrderDraft(date Date, orderNumber string, customerID int64) *OrderDraft {
	return &OrderDraft{
		OrderDate:   date,
		OrderNumber: orderNumber,
		CustomerID:  customerID,
		state:       DraftOpen,
	}
}

// DraftFromOrder reopens a committed order for editing. Existing lines keep
// their snapshotted prices.
func DraftFromOrder(o *Order) *OrderDraft {
	d := NewOrderDraft(o.OrderDate, o.OrderNumber, o.CustomerID)
	d.Version = o.Version
	for _, item := range o.Items {
		price := item.UnitPrice
		d.Lines = append(d.Lines, DraftLine{ProductID: item.ProductID, UnitPrice: &price, Quantity: item.Quantity})
	}
	return d
}

// State reports where the draft is in its lifecycle. A zero-value draft
// decoded from a request is open.
func (d *OrderDraft) State() DraftState {
	if d.state == "" {
		return DraftOpen
	}
	return d.state
}

// AddLine appends a line to an open draft.
func (d *OrderDraft) AddLine(line DraftLine) error {
	if d.State() != DraftOpen {
		return fmt.Errorf("draft is %s", d.State())
	}
	d.Lines = append(d.Lines, line)
	return nil
}

// RemoveLine drops the line at index i from an open draft.
func (d *OrderDraft) RemoveLine(i int) error {
	if d.State() != DraftOpen {
		return fmt.Errorf("draft is %s", d.State())
	}
	if i < 0 || i >= len(d.Lines) {
		return fmt.Errorf("line %d out of range", i)
	}
	d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
	return nil
}

// MarkCommitted freezes the draft after it has been persisted.
func (d *OrderDraft) MarkCommitted(version int64) {
	d.Version = version
	d.state = DraftCommitted
}

// Reopen returns a committed draft to the open state for another edit.
func (d *OrderDraft) Reopen() {
	d.state = DraftOpen
}

// Items materializes the lines as order items. Every line must have a price.
func (d *OrderDraft) Items(orderID int64) ([]*OrderItem, error) {
	return LineItems(orderID, d.Lines)
}

// LineItems converts priced draft lines into order items for orderID.
func LineItems(orderID int64, lines []DraftLine) ([]*OrderItem, error) {
	items := make([]*OrderItem, 0, len(lines))
	for i, line := range lines {
		if line.UnitPrice == nil {
			return nil, fmt.Errorf("line %d has no unit price", i)
		}
		items = append(items, &OrderItem{
			OrderID:   orderID,
			ProductID: line.ProductID,
			UnitPrice: *line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	return items, nil
}
