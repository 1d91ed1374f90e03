package domain

import "time"

// ExtractedItem is one (name, quantity) pair parsed from customer text.
type ExtractedItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ExtractedOrder is the structured result of order extraction.
type ExtractedOrder struct {
	Items []ExtractedItem `json:"items"`
}

// Product is a catalog entry of a business.
type Product struct {
	BusinessID string
	ProductID  string
	Name       string
	Price      float64
	Stock      int
}

// OrderItem is a priced order line.
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	Price     float64
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment tracks how an order is (going to be) paid. Method stays
// "PENDING" until the customer picks UPI, ONLINE or COD.
type Payment struct {
	Method string
	Status PaymentStatus
	Amount float64
}

// Order is a persisted customer order.
type Order struct {
	ID          string
	BusinessID  string
	CustomerID  string
	Items       []OrderItem
	TotalAmount float64
	Status      OrderStatus
	Payment     Payment
	Language    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
