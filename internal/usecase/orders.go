package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"orderbot/internal/domain"
	"orderbot/internal/repository"
)

// OrderRequest is what the bot knows when it creates an order.
type OrderRequest struct {
	BusinessID string
	CustomerID string
	Items      []domain.ExtractedItem
	Language   string
}

// OrderStore is the persistence the order service needs.
type OrderStore interface {
	GetProduct(ctx context.Context, businessID, name string) (domain.Product, error)
	CreateOrder(ctx context.Context, order domain.Order) error
}

// OrderService prices extracted items against the business catalog and
// stores the resulting order.
type OrderService struct {
	store OrderStore
	now   func() time.Time
}

func NewOrderService(store OrderStore) (*OrderService, error) {
	if store == nil {
		return nil, errors.New("usecase: order store must not be nil")
	}
	return &OrderService{store: store, now: time.Now}, nil
}

// CreateOrder creates a PENDING order. Unknown products fail with
// NOT_FOUND; insufficient stock fails with *OutOfStockError.
func (s *OrderService) CreateOrder(ctx context.Context, req OrderRequest) (domain.Order, error) {
	businessID := strings.TrimSpace(req.BusinessID)
	customerID := strings.TrimSpace(req.CustomerID)
	if businessID == "" || customerID == "" {
		return domain.Order{}, newError(ErrorInvalidInput, "missing_business_or_customer", nil)
	}
	items, err := mergeItems(req.Items)
	if err != nil {
		return domain.Order{}, err
	}
	if len(items) == 0 {
		return domain.Order{}, newError(ErrorInvalidInput, "no_items", nil)
	}

	lines := make([]domain.OrderItem, 0, len(items))
	var total float64
	for _, item := range items {
		product, err := s.store.GetProduct(ctx, businessID, item.Name)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Order{}, newError(ErrorNotFound, "unknown_product", err)
			}
			return domain.Order{}, newError(ErrorInternal, "product_lookup_error", err)
		}
		if product.Stock < item.Quantity {
			return domain.Order{}, &OutOfStockError{Item: product.Name, Requested: item.Quantity, Available: product.Stock}
		}
		lines = append(lines, domain.OrderItem{
			ProductID: product.ProductID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			Price:     product.Price,
		})
		total += product.Price * float64(item.Quantity)
	}

	now := s.now().UTC()
	order := domain.Order{
		ID:          "ORD" + strconv.FormatInt(now.UnixMilli(), 10),
		BusinessID:  businessID,
		CustomerID:  customerID,
		Items:       lines,
		TotalAmount: total,
		Status:      domain.OrderPending,
		Payment: domain.Payment{
			Method: "PENDING",
			Status: domain.PaymentPending,
			Amount: total,
		},
		Language:  req.Language,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return domain.Order{}, newError(ErrorInternal, "order_write_error", err)
	}
	return order, nil
}

// mergeItems sums quantities of items naming the same product so every
// product is touched once per order. A line above maxItemQuantity, before or
// after merging, is rejected.
func mergeItems(items []domain.ExtractedItem) ([]domain.ExtractedItem, error) {
	merged := make([]domain.ExtractedItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		key := repository.ProductKey(item.Name)
		if key == "" || item.Quantity < 1 {
			continue
		}
		if item.Quantity > maxItemQuantity {
			return nil, newError(ErrorInvalidInput, "quantity_too_large", nil)
		}
		if i, ok := index[key]; ok {
			if merged[i].Quantity > maxItemQuantity-item.Quantity {
				return nil, newError(ErrorInvalidInput, "quantity_too_large", nil)
			}
			merged[i].Quantity += item.Quantity
			continue
		}
		index[key] = len(merged)
		merged = append(merged, domain.ExtractedItem{Name: strings.TrimSpace(item.Name), Quantity: item.Quantity})
	}
	return merged, nil
}
