package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"orderbot/internal/domain"
)

const (
	skPrefixProduct = "PRODUCT#"
	skPrefixOrder   = "ORDER#"
	skPrefixMsg     = "MSG#"
	ttlDuration     = 30 * 24 * time.Hour // 30-day TTL on transcript turns
)

var (
	// ErrNotFound is returned when a product or order does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrStockConflict is returned when a stock condition failed while
	// writing an order, i.e. another order consumed the stock first.
	ErrStockConflict = errors.New("repository: stock changed concurrently")
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client stores products, orders and transcript turns in a single table.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

func businessPK(businessID string) string {
	return "BIZ#" + businessID
}

func customerPK(businessID, customerID string) string {
	return "CUST#" + businessID + "#" + customerID
}

// ProductKey normalizes a product name into its catalog key.
func ProductKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func productSK(name string) string {
	return skPrefixProduct + ProductKey(name)
}

func orderSK(orderID string) string {
	return skPrefixOrder + orderID
}

// GetProduct looks a product up by (case-insensitive) name.
func (c *Client) GetProduct(ctx context.Context, businessID, name string) (domain.Product, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: businessPK(businessID)},
			"SK": &types.AttributeValueMemberS{Value: productSK(name)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("repository: GetProduct get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Product{}, fmt.Errorf("repository: product %q: %w", name, ErrNotFound)
	}
	p, err := itemToProduct(out.Item)
	if err != nil {
		return domain.Product{}, fmt.Errorf("repository: GetProduct decode: %w", err)
	}
	p.BusinessID = businessID
	return p, nil
}

// PutProduct creates or replaces a catalog entry.
func (c *Client) PutProduct(ctx context.Context, p domain.Product) error {
	if strings.TrimSpace(p.BusinessID) == "" || ProductKey(p.Name) == "" {
		return errors.New("repository: PutProduct: business id and name are required")
	}
	if p.ProductID == "" {
		p.ProductID = ProductKey(p.Name)
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      productItem(p),
	})
	if err != nil {
		return fmt.Errorf("repository: PutProduct: %w", err)
	}
	return nil
}

// CreateOrder writes the order and decrements the stock of every line in
// one transaction. The write fails with ErrStockConflict if any product no
// longer has enough stock.
func (c *Client) CreateOrder(ctx context.Context, order domain.Order) error {
	if order.ID == "" || order.BusinessID == "" {
		return errors.New("repository: CreateOrder: order id and business id are required")
	}
	if len(order.Items) == 0 {
		return errors.New("repository: CreateOrder: order has no items")
	}

	items := make([]types.TransactWriteItem, 0, len(order.Items)+1)
	items = append(items, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(c.tableName),
			Item:                orderItem(order),
			ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
		},
	})
	for _, line := range order.Items {
		if line.Quantity < 1 {
			return fmt.Errorf("repository: CreateOrder: line %q has quantity %d", line.Name, line.Quantity)
		}
		qty := strconv.Itoa(line.Quantity)
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName: aws.String(c.tableName),
				Key: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: businessPK(order.BusinessID)},
					"SK": &types.AttributeValueMemberS{Value: productSK(line.Name)},
				},
				UpdateExpression:    aws.String("SET stock = stock - :qty"),
				ConditionExpression: aws.String("stock >= :qty"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":qty": &types.AttributeValueMemberN{Value: qty},
				},
			},
		})
	}

	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) && stockConditionFailed(canceled) {
			return fmt.Errorf("repository: CreateOrder %s: %w", order.ID, ErrStockConflict)
		}
		return fmt.Errorf("repository: CreateOrder: %w", err)
	}
	return nil
}

// stockConditionFailed reports whether a stock update (index >= 1) was the
// cancelled part of the transaction.
func stockConditionFailed(e *types.TransactionCanceledException) bool {
	for i, reason := range e.CancellationReasons {
		if i == 0 {
			continue
		}
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

// GetOrder loads one order of a business.
func (c *Client) GetOrder(ctx context.Context, businessID, orderID string) (domain.Order, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: businessPK(businessID)},
			"SK": &types.AttributeValueMemberS{Value: orderSK(orderID)},
		},
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("repository: GetOrder get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Order{}, fmt.Errorf("repository: order %q: %w", orderID, ErrNotFound)
	}
	o, err := itemToOrder(out.Item)
	if err != nil {
		return domain.Order{}, fmt.Errorf("repository: GetOrder decode: %w", err)
	}
	o.BusinessID = businessID
	return o, nil
}

// SaveTurn records one customer/bot exchange with a 30-day TTL.
func (c *Client) SaveTurn(ctx context.Context, turn domain.Turn) error {
	if turn.BusinessID == "" || turn.CustomerID == "" {
		return errors.New("repository: SaveTurn: business id and customer id are required")
	}
	now := c.now().UTC()
	turn.PK = customerPK(turn.BusinessID, turn.CustomerID)
	turn.SK = skPrefixMsg + now.Format(time.RFC3339Nano) + "#" + uuid.NewString()
	turn.TTL = now.Add(ttlDuration).Unix()

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                turnItem(turn),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveTurn: %w", err)
	}
	return nil
}

func productItem(p domain.Product) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: businessPK(p.BusinessID)},
		"SK":        &types.AttributeValueMemberS{Value: productSK(p.Name)},
		"productId": &types.AttributeValueMemberS{Value: p.ProductID},
		"name":      &types.AttributeValueMemberS{Value: strings.TrimSpace(p.Name)},
		"price":     &types.AttributeValueMemberN{Value: formatFloat(p.Price)},
		"stock":     &types.AttributeValueMemberN{Value: strconv.Itoa(p.Stock)},
	}
}

func itemToProduct(item map[string]types.AttributeValue) (domain.Product, error) {
	name, err := strAttr(item, "name")
	if err != nil {
		return domain.Product{}, err
	}
	productID, _ := strAttr(item, "productId") // allow empty
	price, err := floatAttr(item, "price")
	if err != nil {
		return domain.Product{}, err
	}
	stock, err := intAttr(item, "stock")
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{ProductID: productID, Name: name, Price: price, Stock: stock}, nil
}

func orderItem(o domain.Order) map[string]types.AttributeValue {
	lines := make([]types.AttributeValue, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"productId": &types.AttributeValueMemberS{Value: it.ProductID},
			"name":      &types.AttributeValueMemberS{Value: it.Name},
			"quantity":  &types.AttributeValueMemberN{Value: strconv.Itoa(it.Quantity)},
			"price":     &types.AttributeValueMemberN{Value: formatFloat(it.Price)},
		}})
	}
	return map[string]types.AttributeValue{
		"PK":            &types.AttributeValueMemberS{Value: businessPK(o.BusinessID)},
		"SK":            &types.AttributeValueMemberS{Value: orderSK(o.ID)},
		"orderId":       &types.AttributeValueMemberS{Value: o.ID},
		"customerId":    &types.AttributeValueMemberS{Value: o.CustomerID},
		"items":         &types.AttributeValueMemberL{Value: lines},
		"totalAmount":   &types.AttributeValueMemberN{Value: formatFloat(o.TotalAmount)},
		"status":        &types.AttributeValueMemberS{Value: string(o.Status)},
		"paymentMethod": &types.AttributeValueMemberS{Value: o.Payment.Method},
		"paymentStatus": &types.AttributeValueMemberS{Value: string(o.Payment.Status)},
		"language":      &types.AttributeValueMemberS{Value: o.Language},
		"createdAt":     &types.AttributeValueMemberS{Value: o.CreatedAt.UTC().Format(time.RFC3339)},
		"updatedAt":     &types.AttributeValueMemberS{Value: o.UpdatedAt.UTC().Format(time.RFC3339)},
	}
}

func itemToOrder(item map[string]types.AttributeValue) (domain.Order, error) {
	id, err := strAttr(item, "orderId")
	if err != nil {
		return domain.Order{}, err
	}
	customerID, err := strAttr(item, "customerId")
	if err != nil {
		return domain.Order{}, err
	}
	total, err := floatAttr(item, "totalAmount")
	if err != nil {
		return domain.Order{}, err
	}
	status, _ := strAttr(item, "status")
	method, _ := strAttr(item, "paymentMethod")
	payStatus, _ := strAttr(item, "paymentStatus")
	language, _ := strAttr(item, "language")
	created, _ := strAttr(item, "createdAt")
	updated, _ := strAttr(item, "updatedAt")

	o := domain.Order{
		ID:          id,
		CustomerID:  customerID,
		TotalAmount: total,
		Status:      domain.OrderStatus(status),
		Payment:     domain.Payment{Method: method, Status: domain.PaymentStatus(payStatus), Amount: total},
		Language:    language,
	}
	o.CreatedAt, _ = time.Parse(time.RFC3339, created)
	o.UpdatedAt, _ = time.Parse(time.RFC3339, updated)

	if l, ok := item["items"].(*types.AttributeValueMemberL); ok {
		for _, v := range l.Value {
			m, ok := v.(*types.AttributeValueMemberM)
			if !ok {
				return domain.Order{}, errors.New("repository: order line is not a map")
			}
			name, err := strAttr(m.Value, "name")
			if err != nil {
				return domain.Order{}, err
			}
			qty, err := intAttr(m.Value, "quantity")
			if err != nil {
				return domain.Order{}, err
			}
			price, err := floatAttr(m.Value, "price")
			if err != nil {
				return domain.Order{}, err
			}
			productID, _ := strAttr(m.Value, "productId")
			o.Items = append(o.Items, domain.OrderItem{ProductID: productID, Name: name, Quantity: qty, Price: price})
		}
	}
	return o, nil
}

func turnItem(t domain.Turn) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: t.PK},
		"SK":         &types.AttributeValueMemberS{Value: t.SK},
		"businessId": &types.AttributeValueMemberS{Value: t.BusinessID},
		"customerId": &types.AttributeValueMemberS{Value: t.CustomerID},
		"text":       &types.AttributeValueMemberS{Value: t.Text},
		"reply":      &types.AttributeValueMemberS{Value: t.Reply},
		"language":   &types.AttributeValueMemberS{Value: t.Language},
		"intent":     &types.AttributeValueMemberS{Value: t.Intent},
		"ttl":        &types.AttributeValueMemberN{Value: strconv.FormatInt(t.TTL, 10)},
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func numAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a number", key)
	}
	return n.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	raw, err := numAttr(item, key)
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

func floatAttr(item map[string]types.AttributeValue, key string) (float64, error) {
	raw, err := numAttr(item, key)
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
