package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"orderbot/internal/domain"
)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	putErr       error
	txErr        error
	lastGetInput *dynamodb.GetItemInput
	lastPutInput *dynamodb.PutItemInput
	lastTxInput  *dynamodb.TransactWriteItemsInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.lastTxInput = in
	return &dynamodb.TransactWriteItemsOutput{}, f.txErr
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "orders-table")
	require.NoError(t, err)
	return c
}

func keyValue(t *testing.T, key map[string]types.AttributeValue, name string) string {
	t.Helper()
	v, ok := key[name].(*types.AttributeValueMemberS)
	require.True(t, ok, "key %s", name)
	return v.Value
}

func sampleOrder() domain.Order {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return domain.Order{
		ID:         "ORD1",
		BusinessID: "biz-1",
		CustomerID: "+911234",
		Items: []domain.OrderItem{
			{ProductID: "pizza", Name: "Pizza", Quantity: 2, Price: 750},
			{ProductID: "coke", Name: "Coke", Quantity: 1, Price: 49.5},
		},
		TotalAmount: 1549.5,
		Status:      domain.OrderPending,
		Payment:     domain.Payment{Method: "PENDING", Status: domain.PaymentPending, Amount: 1549.5},
		Language:    "Hindi",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, "t")
	require.Error(t, err)
	_, err = New(&fakeDynamo{}, " ")
	require.Error(t, err)
}

func TestProductKey(t *testing.T) {
	require.Equal(t, "veg pizza", ProductKey("  Veg   Pizza "))
}

func TestGetProduct_HappyPath(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: productItem(domain.Product{
		BusinessID: "biz-1", ProductID: "p-1", Name: "Pizza", Price: 750, Stock: 4,
	})}}
	c := mustNewClient(t, db)

	p, err := c.GetProduct(context.Background(), "biz-1", " PIZZA ")
	require.NoError(t, err)
	require.Equal(t, domain.Product{BusinessID: "biz-1", ProductID: "p-1", Name: "Pizza", Price: 750, Stock: 4}, p)
	require.Equal(t, "BIZ#biz-1", keyValue(t, db.lastGetInput.Key, "PK"))
	require.Equal(t, "PRODUCT#pizza", keyValue(t, db.lastGetInput.Key, "SK"))
	require.True(t, aws.ToBool(db.lastGetInput.ConsistentRead))
}

func TestGetProduct_Errors(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{}})
	_, err := c.GetProduct(context.Background(), "biz-1", "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	c = mustNewClient(t, &fakeDynamo{getErr: errors.New("boom")})
	_, err = c.GetProduct(context.Background(), "biz-1", "pizza")
	require.ErrorContains(t, err, "GetProduct")

	c = mustNewClient(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"name":  &types.AttributeValueMemberS{Value: "Pizza"},
		"price": &types.AttributeValueMemberS{Value: "cheap"},
		"stock": &types.AttributeValueMemberN{Value: "1"},
	}}})
	_, err = c.GetProduct(context.Background(), "biz-1", "pizza")
	require.ErrorContains(t, err, "not a number")
}

func TestPutProduct(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	require.NoError(t, c.PutProduct(context.Background(), domain.Product{BusinessID: "biz-1", Name: "Masala Dosa", Price: 120, Stock: 10}))
	item := db.lastPutInput.Item
	require.Equal(t, "PRODUCT#masala dosa", keyValue(t, item, "SK"))
	require.Equal(t, "masala dosa", keyValue(t, item, "productId"))
	require.Equal(t, "120", item["price"].(*types.AttributeValueMemberN).Value)

	require.Error(t, c.PutProduct(context.Background(), domain.Product{Name: "x"}))
}

func TestCreateOrder_WritesOrderAndStockUpdates(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	require.NoError(t, c.CreateOrder(context.Background(), sampleOrder()))
	require.NotNil(t, db.lastTxInput)
	tx := db.lastTxInput.TransactItems
	require.Len(t, tx, 3)

	put := tx[0].Put
	require.NotNil(t, put)
	require.Equal(t, "ORDER#ORD1", keyValue(t, put.Item, "SK"))
	require.Equal(t, "1549.5", put.Item["totalAmount"].(*types.AttributeValueMemberN).Value)
	require.Contains(t, aws.ToString(put.ConditionExpression), "attribute_not_exists")

	upd := tx[1].Update
	require.NotNil(t, upd)
	require.Equal(t, "PRODUCT#pizza", keyValue(t, upd.Key, "SK"))
	require.Equal(t, "stock >= :qty", aws.ToString(upd.ConditionExpression))
	require.Equal(t, "2", upd.ExpressionAttributeValues[":qty"].(*types.AttributeValueMemberN).Value)
}

func TestCreateOrder_StockConflict(t *testing.T) {
	db := &fakeDynamo{txErr: &types.TransactionCanceledException{
		Message: aws.String("Transaction cancelled"),
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	}}
	c := mustNewClient(t, db)

	err := c.CreateOrder(context.Background(), sampleOrder())
	require.ErrorIs(t, err, ErrStockConflict)
}

func TestCreateOrder_OtherErrors(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{txErr: errors.New("throttled")})
	err := c.CreateOrder(context.Background(), sampleOrder())
	require.ErrorContains(t, err, "throttled")
	require.NotErrorIs(t, err, ErrStockConflict)

	o := sampleOrder()
	o.Items = nil
	require.ErrorContains(t, c.CreateOrder(context.Background(), o), "no items")

	o = sampleOrder()
	o.ID = ""
	require.ErrorContains(t, c.CreateOrder(context.Background(), o), "required")
}

func TestCreateOrder_RejectsNonPositiveQuantity(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	o := sampleOrder()
	o.Items[1].Quantity = -2
	require.ErrorContains(t, c.CreateOrder(context.Background(), o), "quantity -2")
	require.Nil(t, db.lastTxInput)
}

func TestGetOrder_RoundTripsItem(t *testing.T) {
	want := sampleOrder()
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: orderItem(want)}}
	c := mustNewClient(t, db)

	got, err := c.GetOrder(context.Background(), "biz-1", "ORD1")
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, "ORDER#ORD1", keyValue(t, db.lastGetInput.Key, "SK"))
}

func TestGetOrder_NotFound(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{}})
	_, err := c.GetOrder(context.Background(), "biz-1", "ORD404")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveTurn(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	err := c.SaveTurn(context.Background(), domain.Turn{
		BusinessID: "biz-1", CustomerID: "+911234", Text: "hi", Reply: "hello", Language: "English", Intent: "chat",
	})
	require.NoError(t, err)

	item := db.lastPutInput.Item
	require.Equal(t, "CUST#biz-1#+911234", keyValue(t, item, "PK"))
	require.True(t, strings.HasPrefix(keyValue(t, item, "SK"), "MSG#2026-03-01T10:00:00Z#"))
	require.Equal(t, "hello", keyValue(t, item, "reply"))
	wantTTL := fixed.Add(ttlDuration).Unix()
	require.Equal(t, formatFloat(float64(wantTTL)), item["ttl"].(*types.AttributeValueMemberN).Value)

	require.Error(t, c.SaveTurn(context.Background(), domain.Turn{Text: "x"}))

	db.putErr = errors.New("write failed")
	require.ErrorContains(t, c.SaveTurn(context.Background(), domain.Turn{BusinessID: "b", CustomerID: "c"}), "write failed")
}
