package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restoran-pos/internal/database"
	"restoran-pos/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore kalemleri ve ödemeleri sipariş dokümanına gömülü saklar.
type MongoStore struct {
	DB *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{DB: db}
}

func (s *MongoStore) orders() *mongo.Collection {
	return s.DB.Collection(database.OrdersCollection)
}

func (s *MongoStore) NextInvoiceSeq(ctx context.Context, branchID uint) (int64, error) {
	return database.NextSequence(ctx, s.DB, fmt.Sprintf("invoice:%d", branchID))
}

func (s *MongoStore) Create(ctx context.Context, o *models.Order) error {
	id, err := database.NextSequence(ctx, s.DB, database.OrdersCollection)
	if err != nil {
		return err
	}
	now := time.Now()
	o.ID = uint(id)
	o.CreatedAt, o.UpdatedAt = now, now
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	for i := range o.Payments {
		o.Payments[i].OrderID = o.ID
	}

	_, err = s.orders().InsertOne(ctx, o)
	return err
}

func (s *MongoStore) Get(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := s.orders().FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	fillOrderIDs(&o)
	return &o, nil
}

func (s *MongoStore) List(ctx context.Context, f Filter) ([]models.Order, error) {
	filter := bson.M{"branch_id": f.BranchID}
	dateRange := bson.M{}
	if f.From != nil {
		dateRange["$gte"] = *f.From
	}
	if f.To != nil {
		dateRange["$lte"] = *f.To
	}
	if len(dateRange) > 0 {
		filter["date"] = dateRange
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Cancelled != nil {
		filter["cancelled"] = *f.Cancelled
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := s.orders().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []models.Order{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	for i := range list {
		fillOrderIDs(&list[i])
	}
	return list, nil
}

func (s *MongoStore) UpdateState(ctx context.Context, o *models.Order) error {
	o.UpdatedAt = time.Now()
	_, err := s.orders().UpdateOne(ctx, bson.M{"_id": o.ID}, bson.M{"$set": bson.M{
		"cancelled":     o.Cancelled,
		"cancelled_at":  o.CancelledAt,
		"cancel_reason": o.CancelReason,
		"on_hold":       o.OnHold,
		"held_at":       o.HeldAt,
		"updated_at":    o.UpdatedAt,
	}})
	return err
}

func (s *MongoStore) ReplacePayments(ctx context.Context, o *models.Order) error {
	o.UpdatedAt = time.Now()
	_, err := s.orders().UpdateOne(ctx, bson.M{"_id": o.ID}, bson.M{"$set": bson.M{
		"payments":   o.Payments,
		"received":   o.Received,
		"change":     o.Change,
		"due":        o.Due,
		"status":     o.Status,
		"updated_at": o.UpdatedAt,
	}})
	return err
}

// Gömülü kayıtların OrderID alanı bson'a yazılmaz.
func fillOrderIDs(o *models.Order) {
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	for i := range o.Payments {
		o.Payments[i].OrderID = o.ID
	}
}
