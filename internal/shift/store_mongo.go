package shift

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

// MongoStore STORE_DRIVER=mongo iken kullanılır. ID'ler counters
// koleksiyonundan gelir, böylece API Postgres ile aynı kalır.
type MongoStore struct {
	DB *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{DB: db}
}

func (s *MongoStore) shifts() *mongo.Collection {
	return s.DB.Collection(database.ShiftsCollection)
}

func (s *MongoStore) dayCloses() *mongo.Collection {
	return s.DB.Collection(database.DayClosesCollection)
}

func (s *MongoStore) OpenShift(ctx context.Context, branchID uint) (*models.Shift, error) {
	var sh models.Shift
	err := s.shifts().FindOne(ctx, bson.M{"branch_id": branchID, "status": models.ShiftStatusOpen}).Decode(&sh)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoOpenShift
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *MongoStore) LastShiftNo(ctx context.Context, branchID uint) (int, error) {
	var sh models.Shift
	err := s.shifts().FindOne(ctx, bson.M{"branch_id": branchID},
		options.FindOne().SetSort(bson.D{{Key: "shift_no", Value: -1}})).Decode(&sh)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return sh.ShiftNo, nil
}

func (s *MongoStore) CreateShift(ctx context.Context, sh *models.Shift) error {
	id, err := database.NextSequence(ctx, s.DB, database.ShiftsCollection)
	if err != nil {
		return err
	}
	now := time.Now()
	sh.ID = uint(id)
	sh.CreatedAt, sh.UpdatedAt = now, now

	if _, err := s.shifts().InsertOne(ctx, sh); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrShiftAlreadyOpen
		}
		return err
	}
	return nil
}

func (s *MongoStore) UpdateShift(ctx context.Context, sh *models.Shift) error {
	sh.UpdatedAt = time.Now()
	_, err := s.shifts().ReplaceOne(ctx, bson.M{"_id": sh.ID}, sh)
	return err
}

func (s *MongoStore) ListShifts(ctx context.Context, f Filter) ([]models.Shift, error) {
	filter := bson.M{"branch_id": f.BranchID}
	dateRange := bson.M{}
	if f.From != nil {
		dateRange["$gte"] = *f.From
	}
	if f.To != nil {
		dateRange["$lte"] = *f.To
	}
	if len(dateRange) > 0 {
		filter["start_date"] = dateRange
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	cur, err := s.shifts().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "shift_no", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	shifts := []models.Shift{}
	if err := cur.All(ctx, &shifts); err != nil {
		return nil, err
	}
	return shifts, nil
}

func (s *MongoStore) PendingShifts(ctx context.Context, branchID uint, upTo time.Time) ([]models.Shift, error) {
	cur, err := s.shifts().Find(ctx, pendingFilter(branchID, upTo),
		options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "shift_no", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	shifts := []models.Shift{}
	if err := cur.All(ctx, &shifts); err != nil {
		return nil, err
	}
	return shifts, nil
}

// CloseDay standalone mongo kurulumlarında transaction yok. Önce gün sonu
// kayıtları yazılır, vardiyalar sonra çevrilir; çevirme başarısızsa yazılan
// kayıtlar geri silinir.
func (s *MongoStore) CloseDay(ctx context.Context, b DayCloseBatch) (int, error) {
	return closeDayCompensated(ctx, s, b)
}

func pendingFilter(branchID uint, upTo time.Time) bson.M {
	return bson.M{
		"branch_id":  branchID,
		"start_date": bson.M{"$lte": upTo},
		"status":     bson.M{"$in": []models.ShiftStatus{models.ShiftStatusOpen, models.ShiftStatusClosed}},
	}
}

// dayCloseWriter CloseDay'in adımları.
type dayCloseWriter interface {
	insertDayClose(ctx context.Context, rec *models.DayClose) error
	deleteDayCloses(ctx context.Context, ids []uint) error
	flipShifts(ctx context.Context, b DayCloseBatch) (int, error)
}

func closeDayCompensated(ctx context.Context, w dayCloseWriter, b DayCloseBatch) (int, error) {
	inserted := make([]uint, 0, len(b.Records))
	undo := func(cause error) error {
		if len(inserted) == 0 {
			return cause
		}
		if err := w.deleteDayCloses(context.WithoutCancel(ctx), inserted); err != nil {
			return errors.Join(cause, fmt.Errorf("gün sonu kayıtları geri alınamadı: %w", err))
		}
		return cause
	}

	for _, rec := range b.Records {
		if err := w.insertDayClose(ctx, rec); err != nil {
			return 0, undo(err)
		}
		inserted = append(inserted, rec.ID)
	}

	n, err := w.flipShifts(ctx, b)
	if err != nil {
		return 0, undo(err)
	}
	if n == 0 {
		return 0, undo(ErrNothingToClose)
	}
	return n, nil
}

func (s *MongoStore) insertDayClose(ctx context.Context, rec *models.DayClose) error {
	id, err := database.NextSequence(ctx, s.DB, database.DayClosesCollection)
	if err != nil {
		return err
	}
	rec.ID = uint(id)
	rec.CreatedAt = time.Now()

	if _, err := s.dayCloses().InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDayAlreadyClosed
		}
		return err
	}
	return nil
}

func (s *MongoStore) deleteDayCloses(ctx context.Context, ids []uint) error {
	_, err := s.dayCloses().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (s *MongoStore) flipShifts(ctx context.Context, b DayCloseBatch) (int, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: models.ShiftStatusDayClose},
			{Key: "day_close_time", Value: b.At},
			{Key: "end_time", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$end_time", b.At}}}},
			{Key: "updated_at", Value: b.At},
		}}},
	}
	res, err := s.shifts().UpdateMany(ctx, pendingFilter(b.BranchID, b.UpTo), update)
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

func (s *MongoStore) FindDayClose(ctx context.Context, branchID uint, date time.Time) (*models.DayClose, error) {
	var rec models.DayClose
	err := s.dayCloses().FindOne(ctx, bson.M{"branch_id": branchID, "date": date}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
