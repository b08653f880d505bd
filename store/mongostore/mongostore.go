// Package mongostore implements store.Store on MongoDB multi-document
// transactions. It needs a replica set or sharded cluster.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/Dema10/beerproject/models"
	"github.com/Dema10/beerproject/store"
)

const (
	colBeers  = "Beers"
	colCarts  = "Carts"
	colOrders = "Orders"
	colUsers  = "Users"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *slog.Logger
}

// Connect dials uri and selects database.
func Connect(ctx context.Context, uri, database string, log *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{client: client, db: client.Database(database), log: log}, nil
}

// EnsureIndexes creates the indexes the shop queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.db.Collection(colCarts).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("mongostore: carts index: %w", err)
	}
	if _, err := s.db.Collection(colOrders).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "ref", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("mongostore: orders index: %w", err)
	}
	if _, err := s.db.Collection(colBeers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "inProduction", Value: 1}, {Key: "name", Value: 1}},
	}); err != nil {
		return fmt.Errorf("mongostore: beers index: %w", err)
	}
	return nil
}

// WithTx runs fn inside a snapshot transaction. The driver re-runs fn on
// transient transaction errors such as write conflicts.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongostore: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &mongoTx{db: s.db})
	}, txOpts)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

type mongoTx struct {
	db *mongo.Database
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func (t *mongoTx) Beer(ctx context.Context, id string) (*models.Beer, error) {
	var doc beerDoc
	if err := t.db.Collection(colBeers).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	beer := doc.model()
	return &beer, nil
}

func (t *mongoTx) ListBeers(ctx context.Context, inProductionOnly bool, page store.Page) ([]models.Beer, int64, error) {
	page = page.Normalize()
	filter := bson.M{}
	if inProductionOnly {
		filter["inProduction"] = true
	}
	col := t.db.Collection(colBeers)
	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := col.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit)))
	if err != nil {
		return nil, 0, err
	}
	var docs []beerDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	beers := make([]models.Beer, 0, len(docs))
	for _, d := range docs {
		beers = append(beers, d.model())
	}
	return beers, total, nil
}

func (t *mongoTx) SaveBeer(ctx context.Context, beer *models.Beer) error {
	now := time.Now().UTC()
	if beer.CreatedAt.IsZero() {
		beer.CreatedAt = now
	}
	beer.UpdatedAt = now
	doc, err := newBeerDoc(*beer)
	if err != nil {
		return err
	}
	_, err = t.db.Collection(colBeers).ReplaceOne(ctx, bson.M{"_id": beer.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (t *mongoTx) AdjustBeerQuantity(ctx context.Context, id string, delta int) error {
	if delta == 0 {
		return nil
	}
	col := t.db.Collection(colBeers)
	res, err := col.UpdateOne(ctx,
		bson.M{"_id": id, "quantity": bson.M{"$gte": -delta}},
		bson.M{
			"$inc": bson.M{"quantity": delta},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrStockConflict
}

func (t *mongoTx) Cart(ctx context.Context, userID string) (*models.Cart, error) {
	var doc cartDoc
	if err := t.db.Collection(colCarts).FindOne(ctx, bson.M{"user": userID}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	cart := doc.model()
	return &cart, nil
}

func (t *mongoTx) SaveCart(ctx context.Context, cart *models.Cart) error {
	now := time.Now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	doc, err := newCartDoc(*cart)
	if err != nil {
		return err
	}
	_, err = t.db.Collection(colCarts).ReplaceOne(ctx, bson.M{"_id": cart.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (t *mongoTx) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	order.UpdatedAt = order.CreatedAt
	doc, err := newOrderDoc(*order)
	if err != nil {
		return err
	}
	if _, err := t.db.Collection(colOrders).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (t *mongoTx) Order(ctx context.Context, id string) (*models.Order, error) {
	var doc orderDoc
	if err := t.db.Collection(colOrders).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	order := doc.model()
	return &order, nil
}

// OrderForUpdate reads like Order. Concurrent writers to the same order
// conflict at commit and WithTransaction retries them.
func (t *mongoTx) OrderForUpdate(ctx context.Context, id string) (*models.Order, error) {
	return t.Order(ctx, id)
}

func (t *mongoTx) ListOrders(ctx context.Context, filter store.OrderFilter, page store.Page) ([]models.Order, int64, error) {
	page = page.Normalize()
	q := bson.M{}
	if filter.UserID != "" {
		q["user"] = filter.UserID
	}
	col := t.db.Collection(colOrders)
	total, err := col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	cur, err := col.Find(ctx, q, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit)))
	if err != nil {
		return nil, 0, err
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	orders := make([]models.Order, 0, len(docs))
	for _, d := range docs {
		orders = append(orders, d.model())
	}
	return orders, total, nil
}

func (t *mongoTx) SetOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	res, err := t.db.Collection(colOrders).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(status), "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *mongoTx) DeleteOrder(ctx context.Context, id string) error {
	res, err := t.db.Collection(colOrders).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *mongoTx) AppendUserOrder(ctx context.Context, userID, orderID string) error {
	_, err := t.db.Collection(colUsers).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"orders": orderID}},
		options.Update().SetUpsert(true))
	return err
}

func (t *mongoTx) RemoveUserOrder(ctx context.Context, userID, orderID string) error {
	_, err := t.db.Collection(colUsers).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"orders": orderID}})
	return err
}

func (t *mongoTx) UserOrders(ctx context.Context, userID string) ([]string, error) {
	var doc userDoc
	err := t.db.Collection(colUsers).FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Orders == nil {
		return []string{}, nil
	}
	return doc.Orders, nil
}
