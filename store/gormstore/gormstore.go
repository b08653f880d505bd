// Package gormstore implements store.Store on top of GORM for PostgreSQL and MySQL.
package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Dema10/beerproject/models"
	"github.com/Dema10/beerproject/store"
)

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

type Options struct {
	Dialect string
	DSN     string
	// Retries is how many times a transaction aborted by a serialization
	// conflict is re-run before the error is returned.
	Retries int
	Logger  *slog.Logger
}

type Store struct {
	db      *gorm.DB
	retries int
	log     *slog.Logger
}

// Open connects with the dialect's GORM driver.
func Open(opts Options) (*Store, error) {
	var dialector gorm.Dialector
	switch opts.Dialect {
	case DialectPostgres, "":
		dialector = postgres.Open(opts.DSN)
	case DialectMySQL:
		dialector = gormmysql.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("gormstore: unsupported dialect %q", opts.Dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("gormstore: open %s: %w", opts.Dialect, err)
	}
	return New(db, opts.Retries, opts.Logger), nil
}

// New wraps an existing connection.
func New(db *gorm.DB, retries int, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	if retries < 0 {
		retries = 0
	}
	return &Store{db: db, retries: retries, log: log}
}

// Migrate creates or updates the shop tables.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.Beer{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderLine{},
		&models.UserOrder{},
	)
}

// WithTx runs fn in a SERIALIZABLE transaction and re-runs it when the
// database aborts it because of a concurrent conflicting transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	backoff := 10 * time.Millisecond
	for attempt := 0; ; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
			return fn(ctx, &gormTx{db: db})
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err == nil || !Retryable(err) || attempt >= s.retries {
			return err
		}

		s.log.Warn("transaction conflict, retrying", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Retryable reports whether err is a serialization failure or deadlock.
func Retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1213, 1205: // deadlock, lock wait timeout
			return true
		}
	}
	return false
}

type gormTx struct {
	db *gorm.DB
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func (t *gormTx) Beer(ctx context.Context, id string) (*models.Beer, error) {
	var beer models.Beer
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&beer, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &beer, nil
}

func (t *gormTx) ListBeers(ctx context.Context, inProductionOnly bool, page store.Page) ([]models.Beer, int64, error) {
	page = page.Normalize()
	q := t.db.WithContext(ctx).Model(&models.Beer{})
	if inProductionOnly {
		q = q.Where("in_production = ?", true)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var beers []models.Beer
	if err := q.Order("name ASC").Order("id ASC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&beers).Error; err != nil {
		return nil, 0, err
	}
	return beers, total, nil
}

func (t *gormTx) SaveBeer(ctx context.Context, beer *models.Beer) error {
	return t.db.WithContext(ctx).Save(beer).Error
}

func (t *gormTx) AdjustBeerQuantity(ctx context.Context, id string, delta int) error {
	if delta == 0 {
		return nil
	}
	res := t.db.WithContext(ctx).Model(&models.Beer{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := t.db.WithContext(ctx).Model(&models.Beer{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return store.ErrStockConflict
}

func (t *gormTx) Cart(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := t.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at ASC")
		}).
		Where("user_id = ?", userID).
		First(&cart).Error; err != nil {
		return nil, notFound(err)
	}
	return &cart, nil
}

// SaveCart upserts the cart row and replaces its items.
func (t *gormTx) SaveCart(ctx context.Context, cart *models.Cart) error {
	db := t.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(cart).Error; err != nil {
		return err
	}
	if err := db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if len(cart.Items) == 0 {
		return nil
	}
	for i := range cart.Items {
		cart.Items[i].CartID = cart.ID
	}
	return db.Create(&cart.Items).Error
}

func (t *gormTx) CreateOrder(ctx context.Context, order *models.Order) error {
	err := t.db.WithContext(ctx).Create(order).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrDuplicate
	}
	return err
}

func (t *gormTx) Order(ctx context.Context, id string) (*models.Order, error) {
	return t.order(ctx, id, false)
}

func (t *gormTx) OrderForUpdate(ctx context.Context, id string) (*models.Order, error) {
	return t.order(ctx, id, true)
}

func (t *gormTx) order(ctx context.Context, id string, lock bool) (*models.Order, error) {
	var order models.Order
	if err := locking(t.db.WithContext(ctx), lock).
		Preload("Lines").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// locking adds FOR UPDATE when lock is set.
func locking(db *gorm.DB, lock bool) *gorm.DB {
	if !lock {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *gormTx) ListOrders(ctx context.Context, filter store.OrderFilter, page store.Page) ([]models.Order, int64, error) {
	page = page.Normalize()
	q := t.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []models.Order
	if err := q.Preload("Lines").
		Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (t *gormTx) SetOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	res := t.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *gormTx) DeleteOrder(ctx context.Context, id string) error {
	db := t.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderLine{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *gormTx) AppendUserOrder(ctx context.Context, userID, orderID string) error {
	return t.db.WithContext(ctx).Create(&models.UserOrder{
		UserID:    userID,
		OrderID:   orderID,
		CreatedAt: time.Now(),
	}).Error
}

func (t *gormTx) RemoveUserOrder(ctx context.Context, userID, orderID string) error {
	return t.db.WithContext(ctx).
		Where("user_id = ? AND order_id = ?", userID, orderID).
		Delete(&models.UserOrder{}).Error
}

func (t *gormTx) UserOrders(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	if err := t.db.WithContext(ctx).Model(&models.UserOrder{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("order_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
