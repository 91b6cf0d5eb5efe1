package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/auction-marketplace/internal/model"
)

// ItemRepo encapsulates all queries on the items table.
type ItemRepo struct {
	db *sql.DB
}

func NewItemRepo(db *sql.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// Create inserts it as a single statement.  Callers are expected to have
// normalized the sale-type fields already; items_sale_type_consistent
// rejects the row otherwise.
func (r *ItemRepo) Create(ctx context.Context, it *model.Item) error {
	const q = `INSERT INTO items (
		id, user_id, title, short_description, long_description, image_url, sale_type,
		reserve_price, buy_now_price, status, auction_start, auction_end, created_at
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q,
		it.ID, it.UserID, it.Title, it.ShortDescription, it.LongDescription, it.ImageURL, string(it.SaleType),
		nullFloat(it.ReservePrice), nullFloat(it.BuyNowPrice), string(it.Status),
		nullTime(it.AuctionStart), nullTime(it.AuctionEnd), it.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetByID returns the full item row or ErrItemNotFound.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*model.Item, error) {
	const q = `SELECT id, user_id, title, short_description, long_description, image_url, sale_type,
		reserve_price, buy_now_price, status, auction_start, auction_end, created_at
		FROM items WHERE id = ?`
	var (
		it               model.Item
		saleType, status string
		reserve, buyNow  sql.NullFloat64
		start, end       sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&it.ID, &it.UserID, &it.Title, &it.ShortDescription, &it.LongDescription, &it.ImageURL, &saleType,
		&reserve, &buyNow, &status, &start, &end, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("select item: %w", err)
	}
	it.SaleType = model.SaleType(saleType)
	it.Status = model.ItemStatus(status)
	it.ReservePrice = floatPtr(reserve)
	it.BuyNowPrice = floatPtr(buyNow)
	it.AuctionStart = timePtr(start)
	it.AuctionEnd = timePtr(end)
	return &it, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
