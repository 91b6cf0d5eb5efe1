package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/iliyamo/auction-marketplace/internal/model"
)

// ItemSearchQuery defines the filter and pagination for listing active items.
type ItemSearchQuery struct {
	Search   string
	Page     int
	PageSize int
}

// Offset is the number of rows skipped for q.Page.  It never goes
// negative and saturates instead of overflowing.
func (q ItemSearchQuery) Offset() int {
	if q.Page <= 1 || q.PageSize <= 0 {
		return 0
	}
	limit := math.MaxInt - q.PageSize
	if q.Page-1 > limit/q.PageSize {
		return limit
	}
	return (q.Page - 1) * q.PageSize
}

// Search returns active items newest first.  A non-empty Search matches
// case-insensitively anywhere in title or short_description.
func (r *ItemRepo) Search(ctx context.Context, q ItemSearchQuery) ([]model.ItemSummary, error) {
	where := []string{"status = 'active'"}
	args := []any{}

	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(short_description) LIKE ?)")
		like := "%" + escapeLike(term) + "%"
		args = append(args, like, like)
	}

	dataSQL := `SELECT id, title, short_description, image_url, sale_type, buy_now_price, status, auction_end
		FROM items
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, q.PageSize, q.Offset())

	rows, err := r.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	defer rows.Close()

	out := make([]model.ItemSummary, 0, q.PageSize)
	for rows.Next() {
		var (
			s                model.ItemSummary
			saleType, status string
			buyNow           sql.NullFloat64
			end              sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.ShortDescription, &s.ImageURL, &saleType, &buyNow, &status, &end); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		s.SaleType = model.SaleType(saleType)
		s.Status = model.ItemStatus(status)
		s.BuyNowPrice = floatPtr(buyNow)
		s.AuctionEnd = timePtr(end)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
