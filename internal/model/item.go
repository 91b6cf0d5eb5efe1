package model

import "time"

// SaleType selects which pricing and date fields apply to an item.
type SaleType string

const (
    SaleAuction SaleType = "auction"
    SaleFixed   SaleType = "fixed"
)

// ItemStatus is the lifecycle state of an item.  Items are created as
// active; nothing in the service moves them to ended.
type ItemStatus string

const (
    StatusDraft  ItemStatus = "draft"
    StatusActive ItemStatus = "active"
    StatusEnded  ItemStatus = "ended"
)

// AuctionDuration is the fixed length of every auction.
const AuctionDuration = 7 * 24 * time.Hour

// Item represents a listing in the `items` table.
//
// Pointer fields are nullable columns.  For auctions BuyNowPrice is nil and
// AuctionStart/AuctionEnd are set, with AuctionEnd = AuctionStart + 7 days.
// For fixed-price items BuyNowPrice is set and ReservePrice, AuctionStart
// and AuctionEnd are nil.  The table's items_sale_type_consistent check
// enforces the same rule.
type Item struct {
    ID               string     `json:"id"`
    UserID           string     `json:"user_id"`
    Title            string     `json:"title"`
    ShortDescription string     `json:"short_description"`
    LongDescription  string     `json:"long_description"`
    ImageURL         string     `json:"image_url"`
    SaleType         SaleType   `json:"sale_type"`
    ReservePrice     *float64   `json:"reserve_price"`
    BuyNowPrice      *float64   `json:"buy_now_price"`
    Status           ItemStatus `json:"status"`
    AuctionStart     *time.Time `json:"auction_start"`
    AuctionEnd       *time.Time `json:"auction_end"`
    CreatedAt        time.Time  `json:"created_at"`
}

// ItemSummary is the reduced projection returned by item search.
type ItemSummary struct {
    ID               string     `json:"id"`
    Title            string     `json:"title"`
    ShortDescription string     `json:"short_description"`
    ImageURL         string     `json:"image_url"`
    SaleType         SaleType   `json:"sale_type"`
    BuyNowPrice      *float64   `json:"buy_now_price"`
    Status           ItemStatus `json:"status"`
    AuctionEnd       *time.Time `json:"auction_end"`
}
