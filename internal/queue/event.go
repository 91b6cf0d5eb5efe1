// Package queue defines message payloads exchanged over the message broker.
package queue

// ItemListedQueue is the durable queue carrying ItemListedEvent messages.
const ItemListedQueue = "item.listed"

// ItemListedEvent is published after an item row has been inserted.  It
// carries enough for downstream consumers to log or notify without
// querying the primary database.
type ItemListedEvent struct {
    ItemID       string   `json:"item_id"`
    UserID       string   `json:"user_id"`
    Title        string   `json:"title"`
    SaleType     string   `json:"sale_type"`
    ReservePrice *float64 `json:"reserve_price,omitempty"`
    BuyNowPrice  *float64 `json:"buy_now_price,omitempty"`
    AuctionEnd   string   `json:"auction_end,omitempty"`
    ListedAt     string   `json:"listed_at"`
}
