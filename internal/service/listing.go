package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/iliyamo/auction-marketplace/internal/logging"
	"github.com/iliyamo/auction-marketplace/internal/model"
	"github.com/iliyamo/auction-marketplace/internal/queue"
	"github.com/iliyamo/auction-marketplace/internal/repository"
	"github.com/iliyamo/auction-marketplace/internal/utils"
)

const (
	MaxTitleLength            = 120
	MaxShortDescriptionLength = 280

	DefaultPageSize = 20
	MaxPageSize     = 50
	// MaxPage keeps (page-1)*MaxPageSize within an int.
	MaxPage = math.MaxInt/MaxPageSize + 1

	// maxPrice is the largest value a DECIMAL(12,2) column holds.
	maxPrice = 9999999999.99
)

// ItemStore is the item persistence needed by ListingEngine.
type ItemStore interface {
	Create(ctx context.Context, it *model.Item) error
	GetByID(ctx context.Context, id string) (*model.Item, error)
	Search(ctx context.Context, q repository.ItemSearchQuery) ([]model.ItemSummary, error)
}

// EventPublisher receives item.listed events after a successful insert.
type EventPublisher interface {
	PublishItemListed(ctx context.Context, ev queue.ItemListedEvent) error
}

// ItemInput is the client payload for a new item.  Prices are kept raw so
// that both JSON numbers and numeric strings are accepted; anything else
// is rejected as invalid input.  Client-supplied auction dates and status
// are not part of the payload and are ignored if sent.
type ItemInput struct {
	Title            string          `json:"title"`
	ShortDescription string          `json:"short_description"`
	LongDescription  string          `json:"long_description"`
	ImageURL         string          `json:"image_url"`
	SaleType         string          `json:"sale_type"`
	ReservePrice     json.RawMessage `json:"reserve_price"`
	BuyNowPrice      json.RawMessage `json:"buy_now_price"`
}

// ListingEngine validates and stores items on behalf of an authenticated
// principal.
type ListingEngine struct {
	Items  ItemStore
	Events EventPublisher // optional
	Log    logging.Logger
	Now    func() time.Time
}

func NewListingEngine(items ItemStore, events EventPublisher, log logging.Logger) *ListingEngine {
	return &ListingEngine{Items: items, Events: events, Log: log, Now: time.Now}
}

func (e *ListingEngine) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

// Create validates in, derives the sale-type dependent fields and inserts
// the item with status active.  Nothing is written unless every check
// passes.
func (e *ListingEngine) Create(ctx context.Context, p Principal, in ItemInput) (*model.Item, error) {
	if !p.Authenticated() {
		return nil, errUnauthorized
	}
	it, err := e.build(p, in)
	if err != nil {
		return nil, err
	}
	if err := e.Items.Create(ctx, it); err != nil {
		return nil, err
	}
	e.Log.Info(ctx, "item listed", "item_id", it.ID, "user_id", it.UserID, "sale_type", it.SaleType)
	e.publish(ctx, it)
	return it, nil
}

func (e *ListingEngine) build(p Principal, in ItemInput) (*model.Item, error) {
	// composed form, so a decomposed accent counts as one character
	title := norm.NFC.String(strings.TrimSpace(in.Title))
	short := norm.NFC.String(strings.TrimSpace(in.ShortDescription))
	long := norm.NFC.String(strings.TrimSpace(in.LongDescription))
	image := strings.TrimSpace(in.ImageURL)
	saleType := model.SaleType(strings.TrimSpace(in.SaleType))

	if title == "" || short == "" || long == "" || image == "" {
		return nil, invalidInput("Missing required fields")
	}
	if !isHTTPURL(image) {
		return nil, invalidInput("image_url must be http(s) URL")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength || utf8.RuneCountInString(short) > MaxShortDescriptionLength {
		return nil, invalidInput("Title or short description too long")
	}
	if saleType != model.SaleAuction && saleType != model.SaleFixed {
		return nil, invalidInput("sale_type must be 'auction' or 'fixed'")
	}

	reserve, err := parsePrice(in.ReservePrice)
	if err != nil || (reserve != nil && *reserve < 0) {
		return nil, invalidInput("reserve_price must be >= 0")
	}
	buyNow, err := parsePrice(in.BuyNowPrice)
	if err != nil || (buyNow != nil && *buyNow <= 0) {
		return nil, invalidInput("buy_now_price must be > 0")
	}

	now := e.now()
	it := &model.Item{
		ID:               utils.NewID(),
		UserID:           p.UserID,
		Title:            title,
		ShortDescription: short,
		LongDescription:  long,
		ImageURL:         image,
		SaleType:         saleType,
		Status:           model.StatusActive,
		CreatedAt:        now,
	}
	switch saleType {
	case model.SaleAuction:
		end := now.Add(model.AuctionDuration)
		it.ReservePrice = reserve
		it.BuyNowPrice = nil
		it.AuctionStart = &now
		it.AuctionEnd = &end
	case model.SaleFixed:
		if buyNow == nil {
			return nil, invalidInput("buy_now_price required for fixed items")
		}
		it.ReservePrice = nil
		it.BuyNowPrice = buyNow
	}
	return it, nil
}

func (e *ListingEngine) publish(ctx context.Context, it *model.Item) {
	if e.Events == nil {
		return
	}
	ev := queue.ItemListedEvent{
		ItemID:       it.ID,
		UserID:       it.UserID,
		Title:        it.Title,
		SaleType:     string(it.SaleType),
		ReservePrice: it.ReservePrice,
		BuyNowPrice:  it.BuyNowPrice,
		ListedAt:     it.CreatedAt.Format(time.RFC3339),
	}
	if it.AuctionEnd != nil {
		ev.AuctionEnd = it.AuctionEnd.Format(time.RFC3339)
	}
	if err := e.Events.PublishItemListed(ctx, ev); err != nil {
		e.Log.Warn(ctx, "publish item.listed failed", "item_id", it.ID, "error", err)
	}
}

// Get returns a single item by id.
func (e *ListingEngine) Get(ctx context.Context, id string) (*model.Item, error) {
	it, err := e.Items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, errItemNotFound
		}
		return nil, err
	}
	return it, nil
}

// Search lists active items.  page and pageSize are raw query values:
// page defaults to 1, pageSize defaults to 20 and is clamped to 1..50.
func (e *ListingEngine) Search(ctx context.Context, search, page, pageSize string) ([]model.ItemSummary, error) {
	return e.Items.Search(ctx, repository.ItemSearchQuery{
		Search:   strings.TrimSpace(search),
		Page:     ParsePage(page),
		PageSize: ParsePageSize(pageSize),
	})
}

// ParsePage converts a page query value; invalid or missing means 1.
// Values beyond MaxPage are clamped to it.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, MaxPage)
}

// ParsePageSize converts a pageSize query value into 1..50; invalid,
// missing or zero means 20.
func ParsePageSize(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n == 0 {
		return DefaultPageSize
	}
	return min(MaxPageSize, max(1, n))
}

// parsePrice reads a nullable price from a JSON number or numeric string
// and rounds it to cents.  Absent, null and blank values are nil.
func parsePrice(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil
		}
	} else {
		text = string(raw)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxPrice {
		return nil, errors.New("price out of range")
	}
	// the column keeps two decimals, so range checks apply to the cent value
	f = math.Round(f*100) / 100
	if f == 0 {
		f = 0 // drop the sign of -0
	}
	return &f, nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
