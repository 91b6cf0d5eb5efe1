package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auction-marketplace/internal/logging"
	"github.com/iliyamo/auction-marketplace/internal/model"
	"github.com/iliyamo/auction-marketplace/internal/queue"
	"github.com/iliyamo/auction-marketplace/internal/repository"
	"github.com/iliyamo/auction-marketplace/internal/repository/memory"
)

type recordingPublisher struct {
	events []queue.ItemListedEvent
	err    error
}

func (r *recordingPublisher) PublishItemListed(_ context.Context, ev queue.ItemListedEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

var (
	owner = Principal{UserID: "user-1", Email: "a@x.com"}
	epoch = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
)

func newEngine(t *testing.T) (*ListingEngine, *memory.Store, *recordingPublisher) {
	t.Helper()
	store := memory.New()
	pub := &recordingPublisher{}
	e := NewListingEngine(store.Items(), pub, logging.Discard())
	e.Now = func() time.Time { return epoch }
	return e, store, pub
}

func baseInput(saleType string) ItemInput {
	return ItemInput{
		Title:            "Vintage camera",
		ShortDescription: "Works fine",
		LongDescription:  "A 1970s rangefinder in good condition.",
		ImageURL:         "https://img.example.com/cam.jpg",
		SaleType:         saleType,
	}
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestCreate_RequiresPrincipal(t *testing.T) {
	e, _, pub := newEngine(t)
	_, err := e.Create(context.Background(), Anonymous, baseInput("auction"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, pub.events)
}

func TestCreate_AuctionDerivesFields(t *testing.T) {
	e, store, pub := newEngine(t)
	in := baseInput("auction")
	in.ReservePrice = raw("10")
	in.BuyNowPrice = raw("99")

	it, err := e.Create(context.Background(), owner, in)
	require.NoError(t, err)

	assert.Equal(t, model.SaleAuction, it.SaleType)
	assert.Equal(t, model.StatusActive, it.Status)
	assert.Equal(t, owner.UserID, it.UserID)
	assert.Nil(t, it.BuyNowPrice)
	require.NotNil(t, it.ReservePrice)
	assert.Equal(t, 10.0, *it.ReservePrice)
	require.NotNil(t, it.AuctionStart)
	require.NotNil(t, it.AuctionEnd)
	assert.Equal(t, epoch, *it.AuctionStart)
	assert.Equal(t, 604800*time.Second, it.AuctionEnd.Sub(*it.AuctionStart))

	stored, err := store.Items().GetByID(context.Background(), it.ID)
	require.NoError(t, err)
	assert.Equal(t, *it, *stored)

	require.Len(t, pub.events, 1)
	assert.Equal(t, it.ID, pub.events[0].ItemID)
	assert.Equal(t, "auction", pub.events[0].SaleType)
	assert.NotEmpty(t, pub.events[0].AuctionEnd)
}

func TestCreate_FixedNullsAuctionFields(t *testing.T) {
	e, _, _ := newEngine(t)
	in := baseInput("fixed")
	in.BuyNowPrice = raw(`"25"`)
	in.ReservePrice = raw("5")

	it, err := e.Create(context.Background(), owner, in)
	require.NoError(t, err)

	require.NotNil(t, it.BuyNowPrice)
	assert.Equal(t, 25.0, *it.BuyNowPrice)
	assert.Nil(t, it.ReservePrice)
	assert.Nil(t, it.AuctionStart)
	assert.Nil(t, it.AuctionEnd)
}

func TestCreate_FixedWithoutBuyNowFails(t *testing.T) {
	e, store, _ := newEngine(t)
	for _, bn := range []json.RawMessage{nil, raw("null"), raw(`""`)} {
		in := baseInput("fixed")
		in.BuyNowPrice = bn
		_, err := e.Create(context.Background(), owner, in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	items, err := store.Items().Search(context.Background(), searchAll())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreate_ValidationErrors(t *testing.T) {
	long := strings.Repeat("x", MaxTitleLength+1)
	cases := map[string]func(in *ItemInput){
		"missing title":      func(in *ItemInput) { in.Title = "  " },
		"missing long desc":  func(in *ItemInput) { in.LongDescription = "" },
		"relative image":     func(in *ItemInput) { in.ImageURL = "/img/cam.jpg" },
		"ftp image":          func(in *ItemInput) { in.ImageURL = "ftp://img.example.com/cam.jpg" },
		"title too long":     func(in *ItemInput) { in.Title = long },
		"short too long":     func(in *ItemInput) { in.ShortDescription = strings.Repeat("y", MaxShortDescriptionLength+1) },
		"bad sale type":      func(in *ItemInput) { in.SaleType = "barter" },
		"negative reserve":   func(in *ItemInput) { in.ReservePrice = raw("-1") },
		"NaN reserve":        func(in *ItemInput) { in.ReservePrice = raw(`"abc"`) },
		"NaN literal":        func(in *ItemInput) { in.ReservePrice = raw(`"NaN"`) },
		"bool reserve":       func(in *ItemInput) { in.ReservePrice = raw("true") },
		"zero buy now":       func(in *ItemInput) { in.BuyNowPrice = raw("0") },
		"huge buy now":       func(in *ItemInput) { in.BuyNowPrice = raw("1e20") },
		"object buy now":     func(in *ItemInput) { in.BuyNowPrice = raw(`{"v":1}`) },
		"bad buy on auction": func(in *ItemInput) { in.BuyNowPrice = raw(`"x"`) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			e, _, pub := newEngine(t)
			in := baseInput("auction")
			mutate(&in)
			_, err := e.Create(context.Background(), owner, in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, pub.events)
		})
	}
}

func TestCreate_TitleLengthCountsCharacters(t *testing.T) {
	e, _, _ := newEngine(t)
	in := baseInput("auction")
	in.Title = strings.Repeat("é", MaxTitleLength)
	_, err := e.Create(context.Background(), owner, in)
	assert.NoError(t, err)

	// e followed by U+0301 composes to one character
	in.Title = strings.Repeat("e\u0301", MaxTitleLength)
	it, err := e.Create(context.Background(), owner, in)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", MaxTitleLength), it.Title)
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	e, _, pub := newEngine(t)
	pub.err = errors.New("broker down")
	in := baseInput("fixed")
	in.BuyNowPrice = raw("12.5")

	it, err := e.Create(context.Background(), owner, in)
	require.NoError(t, err)
	assert.NotEmpty(t, it.ID)
}

func TestGet(t *testing.T) {
	e, _, _ := newEngine(t)
	in := baseInput("fixed")
	in.BuyNowPrice = raw("12.5")
	it, err := e.Create(context.Background(), owner, in)
	require.NoError(t, err)

	got, err := e.Get(context.Background(), it.ID)
	require.NoError(t, err)
	assert.Equal(t, it.ID, got.ID)

	_, err = e.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch_FiltersAndPages(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	for i, title := range []string{"Red Bike", "Blue bike", "Lamp"} {
		e.Now = func() time.Time { return epoch.Add(time.Duration(i) * time.Minute) }
		in := baseInput("auction")
		in.Title = title
		_, err := e.Create(ctx, owner, in)
		require.NoError(t, err)
	}

	got, err := e.Search(ctx, " BIKE ", "", "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Blue bike", got[0].Title)

	got, err = e.Search(ctx, "", "2", "2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Red Bike", got[0].Title)
}

func TestParsePagination(t *testing.T) {
	assert.Equal(t, 1, ParsePage(""))
	assert.Equal(t, 1, ParsePage("-3"))
	assert.Equal(t, 1, ParsePage("abc"))
	assert.Equal(t, 4, ParsePage("4"))
	assert.Equal(t, MaxPage, ParsePage("9223372036854775807"))
	assert.Equal(t, 1, ParsePage("99999999999999999999"))

	assert.Equal(t, 20, ParsePageSize(""))
	assert.Equal(t, 20, ParsePageSize("0"))
	assert.Equal(t, 1, ParsePageSize("-5"))
	assert.Equal(t, 50, ParsePageSize("500"))
	assert.Equal(t, 7, ParsePageSize("7"))
}

func TestSearch_HugePageIsEmpty(t *testing.T) {
	e, _, _ := newEngine(t)
	in := baseInput("fixed")
	in.BuyNowPrice = raw("5")
	_, err := e.Create(context.Background(), owner, in)
	require.NoError(t, err)

	items, err := e.Search(context.Background(), "", "9223372036854775807", "50")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreate_PricesRoundToCents(t *testing.T) {
	e, _, _ := newEngine(t)

	in := baseInput("fixed")
	in.BuyNowPrice = raw("0.001")
	_, err := e.Create(context.Background(), owner, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in.BuyNowPrice = raw(`"12.346"`)
	it, err := e.Create(context.Background(), owner, in)
	require.NoError(t, err)
	require.NotNil(t, it.BuyNowPrice)
	assert.Equal(t, 12.35, *it.BuyNowPrice)

	in = baseInput("auction")
	in.ReservePrice = raw("-0.004")
	it, err = e.Create(context.Background(), owner, in)
	require.NoError(t, err)
	require.NotNil(t, it.ReservePrice)
	assert.Zero(t, *it.ReservePrice)
}

func searchAll() repository.ItemSearchQuery {
	return repository.ItemSearchQuery{Page: 1, PageSize: MaxPageSize}
}
