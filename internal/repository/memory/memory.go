// Package memory provides in-process implementations of the user, session
// and item stores.  They apply the same uniqueness and expiry rules as the
// MySQL repositories and return the same sentinel errors, which makes them
// suitable for service and handler tests that should not need a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/auction-marketplace/internal/model"
	"github.com/iliyamo/auction-marketplace/internal/repository"
)

// Store holds all three tables behind one lock.
type Store struct {
	mu       sync.Mutex
	users    map[string]model.User    // by id
	emails   map[string]string        // email -> id
	sessions map[string]model.Session // by token
	items    map[string]model.Item    // by id
}

func New() *Store {
	return &Store{
		users:    map[string]model.User{},
		emails:   map[string]string{},
		sessions: map[string]model.Session{},
		items:    map[string]model.Item{},
	}
}

// Users returns a view of s satisfying the user store contract.
func (s *Store) Users() *Users { return &Users{s} }

// Sessions returns a view of s satisfying the session store contract.
func (s *Store) Sessions() *Sessions { return &Sessions{s} }

// Items returns a view of s satisfying the item store contract.
func (s *Store) Items() *Items { return &Items{s} }

type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, usr *model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.emails[usr.Email]; ok {
		return repository.ErrEmailExists
	}
	u.s.users[usr.ID] = *usr
	u.s.emails[usr.Email] = usr.ID
	return nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	id, ok := u.s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	usr := u.s.users[id]
	return &usr, nil
}

func (u *Users) GetByID(_ context.Context, id string) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	usr, ok := u.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &usr, nil
}

type Sessions struct{ s *Store }

func (ss *Sessions) Create(_ context.Context, sess *model.Session) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	ss.s.sessions[sess.Token] = *sess
	return nil
}

func (ss *Sessions) Resolve(_ context.Context, token string, now time.Time) (string, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	sess, ok := ss.s.sessions[token]
	if !ok || !sess.Valid(now) {
		return "", repository.ErrSessionNotFound
	}
	return sess.UserID, nil
}

func (ss *Sessions) Delete(_ context.Context, token string) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	delete(ss.s.sessions, token)
	return nil
}

func (ss *Sessions) PurgeExpired(_ context.Context, userID string, now time.Time) (int64, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	var n int64
	for tok, sess := range ss.s.sessions {
		if sess.UserID == userID && !sess.Valid(now) {
			delete(ss.s.sessions, tok)
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored session rows, expired or not.
func (ss *Sessions) Count() int {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	return len(ss.s.sessions)
}

type Items struct{ s *Store }

func (is *Items) Create(_ context.Context, it *model.Item) error {
	is.s.mu.Lock()
	defer is.s.mu.Unlock()
	is.s.items[it.ID] = *it
	return nil
}

func (is *Items) GetByID(_ context.Context, id string) (*model.Item, error) {
	is.s.mu.Lock()
	defer is.s.mu.Unlock()
	it, ok := is.s.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	return &it, nil
}

func (is *Items) Search(_ context.Context, q repository.ItemSearchQuery) ([]model.ItemSummary, error) {
	is.s.mu.Lock()
	defer is.s.mu.Unlock()
	term := strings.ToLower(strings.TrimSpace(q.Search))
	var matched []model.Item
	for _, it := range is.s.items {
		if it.Status != model.StatusActive {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(it.Title), term) &&
			!strings.Contains(strings.ToLower(it.ShortDescription), term) {
			continue
		}
		matched = append(matched, it)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	out := []model.ItemSummary{}
	start := q.Offset()
	for i := start; i < len(matched) && i < start+q.PageSize; i++ {
		it := matched[i]
		out = append(out, model.ItemSummary{
			ID:               it.ID,
			Title:            it.Title,
			ShortDescription: it.ShortDescription,
			ImageURL:         it.ImageURL,
			SaleType:         it.SaleType,
			BuyNowPrice:      it.BuyNowPrice,
			Status:           it.Status,
			AuctionEnd:       it.AuctionEnd,
		})
	}
	return out, nil
}
