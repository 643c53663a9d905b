package listings

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/availboard/availbot/availbot/database/models"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// memStore is an in-memory ListingStore. It hands out copies so mutations by
// the code under test only land via Create/Update, like a real database.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	byOwner   map[string]*models.Listing
	createErr error
	updateErr error
	deleteErr map[int64]error
}

func newMemStore() *memStore {
	return &memStore{
		byOwner:   make(map[string]*models.Listing),
		deleteErr: make(map[int64]error),
	}
}

func (s *memStore) GetByOwner(_ context.Context, ownerID string) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byOwner[ownerID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (s *memStore) GetAll(_ context.Context) ([]*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*models.Listing, 0, len(s.byOwner))
	for _, l := range s.byOwner {
		cp := *l
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].LastBumpAt.After(all[j].LastBumpAt)
	})
	return all, nil
}

func (s *memStore) Create(_ context.Context, listing *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	listing.ID = s.nextID
	cp := *listing
	s.byOwner[listing.OwnerID] = &cp
	return nil
}

func (s *memStore) Update(_ context.Context, listing *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	cp := *listing
	s.byOwner[listing.OwnerID] = &cp
	return nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.deleteErr[id]; ok {
		return err
	}
	for owner, l := range s.byOwner {
		if l.ID == id {
			delete(s.byOwner, owner)
			break
		}
	}
	return nil
}

// memPointers is an in-memory PointerStore.
type memPointers struct {
	mu   sync.Mutex
	rows map[string]*models.ListMessage
}

func newMemPointers() *memPointers {
	return &memPointers{rows: make(map[string]*models.ListMessage)}
}

func (p *memPointers) Get(_ context.Context, listType string) (*models.ListMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	row, ok := p.rows[listType]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (p *memPointers) Set(_ context.Context, listType string, channelID, messageID snowflake.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows[listType] = &models.ListMessage{
		Type:      listType,
		ChannelID: channelID,
		MessageID: messageID,
		UpdatedAt: time.Now(),
	}
	return nil
}

// mapProfiles is a ProfileSource backed by a map. Absent owners resolve to
// (nil, nil); errFor simulates lookup failures.
type mapProfiles struct {
	profiles map[string]*models.Profile
	errFor   map[string]error
}

func newMapProfiles(owners ...string) *mapProfiles {
	m := &mapProfiles{
		profiles: make(map[string]*models.Profile),
		errFor:   make(map[string]error),
	}
	for _, owner := range owners {
		m.profiles[owner] = &models.Profile{UserID: owner, DisplayName: "user-" + owner}
	}
	return m
}

func (m *mapProfiles) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	if err, ok := m.errFor[userID]; ok {
		return nil, err
	}
	return m.profiles[userID], nil
}

// fakeGateway records every channel call and can be made to fail each one.
type fakeGateway struct {
	mu        sync.Mutex
	nextID    snowflake.ID
	channelID snowflake.ID

	sent    []snowflake.ID
	edited  []snowflake.ID
	deleted []snowflake.ID
	pinned  []snowflake.ID

	sendErr   error
	editErr   error
	deleteErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{nextID: 1000, channelID: 42}
}

func (g *fakeGateway) Send(_ context.Context, _ Post) (snowflake.ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return 0, g.sendErr
	}
	g.nextID++
	g.sent = append(g.sent, g.nextID)
	return g.nextID, nil
}

func (g *fakeGateway) Edit(_ context.Context, messageID snowflake.ID, _ Post) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.editErr != nil {
		return g.editErr
	}
	g.edited = append(g.edited, messageID)
	return nil
}

func (g *fakeGateway) Delete(_ context.Context, messageID snowflake.ID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.deleteErr != nil {
		return g.deleteErr
	}
	g.deleted = append(g.deleted, messageID)
	return nil
}

func (g *fakeGateway) Pin(_ context.Context, messageID snowflake.ID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pinned = append(g.pinned, messageID)
	return nil
}

func (g *fakeGateway) ChannelID() snowflake.ID {
	return g.channelID
}

func (g *fakeGateway) counts() (sent, edited, deleted int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent), len(g.edited), len(g.deleted)
}

// captureRenderer produces minimal posts and records the last summary args.
type captureRenderer struct {
	mu           sync.Mutex
	summaryCalls int
	lastAll      []*models.Listing
	lastProfiles map[string]*models.Profile
}

func (r *captureRenderer) RenderListing(profile *models.Profile, _ *models.Listing, _ time.Time) Post {
	return Post{Embeds: []discord.Embed{{Title: profile.DisplayName}}}
}

func (r *captureRenderer) RenderSummary(all []*models.Listing, profiles map[string]*models.Profile) Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaryCalls++
	r.lastAll = all
	r.lastProfiles = profiles
	return Post{Embeds: []discord.Embed{{Title: "summary"}}}
}
