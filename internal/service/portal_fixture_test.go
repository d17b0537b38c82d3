package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/internal/repository"
	"github.com/noah-isme/pocket-university-api/internal/store"
)

var errBackendDown = errors.New("backend unavailable")

// fakeBackend is an in-memory DocumentBackend whose verbs can be made to
// fail per collection.
type fakeBackend struct {
	mu    sync.Mutex
	docs  map[string][]repository.Document
	fail  map[string]bool
	calls map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{docs: map[string][]repository.Document{}, fail: map[string]bool{}, calls: map[string]int{}}
}

func (b *fakeBackend) failOn(collection, verb string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[collection+"/"+verb] = true
}

func (b *fakeBackend) count(collection, verb string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[collection+"/"+verb]
}

func (b *fakeBackend) enter(collection, verb string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[collection+"/"+verb]++
	if b.fail[collection+"/"+verb] {
		return errBackendDown
	}
	return nil
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Find(_ context.Context, collection string) ([]json.RawMessage, error) {
	if err := b.enter(collection, repository.VerbFind); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []json.RawMessage{}
	for _, doc := range b.docs[collection] {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func (b *fakeBackend) InsertOne(_ context.Context, collection string, doc repository.Document) error {
	if err := b.enter(collection, repository.VerbInsertOne); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[collection] = append(b.docs[collection], doc)
	return nil
}

func (b *fakeBackend) UpdateOne(_ context.Context, collection string, filter repository.Filter, set repository.Document) error {
	return b.update(collection, repository.VerbUpdateOne, filter, set, false)
}

func (b *fakeBackend) UpdateMany(_ context.Context, collection string, filter repository.Filter, set repository.Document) error {
	return b.update(collection, repository.VerbUpdateMany, filter, set, true)
}

func (b *fakeBackend) update(collection, verb string, filter repository.Filter, set repository.Document, many bool) error {
	if err := b.enter(collection, verb); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, doc := range b.docs[collection] {
		matched := true
		for k, v := range filter {
			if doc[k] != v {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		for k, v := range set {
			doc[k] = v
		}
		if !many {
			return nil
		}
	}
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memorySlot struct {
	mu   sync.Mutex
	user *models.User
	fail error
}

func (s *memorySlot) Load(context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

func (s *memorySlot) Save(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.user = &user
	return nil
}

func (s *memorySlot) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	return nil
}

type portal struct {
	clock     *fakeClock
	backend   *fakeBackend
	data      *repository.Datastore
	store     *store.Store
	slot      *memorySlot
	feedback  *FeedbackService
	metrics   *MetricsService
	notifier  *NotificationService
	courses   *CourseService
	schedules *ScheduleService
	messages  *MessageService
	users     *UserService
	auth      *AuthService
	dashboard *DashboardService
}

func seedUsers() []models.User {
	return []models.User{
		{ID: "T1000", Name: "Grace Hopper", Initials: "GH", Email: "grace@pocket.edu", Role: models.RoleTeacher, Department: "CSE", Password: "123"},
		{ID: "T2000", Name: "Alan Turing", Initials: "AT", Email: "alan@pocket.edu", Role: models.RoleTeacher, Department: "CSE", Password: "123"},
		{ID: "ST4821", Name: "Maya Rahman", Initials: "MR", Email: "maya@pocket.edu", Role: models.RoleStudent, Department: "CSE", Semester: "3", Section: "C", Password: "123"},
		{ID: "ST1001", Name: "Omar Faruk", Initials: "OF", Email: "omar@pocket.edu", Role: models.RoleStudent, Department: "CSE", Semester: "3", Section: "A", Password: "123"},
		{ID: "ST1002", Name: "Nadia Islam", Initials: "NI", Email: "nadia@pocket.edu", Role: models.RoleStudent, Department: "CSE", Semester: "3", Section: "A", Password: "123"},
		{ID: "ST1003", Name: "Rafi Ahmed", Initials: "RA", Email: "rafi@pocket.edu", Role: models.RoleStudent, Department: "CSE", Semester: "3", Section: "C", Password: "123"},
		{ID: "ST1004", Name: "Lina Das", Initials: "LD", Email: "lina@pocket.edu", Role: models.RoleStudent, Department: "EEE", Semester: "3", Section: "A", Password: "123"},
		{ID: "ST1005", Name: "Tariq Hasan", Initials: "TH", Email: "tariq@pocket.edu", Role: models.RoleStudent, Department: "CSE", Semester: "5", Section: "A", Password: "123"},
		{ID: "CR2000", Name: "Sara Kabir", Initials: "SK", Email: "sara@pocket.edu", Role: models.RoleClassRep, Department: "CSE", Semester: "3", Section: "B", Password: "123"},
		{ID: "ST1006", Name: "Imran Ali", Initials: "IA", Email: "imran@pocket.edu", Role: models.RoleStudent, Department: "CSE", Semester: "3", Section: "B", Password: "123"},
	}
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	backend := newFakeBackend()
	for _, u := range seedUsers() {
		raw, err := json.Marshal(u)
		require.NoError(t, err)
		var doc repository.Document
		require.NoError(t, json.Unmarshal(raw, &doc))
		backend.docs[repository.CollectionUsers] = append(backend.docs[repository.CollectionUsers], doc)
	}

	data := repository.NewDatastore(backend)
	st := store.New()
	st.Replace(store.Snapshot{Users: seedUsers()})

	metrics := NewMetricsService()
	feedback := NewFeedbackService(5*time.Second, clock.Now)
	notifier := NewNotificationService(st, data.Notifications, metrics, nil, clock.Now, nil)
	deps := EngineDeps{
		Store:    st,
		Notifier: notifier,
		Feedback: feedback,
		Metrics:  metrics,
		IDs:      NewIDGenerator(clock.Now),
	}
	slot := &memorySlot{}
	auth := NewAuthService(st, data.Users, slot, feedback, metrics, nil, nil, AuthConfig{AccessTokenSecret: "test-secret", AccessTokenExpiry: time.Hour, Issuer: "pocket"})
	schedules := NewScheduleService(deps, data.Sessions)

	return &portal{
		clock:     clock,
		backend:   backend,
		data:      data,
		store:     st,
		slot:      slot,
		feedback:  feedback,
		metrics:   metrics,
		notifier:  notifier,
		courses:   NewCourseService(deps, data.Courses),
		schedules: schedules,
		messages:  NewMessageService(deps, data.Messages),
		users:     NewUserService(deps, data.Users, auth),
		auth:      auth,
		dashboard: NewDashboardService(st, schedules, nil, nil, DashboardServiceConfig{}),
	}
}

func (p *portal) user(t *testing.T, id string) *models.User {
	t.Helper()
	u, ok := p.store.FindUser(id)
	require.True(t, ok, "unknown fixture user %s", id)
	return &u
}

// inbox returns the titles of the notifications addressed to userID.
func (p *portal) inbox(userID string) []string {
	var titles []string
	for _, n := range p.store.Notifications() {
		if n.UserID == userID {
			titles = append(titles, n.Title)
		}
	}
	return titles
}

func (p *portal) recipients() map[string]int {
	out := map[string]int{}
	for _, n := range p.store.Notifications() {
		out[n.UserID]++
	}
	return out
}

func (p *portal) lastFeedback(t *testing.T) models.Feedback {
	t.Helper()
	items := p.feedback.Active()
	require.NotEmpty(t, items)
	return items[len(items)-1]
}
