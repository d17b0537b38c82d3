// Package store holds the in-memory working copy of every entity
// collection. Operations read and mutate it synchronously; durable writes
// happen afterwards through the repository layer.
package store

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/internal/repository"
)

// Store is the authoritative in-memory state. All accessors return copies.
type Store struct {
	mu            sync.RWMutex
	users         []models.User
	courses       []models.Course
	sessions      []models.ClassSession
	messages      []models.Message
	notifications []models.Notification
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Snapshot is a consistent copy of every collection.
type Snapshot struct {
	Users         []models.User
	Courses       []models.Course
	Sessions      []models.ClassSession
	Messages      []models.Message
	Notifications []models.Notification
}

// Load replaces the store contents with the five collections fetched
// concurrently from ds. A collection that fails to load is left empty and
// its name is returned so the caller can warn once.
func (s *Store) Load(ctx context.Context, ds *repository.Datastore, logger *zap.Logger) []string {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		snap   Snapshot
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	fail := func(name string, err error) {
		logger.Warn("collection load failed", zap.String("collection", name), zap.String("backend", ds.Backend()), zap.Error(err))
		mu.Lock()
		failed = append(failed, name)
		mu.Unlock()
	}

	wg.Add(5)
	go func() {
		defer wg.Done()
		items, err := ds.Users.GetAll(ctx)
		if err != nil {
			fail(ds.Users.Name(), err)
			return
		}
		snap.Users = items
	}()
	go func() {
		defer wg.Done()
		items, err := ds.Courses.GetAll(ctx)
		if err != nil {
			fail(ds.Courses.Name(), err)
			return
		}
		snap.Courses = items
	}()
	go func() {
		defer wg.Done()
		items, err := ds.Sessions.GetAll(ctx)
		if err != nil {
			fail(ds.Sessions.Name(), err)
			return
		}
		snap.Sessions = items
	}()
	go func() {
		defer wg.Done()
		items, err := ds.Messages.GetAll(ctx)
		if err != nil {
			fail(ds.Messages.Name(), err)
			return
		}
		snap.Messages = items
	}()
	go func() {
		defer wg.Done()
		items, err := ds.Notifications.GetAll(ctx)
		if err != nil {
			fail(ds.Notifications.Name(), err)
			return
		}
		snap.Notifications = items
	}()
	wg.Wait()

	s.Replace(snap)
	sort.Strings(failed)
	return failed
}

// Replace swaps in a full snapshot. Sessions are ordered by start time and
// notifications newest first.
func (s *Store) Replace(snap Snapshot) {
	sessions := append([]models.ClassSession{}, snap.Sessions...)
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
	notifications := append([]models.Notification{}, snap.Notifications...)
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].Timestamp.After(notifications[j].Timestamp)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]models.User{}, snap.Users...)
	s.courses = cloneCourses(snap.Courses)
	s.sessions = sessions
	s.messages = append([]models.Message{}, snap.Messages...)
	s.notifications = notifications
}

// Snapshot returns a copy of every collection.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Users:         append([]models.User{}, s.users...),
		Courses:       cloneCourses(s.courses),
		Sessions:      append([]models.ClassSession{}, s.sessions...),
		Messages:      append([]models.Message{}, s.messages...),
		Notifications: append([]models.Notification{}, s.notifications...),
	}
}

// Users returns every user.
func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.User{}, s.users...)
}

// ReplaceUsers swaps the user collection, as done after a login refetch.
func (s *Store) ReplaceUsers(users []models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]models.User{}, users...)
}

// FindUser returns the user with id.
func (s *Store) FindUser(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

// AddUser appends a new user.
func (s *Store) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
}

// ReplaceUser overwrites the user with the same id. It reports false when
// no such user exists.
func (s *Store) ReplaceUser(u models.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == u.ID {
			s.users[i] = u
			return true
		}
	}
	return false
}

// Courses returns every course.
func (s *Store) Courses() []models.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCourses(s.courses)
}

// FindCourse returns the course with id.
func (s *Store) FindCourse(id string) (models.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return models.Course{}, false
}

// AddCourse appends a new course.
func (s *Store) AddCourse(c models.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = append(s.courses, c.Clone())
}

// UpdateCourse applies fn to the stored course with id under the write
// lock and returns the result. fn returning an error leaves the course
// unchanged.
func (s *Store) UpdateCourse(id string, fn func(*models.Course) error) (models.Course, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.courses {
		if s.courses[i].ID != id {
			continue
		}
		working := s.courses[i].Clone()
		if err := fn(&working); err != nil {
			return s.courses[i].Clone(), true, err
		}
		s.courses[i] = working
		return working.Clone(), true, nil
	}
	return models.Course{}, false, nil
}

// Sessions returns every session ordered by start time.
func (s *Store) Sessions() []models.ClassSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ClassSession{}, s.sessions...)
}

// InsertSession adds a session keeping ascending start order. Equal start
// times keep insertion order.
func (s *Store) InsertSession(session models.ClassSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := sort.Search(len(s.sessions), func(i int) bool {
		return s.sessions[i].StartTime.After(session.StartTime)
	})
	s.sessions = append(s.sessions, models.ClassSession{})
	copy(s.sessions[idx+1:], s.sessions[idx:])
	s.sessions[idx] = session
}

// Messages returns every message in insertion order.
func (s *Store) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message{}, s.messages...)
}

// AddMessage appends a message.
func (s *Store) AddMessage(m models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

// Notifications returns every notification, newest first.
func (s *Store) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Notification{}, s.notifications...)
}

// PrependNotification records a new notification at the head.
func (s *Store) PrependNotification(n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append([]models.Notification{n}, s.notifications...)
}

// MarkNotificationRead flags one notification as read and returns it.
func (s *Store) MarkNotificationRead(id string) (models.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return s.notifications[i], true
		}
	}
	return models.Notification{}, false
}

// MarkAllNotificationsRead flags every notification of userID as read and
// returns how many changed.
func (s *Store) MarkAllNotificationsRead(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].Read {
			s.notifications[i].Read = true
			changed++
		}
	}
	return changed
}

func cloneCourses(in []models.Course) []models.Course {
	out := make([]models.Course, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
