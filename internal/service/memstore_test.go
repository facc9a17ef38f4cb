package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
)

// memStore is an in-memory repository.Store. InTx holds the store mutex for
// the whole transaction and restores a snapshot when fn fails, which gives
// the same isolation as the row locks of the real store.
type memStore struct {
	mu     sync.Mutex
	data   memData
	txRuns int
}

type memData struct {
	users  map[int64]model.User
	cats   map[int64]model.Category
	events map[int64]model.Event
	reqs   map[int64]model.Request
	notes  map[int64]model.Comment
	comps  map[int64]model.Compilation
	// compilation id -> event ids; slices are replaced, never mutated
	compEvents map[int64][]int64
	nextID     int64
}

func (d memData) clone() memData {
	return memData{
		users:  maps.Clone(d.users),
		cats:   maps.Clone(d.cats),
		events: maps.Clone(d.events),
		reqs:   maps.Clone(d.reqs),
		notes:  maps.Clone(d.notes),
		comps:  maps.Clone(d.comps),

		compEvents: maps.Clone(d.compEvents),
		nextID:     d.nextID,
	}
}

func newMemStore() *memStore {
	return &memStore{data: memData{
		users:  map[int64]model.User{},
		cats:   map[int64]model.Category{},
		events: map[int64]model.Event{},
		reqs:   map[int64]model.Request{},
		notes:  map[int64]model.Comment{},
		comps:  map[int64]model.Compilation{},

		compEvents: map[int64][]int64{},
	}}
}

var _ repository.Store = (*memStore)(nil)

func (s *memStore) InTx(ctx context.Context, fn func(q repository.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txRuns++
	snapshot := s.data.clone()
	if err := fn(&memQueries{d: &s.data}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *memStore) Ping(context.Context) error { return nil }

func (s *memStore) q() (*memQueries, func()) {
	s.mu.Lock()
	return &memQueries{d: &s.data}, s.mu.Unlock
}

// Seeding helpers, used before the store is shared.

func (s *memStore) addUser(name string) int64 {
	s.data.nextID++
	id := s.data.nextID
	s.data.users[id] = model.User{ID: id, Name: name, Email: fmt.Sprintf("%s@example.com", name)}
	return id
}

func (s *memStore) addCategory(name string) int64 {
	s.data.nextID++
	id := s.data.nextID
	s.data.cats[id] = model.Category{ID: id, Name: name}
	return id
}

func (s *memStore) addEvent(e model.Event) int64 {
	s.data.nextID++
	e.ID = s.data.nextID
	s.data.events[e.ID] = e
	return e.ID
}

func (s *memStore) addRequest(r model.Request) int64 {
	s.data.nextID++
	r.ID = s.data.nextID
	s.data.reqs[r.ID] = r
	return r.ID
}

func (s *memStore) event(id int64) model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.events[id]
}

func (s *memStore) request(id int64) model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.reqs[id]
}

func (s *memStore) countRequests(eventID int64, status model.RequestStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.data.reqs {
		if r.EventID == eventID && r.Status == status {
			n++
		}
	}
	return n
}

// Store methods outside a transaction.

func (s *memStore) CreateUser(ctx context.Context, name, email string) (*model.User, error) {
	q, unlock := s.q()
	defer unlock()
	return q.CreateUser(ctx, name, email)
}

func (s *memStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	q, unlock := s.q()
	defer unlock()
	return q.GetUser(ctx, id)
}

func (s *memStore) ListUsers(ctx context.Context, ids []int64, page filter.Page) ([]model.User, error) {
	q, unlock := s.q()
	defer unlock()
	return q.ListUsers(ctx, ids, page)
}

func (s *memStore) LockUser(ctx context.Context, id int64) (*model.User, error) {
	q, unlock := s.q()
	defer unlock()
	return q.LockUser(ctx, id)
}

func (s *memStore) DeleteUser(ctx context.Context, id int64) error {
	q, unlock := s.q()
	defer unlock()
	return q.DeleteUser(ctx, id)
}

func (s *memStore) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	q, unlock := s.q()
	defer unlock()
	return q.CreateCategory(ctx, name)
}

func (s *memStore) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	q, unlock := s.q()
	defer unlock()
	return q.GetCategory(ctx, id)
}

func (s *memStore) ListCategories(ctx context.Context, page filter.Page) ([]model.Category, error) {
	q, unlock := s.q()
	defer unlock()
	return q.ListCategories(ctx, page)
}

func (s *memStore) UpdateCategory(ctx context.Context, id int64, name string) (*model.Category, error) {
	q, unlock := s.q()
	defer unlock()
	return q.UpdateCategory(ctx, id, name)
}

func (s *memStore) DeleteCategory(ctx context.Context, id int64) error {
	q, unlock := s.q()
	defer unlock()
	return q.DeleteCategory(ctx, id)
}

func (s *memStore) CategoryInUse(ctx context.Context, id int64) (bool, error) {
	q, unlock := s.q()
	defer unlock()
	return q.CategoryInUse(ctx, id)
}

func (s *memStore) CreateEvent(ctx context.Context, e *model.Event) error {
	q, unlock := s.q()
	defer unlock()
	return q.CreateEvent(ctx, e)
}

func (s *memStore) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	q, unlock := s.q()
	defer unlock()
	return q.GetEvent(ctx, id)
}

func (s *memStore) LockEvent(ctx context.Context, id int64) (*model.Event, error) {
	q, unlock := s.q()
	defer unlock()
	return q.LockEvent(ctx, id)
}

func (s *memStore) UpdateEvent(ctx context.Context, e *model.Event) error {
	q, unlock := s.q()
	defer unlock()
	return q.UpdateEvent(ctx, e)
}

func (s *memStore) SearchEvents(ctx context.Context, f filter.Filter, order filter.Sort, page filter.Page) ([]model.Event, error) {
	q, unlock := s.q()
	defer unlock()
	return q.SearchEvents(ctx, f, order, page)
}

func (s *memStore) AdjustConfirmed(ctx context.Context, eventID int64, delta int) (int, error) {
	q, unlock := s.q()
	defer unlock()
	return q.AdjustConfirmed(ctx, eventID, delta)
}

func (s *memStore) CreateRequest(ctx context.Context, r *model.Request) error {
	q, unlock := s.q()
	defer unlock()
	return q.CreateRequest(ctx, r)
}

func (s *memStore) GetRequest(ctx context.Context, id int64) (*model.Request, error) {
	q, unlock := s.q()
	defer unlock()
	return q.GetRequest(ctx, id)
}

func (s *memStore) LockRequests(ctx context.Context, ids []int64) ([]model.Request, error) {
	q, unlock := s.q()
	defer unlock()
	return q.LockRequests(ctx, ids)
}

func (s *memStore) ListRequestsByEvent(ctx context.Context, eventID int64) ([]model.Request, error) {
	q, unlock := s.q()
	defer unlock()
	return q.ListRequestsByEvent(ctx, eventID)
}

func (s *memStore) ListRequestsByRequester(ctx context.Context, requesterID int64) ([]model.Request, error) {
	q, unlock := s.q()
	defer unlock()
	return q.ListRequestsByRequester(ctx, requesterID)
}

func (s *memStore) HasActiveRequest(ctx context.Context, eventID, requesterID int64) (bool, error) {
	q, unlock := s.q()
	defer unlock()
	return q.HasActiveRequest(ctx, eventID, requesterID)
}

func (s *memStore) UpdateRequestStatus(ctx context.Context, id int64, status model.RequestStatus) error {
	q, unlock := s.q()
	defer unlock()
	return q.UpdateRequestStatus(ctx, id, status)
}

func (s *memStore) ListEventsByID(ctx context.Context, ids []int64) ([]model.Event, error) {
	q, unlock := s.q()
	defer unlock()
	return q.ListEventsByID(ctx, ids)
}

func (s *memStore) CreateComment(ctx context.Context, c *model.Comment) error {
	q, unlock := s.q()
	defer unlock()
	return q.CreateComment(ctx, c)
}

func (s *memStore) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	q, unlock := s.q()
	defer unlock()
	return q.GetComment(ctx, id)
}

func (s *memStore) UpdateCommentText(ctx context.Context, id int64, text string) (*model.Comment, error) {
	q, unlock := s.q()
	defer unlock()
	return q.UpdateCommentText(ctx, id, text)
}

func (s *memStore) DeleteComment(ctx context.Context, id int64) error {
	q, unlock := s.q()
	defer unlock()
	return q.DeleteComment(ctx, id)
}

func (s *memStore) ListComments(ctx context.Context, f repository.CommentFilter, page filter.Page) ([]model.Comment, error) {
	q, unlock := s.q()
	defer unlock()
	return q.ListComments(ctx, f, page)
}

func (s *memStore) CreateCompilation(ctx context.Context, c *model.Compilation) error {
	q, unlock := s.q()
	defer unlock()
	return q.CreateCompilation(ctx, c)
}

func (s *memStore) GetCompilation(ctx context.Context, id int64) (*model.Compilation, error) {
	q, unlock := s.q()
	defer unlock()
	return q.GetCompilation(ctx, id)
}

func (s *memStore) ListCompilations(ctx context.Context, pinned *bool, page filter.Page) ([]model.Compilation, error) {
	q, unlock := s.q()
	defer unlock()
	return q.ListCompilations(ctx, pinned, page)
}

func (s *memStore) UpdateCompilation(ctx context.Context, c *model.Compilation) error {
	q, unlock := s.q()
	defer unlock()
	return q.UpdateCompilation(ctx, c)
}

func (s *memStore) DeleteCompilation(ctx context.Context, id int64) error {
	q, unlock := s.q()
	defer unlock()
	return q.DeleteCompilation(ctx, id)
}

func (s *memStore) SetCompilationEvents(ctx context.Context, compID int64, eventIDs []int64) error {
	q, unlock := s.q()
	defer unlock()
	return q.SetCompilationEvents(ctx, compID, eventIDs)
}

func (s *memStore) ListCompilationEvents(ctx context.Context, compIDs []int64) (map[int64][]model.Event, error) {
	q, unlock := s.q()
	defer unlock()
	return q.ListCompilationEvents(ctx, compIDs)
}

// memQueries works on the data directly; the caller holds the lock.
type memQueries struct {
	d *memData
}

func (q *memQueries) id() int64 {
	q.d.nextID++
	return q.d.nextID
}

func paged[T any](items []T, page filter.Page) []T {
	if page.From >= len(items) {
		return []T{}
	}
	end := min(page.From+page.Size, len(items))
	return items[page.From:end]
}

func sortedValues[T any](m map[int64]T) []T {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func (q *memQueries) CreateUser(_ context.Context, name, email string) (*model.User, error) {
	for _, u := range q.d.users {
		if u.Email == email {
			return nil, repository.ErrDuplicate
		}
	}
	u := model.User{ID: q.id(), Name: name, Email: email}
	q.d.users[u.ID] = u
	return &u, nil
}

func (q *memQueries) GetUser(_ context.Context, id int64) (*model.User, error) {
	u, ok := q.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (q *memQueries) ListUsers(_ context.Context, ids []int64, page filter.Page) ([]model.User, error) {
	var out []model.User
	for _, u := range sortedValues(q.d.users) {
		if len(ids) == 0 || slices.Contains(ids, u.ID) {
			out = append(out, u)
		}
	}
	return paged(out, page), nil
}

func (q *memQueries) LockUser(ctx context.Context, id int64) (*model.User, error) {
	return q.GetUser(ctx, id)
}

// DeleteUser cascades the way the foreign keys of the schema do.
func (q *memQueries) DeleteUser(_ context.Context, id int64) error {
	if _, ok := q.d.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(q.d.users, id)
	for eventID, e := range q.d.events {
		if e.InitiatorID == id {
			q.deleteEvent(eventID)
		}
	}
	for reqID, r := range q.d.reqs {
		if r.RequesterID == id {
			delete(q.d.reqs, reqID)
		}
	}
	for noteID, c := range q.d.notes {
		if c.AuthorID == id {
			delete(q.d.notes, noteID)
		}
	}
	return nil
}

func (q *memQueries) deleteEvent(id int64) {
	delete(q.d.events, id)
	for reqID, r := range q.d.reqs {
		if r.EventID == id {
			delete(q.d.reqs, reqID)
		}
	}
	for noteID, c := range q.d.notes {
		if c.EventID == id {
			delete(q.d.notes, noteID)
		}
	}
	for compID, ids := range q.d.compEvents {
		q.d.compEvents[compID] = slices.DeleteFunc(slices.Clone(ids), func(e int64) bool { return e == id })
	}
}

func (q *memQueries) CreateCategory(_ context.Context, name string) (*model.Category, error) {
	for _, c := range q.d.cats {
		if c.Name == name {
			return nil, repository.ErrDuplicate
		}
	}
	c := model.Category{ID: q.id(), Name: name}
	q.d.cats[c.ID] = c
	return &c, nil
}

func (q *memQueries) GetCategory(_ context.Context, id int64) (*model.Category, error) {
	c, ok := q.d.cats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (q *memQueries) ListCategories(_ context.Context, page filter.Page) ([]model.Category, error) {
	return paged(sortedValues(q.d.cats), page), nil
}

func (q *memQueries) UpdateCategory(_ context.Context, id int64, name string) (*model.Category, error) {
	if _, ok := q.d.cats[id]; !ok {
		return nil, repository.ErrNotFound
	}
	for _, c := range q.d.cats {
		if c.Name == name && c.ID != id {
			return nil, repository.ErrDuplicate
		}
	}
	c := model.Category{ID: id, Name: name}
	q.d.cats[id] = c
	return &c, nil
}

func (q *memQueries) DeleteCategory(ctx context.Context, id int64) error {
	if _, ok := q.d.cats[id]; !ok {
		return repository.ErrNotFound
	}
	if used, _ := q.CategoryInUse(ctx, id); used {
		return repository.ErrReferenced
	}
	delete(q.d.cats, id)
	return nil
}

func (q *memQueries) CategoryInUse(_ context.Context, id int64) (bool, error) {
	for _, e := range q.d.events {
		if e.CategoryID == id {
			return true, nil
		}
	}
	return false, nil
}

func (q *memQueries) CreateEvent(_ context.Context, e *model.Event) error {
	e.ID = q.id()
	e.ConfirmedRequests = 0
	q.d.events[e.ID] = *e
	return nil
}

func (q *memQueries) GetEvent(_ context.Context, id int64) (*model.Event, error) {
	e, ok := q.d.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (q *memQueries) LockEvent(ctx context.Context, id int64) (*model.Event, error) {
	return q.GetEvent(ctx, id)
}

func (q *memQueries) UpdateEvent(_ context.Context, e *model.Event) error {
	stored, ok := q.d.events[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := *e
	updated.ConfirmedRequests = stored.ConfirmedRequests
	updated.Views = 0
	q.d.events[e.ID] = updated
	return nil
}

func (q *memQueries) SearchEvents(_ context.Context, f filter.Filter, order filter.Sort, page filter.Page) ([]model.Event, error) {
	matched := f.Apply(sortedValues(q.d.events))
	if order == filter.SortEventDate {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].EventDate.Before(matched[j].EventDate)
		})
	}
	return slices.Clone(paged(matched, page)), nil
}

func (q *memQueries) AdjustConfirmed(_ context.Context, eventID int64, delta int) (int, error) {
	e, ok := q.d.events[eventID]
	if !ok {
		return 0, repository.ErrCounterBound
	}
	next := e.ConfirmedRequests + delta
	if next < 0 || (e.ParticipantLimit > 0 && next > e.ParticipantLimit) {
		return 0, repository.ErrCounterBound
	}
	e.ConfirmedRequests = next
	q.d.events[eventID] = e
	return next, nil
}

func (q *memQueries) CreateRequest(_ context.Context, r *model.Request) error {
	for _, existing := range q.d.reqs {
		if existing.EventID == r.EventID && existing.RequesterID == r.RequesterID && existing.Status.IsActive() && r.Status.IsActive() {
			return repository.ErrDuplicate
		}
	}
	r.ID = q.id()
	q.d.reqs[r.ID] = *r
	return nil
}

func (q *memQueries) GetRequest(_ context.Context, id int64) (*model.Request, error) {
	r, ok := q.d.reqs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (q *memQueries) LockRequests(_ context.Context, ids []int64) ([]model.Request, error) {
	out := []model.Request{}
	for _, r := range sortedValues(q.d.reqs) {
		if slices.Contains(ids, r.ID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (q *memQueries) ListRequestsByEvent(_ context.Context, eventID int64) ([]model.Request, error) {
	out := []model.Request{}
	for _, r := range sortedValues(q.d.reqs) {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (q *memQueries) ListRequestsByRequester(_ context.Context, requesterID int64) ([]model.Request, error) {
	out := []model.Request{}
	for _, r := range sortedValues(q.d.reqs) {
		if r.RequesterID == requesterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (q *memQueries) HasActiveRequest(_ context.Context, eventID, requesterID int64) (bool, error) {
	for _, r := range q.d.reqs {
		if r.EventID == eventID && r.RequesterID == requesterID && r.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (q *memQueries) UpdateRequestStatus(_ context.Context, id int64, status model.RequestStatus) error {
	r, ok := q.d.reqs[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	q.d.reqs[id] = r
	return nil
}

func (q *memQueries) ListEventsByID(_ context.Context, ids []int64) ([]model.Event, error) {
	out := []model.Event{}
	for _, e := range sortedValues(q.d.events) {
		if slices.Contains(ids, e.ID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (q *memQueries) withAuthor(c model.Comment) model.Comment {
	c.AuthorName = q.d.users[c.AuthorID].Name
	return c
}

func (q *memQueries) CreateComment(_ context.Context, c *model.Comment) error {
	if _, ok := q.d.users[c.AuthorID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := q.d.events[c.EventID]; !ok {
		return repository.ErrReferenced
	}
	c.ID = q.id()
	*c = q.withAuthor(*c)
	q.d.notes[c.ID] = *c
	return nil
}

func (q *memQueries) GetComment(_ context.Context, id int64) (*model.Comment, error) {
	c, ok := q.d.notes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c = q.withAuthor(c)
	return &c, nil
}

func (q *memQueries) UpdateCommentText(ctx context.Context, id int64, text string) (*model.Comment, error) {
	c, ok := q.d.notes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.Text = text
	q.d.notes[id] = c
	return q.GetComment(ctx, id)
}

func (q *memQueries) DeleteComment(_ context.Context, id int64) error {
	if _, ok := q.d.notes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(q.d.notes, id)
	return nil
}

func (q *memQueries) ListComments(_ context.Context, f repository.CommentFilter, page filter.Page) ([]model.Comment, error) {
	var out []model.Comment
	for _, c := range sortedValues(q.d.notes) {
		if f.AuthorID != 0 && c.AuthorID != f.AuthorID {
			continue
		}
		if f.EventID != 0 && c.EventID != f.EventID {
			continue
		}
		if f.Text != "" && !strings.Contains(strings.ToLower(c.Text), strings.ToLower(f.Text)) {
			continue
		}
		out = append(out, q.withAuthor(c))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].ID > out[j].ID
	})
	return slices.Clone(paged(out, page)), nil
}

func (q *memQueries) CreateCompilation(_ context.Context, c *model.Compilation) error {
	c.ID = q.id()
	q.d.comps[c.ID] = model.Compilation{ID: c.ID, Title: c.Title, Pinned: c.Pinned}
	return nil
}

func (q *memQueries) GetCompilation(_ context.Context, id int64) (*model.Compilation, error) {
	c, ok := q.d.comps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (q *memQueries) ListCompilations(_ context.Context, pinned *bool, page filter.Page) ([]model.Compilation, error) {
	var out []model.Compilation
	for _, c := range sortedValues(q.d.comps) {
		if pinned == nil || c.Pinned == *pinned {
			out = append(out, c)
		}
	}
	return slices.Clone(paged(out, page)), nil
}

func (q *memQueries) UpdateCompilation(_ context.Context, c *model.Compilation) error {
	if _, ok := q.d.comps[c.ID]; !ok {
		return repository.ErrNotFound
	}
	q.d.comps[c.ID] = model.Compilation{ID: c.ID, Title: c.Title, Pinned: c.Pinned}
	return nil
}

func (q *memQueries) DeleteCompilation(_ context.Context, id int64) error {
	if _, ok := q.d.comps[id]; !ok {
		return repository.ErrNotFound
	}
	delete(q.d.comps, id)
	delete(q.d.compEvents, id)
	return nil
}

func (q *memQueries) SetCompilationEvents(_ context.Context, compID int64, eventIDs []int64) error {
	if _, ok := q.d.comps[compID]; !ok {
		return repository.ErrReferenced
	}
	ids := slices.Clone(eventIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	for _, id := range ids {
		if _, ok := q.d.events[id]; !ok {
			return repository.ErrReferenced
		}
	}
	q.d.compEvents[compID] = ids
	return nil
}

func (q *memQueries) ListCompilationEvents(_ context.Context, compIDs []int64) (map[int64][]model.Event, error) {
	out := map[int64][]model.Event{}
	for _, compID := range compIDs {
		for _, id := range q.d.compEvents[compID] {
			out[compID] = append(out[compID], q.d.events[id])
		}
	}
	return out, nil
}
