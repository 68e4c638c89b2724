package handlers

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/assetdesk/backend/models"
	"github.com/assetdesk/backend/query"
	"github.com/assetdesk/backend/service"
	"github.com/assetdesk/backend/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// matches evaluates the equality clauses of a built filter against fields.
// $or clauses are skipped; the filter builder has its own tests.
func matches(filter bson.D, fields map[string]string) bool {
	for _, e := range filter {
		if e.Key == "$or" {
			continue
		}
		if v, ok := e.Value.(string); ok && fields[e.Key] != v {
			return false
		}
	}
	return true
}

type fakeUsers struct {
	mu          sync.Mutex
	users       map[primitive.ObjectID]*models.User
	invalidated []string
	err         error
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{users: map[primitive.ObjectID]*models.User{}}
	for i := range users {
		u := users[i]
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		f.users[u.ID] = &u
	}
	return f
}

func (f *fakeUsers) byEmail(email string) *models.User {
	for _, u := range f.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (f *fakeUsers) ListUsers(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, u *models.User) (store.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byEmail(u.Email) != nil {
		return store.InsertResult{}, store.ErrDuplicate
	}
	cp := *u
	cp.ID = primitive.NewObjectID()
	f.users[cp.ID] = &cp
	return store.InsertResult{Acknowledged: true, InsertedID: cp.ID}, nil
}

func (f *fakeUsers) PromoteToAdmin(_ context.Context, id primitive.ObjectID) (store.UpdateResult, *models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.UpdateResult{}, nil, store.ErrNotFound
	}
	before := *u
	res := store.UpdateResult{Acknowledged: true, MatchedCount: 1}
	if !u.IsAdmin() {
		res.ModifiedCount = 1
	}
	u.Role = models.RoleAdmin
	return res, &before, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id primitive.ObjectID) (store.DeleteResult, *models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.DeleteResult{}, nil, store.ErrNotFound
	}
	delete(f.users, id)
	return store.DeleteResult{Acknowledged: true, DeletedCount: 1}, u, nil
}

func (f *fakeUsers) RoleByEmail(_ context.Context, email string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", false, f.err
	}
	u := f.byEmail(email)
	if u == nil {
		return "", false, nil
	}
	return u.Role, true, nil
}

func (f *fakeUsers) Invalidate(_ context.Context, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, email)
}

func (f *fakeUsers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

type fakeAssets struct {
	mu       sync.Mutex
	assets   map[primitive.ObjectID]*models.Asset
	lastSpec query.Spec
}

func newFakeAssets(assets ...models.Asset) *fakeAssets {
	f := &fakeAssets{assets: map[primitive.ObjectID]*models.Asset{}}
	for i := range assets {
		a := assets[i]
		if a.ID.IsZero() {
			a.ID = primitive.NewObjectID()
		}
		f.assets[a.ID] = &a
	}
	return f
}

func (f *fakeAssets) ListAssets(_ context.Context, spec query.Spec) ([]models.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSpec = spec
	out := make([]models.Asset, 0, len(f.assets))
	for _, a := range f.assets {
		if matches(spec.Filter, map[string]string{"type": a.Type, "product": a.Product}) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product < out[j].Product })
	return out, nil
}

func (f *fakeAssets) AssetByID(_ context.Context, id primitive.ObjectID) (*models.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAssets) InsertAsset(_ context.Context, a *models.Asset) (store.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	cp.ID = primitive.NewObjectID()
	f.assets[cp.ID] = &cp
	return store.InsertResult{Acknowledged: true, InsertedID: cp.ID}, nil
}

func (f *fakeAssets) UpdateAsset(_ context.Context, id primitive.ObjectID, p models.AssetPatch) (store.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[id]
	if !ok {
		return store.UpdateResult{}, store.ErrNotFound
	}
	if p.Product != nil {
		a.Product = *p.Product
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Quantity != nil {
		a.Quantity = *p.Quantity
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	return store.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeAssets) DeleteAsset(_ context.Context, id primitive.ObjectID) (store.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.assets[id]; !ok {
		return store.DeleteResult{}, store.ErrNotFound
	}
	delete(f.assets, id)
	return store.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

// RestockAsset holds the lock for the whole increment, like $inc on the server.
func (f *fakeAssets) RestockAsset(_ context.Context, product string) (*models.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assets {
		if a.Product == product {
			a.Quantity++
			now := testNow
			a.QuantityDate = &now
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeAssets) quantity(product string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assets {
		if a.Product == product {
			return int(a.Quantity)
		}
	}
	return -1
}

func applyTransition(status *string, t models.Transition) error {
	if !t.Allows(*status) {
		return store.ErrInvalidTransition
	}
	*status = t.To
	return nil
}

type fakeCustom struct {
	mu   sync.Mutex
	reqs map[primitive.ObjectID]*models.CustomRequest
}

func newFakeCustom(reqs ...models.CustomRequest) *fakeCustom {
	f := &fakeCustom{reqs: map[primitive.ObjectID]*models.CustomRequest{}}
	for i := range reqs {
		c := reqs[i]
		f.reqs[c.ID] = &c
	}
	return f
}

func (f *fakeCustom) ListCustomRequests(_ context.Context, spec query.Spec) ([]models.CustomRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.CustomRequest, 0)
	for _, c := range f.reqs {
		if matches(spec.Filter, map[string]string{"email": c.Email, "type": c.Type, "status": c.Status}) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out, nil
}

func (f *fakeCustom) CustomRequestByID(_ context.Context, id primitive.ObjectID) (*models.CustomRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.reqs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustom) InsertCustomRequest(_ context.Context, c *models.CustomRequest) (store.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	cp.ID = primitive.NewObjectID()
	if cp.Status == "" {
		cp.Status = models.StatusPending
	}
	f.reqs[cp.ID] = &cp
	return store.InsertResult{Acknowledged: true, InsertedID: cp.ID}, nil
}

func (f *fakeCustom) UpdateCustomRequest(_ context.Context, id primitive.ObjectID, p models.CustomRequestPatch) (store.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.reqs[id]
	if !ok {
		return store.UpdateResult{}, store.ErrNotFound
	}
	if p.Price != nil {
		c.Price = *p.Price
	}
	if p.Why != nil {
		c.Why = *p.Why
	}
	if p.Image != nil {
		c.Image = *p.Image
	}
	return store.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeCustom) TransitionCustomRequest(_ context.Context, id primitive.ObjectID, t models.Transition) (*models.CustomRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.reqs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if err := applyTransition(&c.Status, t); err != nil {
		return nil, err
	}
	now := testNow
	switch t.Stamp {
	case "Approval_date":
		c.ApprovalDate = &now
	case "reject_date":
		c.RejectDate = &now
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustom) get(id primitive.ObjectID) models.CustomRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.reqs[id]
}

type fakeRequests struct {
	mu       sync.Mutex
	reqs     map[primitive.ObjectID]*models.BorrowRequest
	lastSpec query.Spec
}

func newFakeRequests(reqs ...models.BorrowRequest) *fakeRequests {
	f := &fakeRequests{reqs: map[primitive.ObjectID]*models.BorrowRequest{}}
	for i := range reqs {
		r := reqs[i]
		f.reqs[r.ID] = &r
	}
	return f
}

func (f *fakeRequests) ListBorrowRequests(_ context.Context, spec query.Spec) ([]models.BorrowRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSpec = spec
	out := make([]models.BorrowRequest, 0)
	for _, r := range f.reqs {
		if matches(spec.Filter, map[string]string{"email": r.Email, "type": r.Type, "status": r.Status}) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out, nil
}

func (f *fakeRequests) InsertBorrowRequest(_ context.Context, r *models.BorrowRequest) (store.InsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	cp.ID = primitive.NewObjectID()
	if cp.Status == "" {
		cp.Status = models.StatusPending
	}
	f.reqs[cp.ID] = &cp
	return store.InsertResult{Acknowledged: true, InsertedID: cp.ID}, nil
}

func (f *fakeRequests) DeleteBorrowRequest(_ context.Context, id primitive.ObjectID) (store.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reqs[id]; !ok {
		return store.DeleteResult{}, store.ErrNotFound
	}
	delete(f.reqs, id)
	return store.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

func (f *fakeRequests) TransitionBorrowRequest(_ context.Context, id primitive.ObjectID, t models.Transition) (*models.BorrowRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reqs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if err := applyTransition(&r.Status, t); err != nil {
		return nil, err
	}
	now := testNow
	switch t.Stamp {
	case "Approval_date":
		r.ApprovalDate = &now
	case "reject_date":
		r.RejectDate = &now
	case "Return_date":
		r.ReturnDate = &now
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRequests) get(id primitive.ObjectID) models.BorrowRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.reqs[id]
}

type fakeImages struct {
	owner, filename, contentType, body string
	deleted                            []string
	deleteErr                          error
}

func (f *fakeImages) Upload(_ context.Context, owner, filename string, body io.Reader, contentType string) (string, string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", "", err
	}
	f.owner, f.filename, f.contentType, f.body = owner, filename, contentType, string(b)
	return "custom/" + owner + "/img.png", "https://bucket/custom/" + owner + "/img.png", nil
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

func (f *fakeImages) KeyFromRef(ref string) (string, bool) {
	key := strings.TrimPrefix(ref, "https://bucket/")
	return key, strings.HasPrefix(key, "custom/")
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []service.Decision
	err  error
}

func (f *fakeMailer) NotifyDecision(_ context.Context, d service.Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, d)
	return f.err
}

func (f *fakeMailer) decisions() []service.Decision {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Decision(nil), f.sent...)
}

type fakeEmailLogs struct {
	mu   sync.Mutex
	logs []models.EmailLog
}

func (f *fakeEmailLogs) InsertEmailLog(_ context.Context, l *models.EmailLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, *l)
	return nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }
