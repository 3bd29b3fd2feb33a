package businessflow

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/Maskan/models"
	"github.com/amirphl/Maskan/repository"
	"gorm.io/gorm"
)

var errStoreDown = errors.New("store unavailable")

// memTable is an in-memory table keyed by auto-increment id. Rows are copied
// on the way in and out so callers cannot mutate stored state behind the fake's back.
type memTable[T any] struct {
	mu   sync.Mutex
	rows map[uint]*T
	next uint
	id   func(*T) *uint
	cp   func(*T) *T
}

func newMemTable[T any](id func(*T) *uint, cp func(*T) *T) *memTable[T] {
	if cp == nil {
		cp = func(v *T) *T { c := *v; return &c }
	}
	return &memTable[T]{rows: map[uint]*T{}, id: id, cp: cp}
}

func (t *memTable[T]) insert(v *T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if *t.id(v) == 0 {
		t.next++
		*t.id(v) = t.next
	} else if *t.id(v) > t.next {
		t.next = *t.id(v)
	}
	t.rows[*t.id(v)] = t.cp(v)
}

func (t *memTable[T]) get(id uint) *T {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[id]
	if !ok {
		return nil
	}
	return t.cp(v)
}

func (t *memTable[T]) remove(id uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.rows[id]
	delete(t.rows, id)
	return ok
}

// query returns matching rows ordered by id, descending when orderBy asks for it
func (t *memTable[T]) query(match func(*T) bool, orderBy string, limit, offset int) []*T {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*T
	for _, v := range t.rows {
		if match == nil || match(v) {
			out = append(out, t.cp(v))
		}
	}
	desc := strings.Contains(strings.ToUpper(orderBy), "DESC")
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return *t.id(out[i]) > *t.id(out[j])
		}
		return *t.id(out[i]) < *t.id(out[j])
	})
	if offset > 0 {
		if offset >= len(out) {
			return nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (t *memTable[T]) count(match func(*T) bool) int64 {
	return int64(len(t.query(match, "", 0, 0)))
}

func eqPtr[V comparable](want *V, got V) bool {
	return want == nil || *want == got
}

// ---- users ----

type fakeUserRepo struct {
	*memTable[models.User]
	err error
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{memTable: newMemTable(func(u *models.User) *uint { return &u.ID }, nil)}
	for _, u := range users {
		r.insert(u)
	}
	return r
}

func (r *fakeUserRepo) match(f models.UserFilter) func(*models.User) bool {
	return func(u *models.User) bool {
		return eqPtr(f.ID, u.ID) && eqPtr(f.Role, u.Role) && eqPtr(f.IsApproved, u.IsApproved)
	}
}

func (r *fakeUserRepo) ByID(_ context.Context, id uint) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.get(id), nil
}

func (r *fakeUserRepo) ByFilter(_ context.Context, f models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	return r.query(r.match(f), orderBy, limit, offset), nil
}

func (r *fakeUserRepo) Save(_ context.Context, u *models.User) error { r.insert(u); return nil }

func (r *fakeUserRepo) SaveBatch(ctx context.Context, us []*models.User) error {
	for _, u := range us {
		r.insert(u)
	}
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context, f models.UserFilter) (int64, error) {
	return r.count(r.match(f)), nil
}

func (r *fakeUserRepo) Exists(ctx context.Context, f models.UserFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

// ---- listings ----

type fakeListingRepo struct {
	*memTable[models.Listing]
}

func newFakeListingRepo(listings ...*models.Listing) *fakeListingRepo {
	r := &fakeListingRepo{memTable: newMemTable(func(l *models.Listing) *uint { return &l.ID }, nil)}
	for _, l := range listings {
		r.insert(l)
	}
	return r
}

func (r *fakeListingRepo) match(f models.ListingFilter) func(*models.Listing) bool {
	return func(l *models.Listing) bool {
		return eqPtr(f.ID, l.ID) && eqPtr(f.AgentID, l.AgentID) && eqPtr(f.Status, l.Status) && eqPtr(f.ListingNumber, l.ListingNumber)
	}
}

func (r *fakeListingRepo) ByID(_ context.Context, id uint) (*models.Listing, error) {
	return r.get(id), nil
}

func (r *fakeListingRepo) ByListingNumber(_ context.Context, number string) (*models.Listing, error) {
	rows := r.query(r.match(models.ListingFilter{ListingNumber: &number}), "", 1, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *fakeListingRepo) ByFilter(_ context.Context, f models.ListingFilter, orderBy string, limit, offset int) ([]*models.Listing, error) {
	return r.query(r.match(f), orderBy, limit, offset), nil
}

func (r *fakeListingRepo) Save(_ context.Context, l *models.Listing) error { r.insert(l); return nil }

func (r *fakeListingRepo) SaveBatch(_ context.Context, ls []*models.Listing) error {
	for _, l := range ls {
		r.insert(l)
	}
	return nil
}

func (r *fakeListingRepo) Count(_ context.Context, f models.ListingFilter) (int64, error) {
	return r.count(r.match(f)), nil
}

func (r *fakeListingRepo) Exists(ctx context.Context, f models.ListingFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

// ---- tracking links ----

type fakeLinkRepo struct {
	*memTable[models.TrackingLink]
	lookupErr error
}

func newFakeLinkRepo(links ...*models.TrackingLink) *fakeLinkRepo {
	r := &fakeLinkRepo{memTable: newMemTable(func(l *models.TrackingLink) *uint { return &l.ID }, nil)}
	for _, l := range links {
		r.insert(l)
	}
	return r
}

func (r *fakeLinkRepo) match(f models.TrackingLinkFilter) func(*models.TrackingLink) bool {
	return func(l *models.TrackingLink) bool {
		return eqPtr(f.ID, l.ID) && eqPtr(f.RefCode, l.RefCode) && eqPtr(f.ListingID, l.ListingID) &&
			eqPtr(f.CreatorID, l.CreatorID) && eqPtr(f.Platform, l.Platform)
	}
}

func (r *fakeLinkRepo) ByID(_ context.Context, id uint) (*models.TrackingLink, error) {
	return r.get(id), nil
}

func (r *fakeLinkRepo) ByRefCode(_ context.Context, code string) (*models.TrackingLink, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	rows := r.query(r.match(models.TrackingLinkFilter{RefCode: &code}), "", 1, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Save enforces the unique ref code index
func (r *fakeLinkRepo) Save(_ context.Context, l *models.TrackingLink) error {
	if l.ID == 0 && r.count(r.match(models.TrackingLinkFilter{RefCode: &l.RefCode})) > 0 {
		return gorm.ErrDuplicatedKey
	}
	r.insert(l)
	return nil
}

func (r *fakeLinkRepo) SaveBatch(ctx context.Context, ls []*models.TrackingLink) error {
	for _, l := range ls {
		if err := r.Save(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeLinkRepo) ByFilter(_ context.Context, f models.TrackingLinkFilter, orderBy string, limit, offset int) ([]*models.TrackingLink, error) {
	return r.query(r.match(f), orderBy, limit, offset), nil
}

func (r *fakeLinkRepo) Count(_ context.Context, f models.TrackingLinkFilter) (int64, error) {
	return r.count(r.match(f)), nil
}

func (r *fakeLinkRepo) Exists(ctx context.Context, f models.TrackingLinkFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

func (r *fakeLinkRepo) bump(id uint, apply func(*models.TrackingLink)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok {
		return errors.New("tracking link not found")
	}
	apply(l)
	return nil
}

func (r *fakeLinkRepo) IncrementClickCount(_ context.Context, id uint) error {
	return r.bump(id, func(l *models.TrackingLink) { l.ClickCount++ })
}

func (r *fakeLinkRepo) IncrementInquiryCount(_ context.Context, id uint) error {
	return r.bump(id, func(l *models.TrackingLink) { l.InquiryCount++ })
}

func (r *fakeLinkRepo) Delete(_ context.Context, id uint) error {
	r.remove(id)
	return nil
}

// ---- click events ----

type fakeClickRepo struct {
	*memTable[models.ClickEvent]
}

func newFakeClickRepo() *fakeClickRepo {
	return &fakeClickRepo{memTable: newMemTable(func(c *models.ClickEvent) *uint { return &c.ID }, nil)}
}

func (r *fakeClickRepo) match(f models.ClickEventFilter) func(*models.ClickEvent) bool {
	return func(c *models.ClickEvent) bool {
		return eqPtr(f.TrackingLinkID, c.TrackingLinkID) && eqPtr(f.VisitorHash, c.VisitorHash) &&
			(f.CreatedAfter == nil || !c.CreatedAt.Before(*f.CreatedAfter)) &&
			(f.CreatedBefore == nil || c.CreatedAt.Before(*f.CreatedBefore))
	}
}

func (r *fakeClickRepo) ByID(_ context.Context, id uint) (*models.ClickEvent, error) {
	return r.get(id), nil
}

func (r *fakeClickRepo) ByFilter(_ context.Context, f models.ClickEventFilter, orderBy string, limit, offset int) ([]*models.ClickEvent, error) {
	return r.query(r.match(f), orderBy, limit, offset), nil
}

func (r *fakeClickRepo) Save(_ context.Context, c *models.ClickEvent) error { r.insert(c); return nil }

func (r *fakeClickRepo) SaveBatch(_ context.Context, cs []*models.ClickEvent) error {
	for _, c := range cs {
		r.insert(c)
	}
	return nil
}

func (r *fakeClickRepo) Count(_ context.Context, f models.ClickEventFilter) (int64, error) {
	return r.count(r.match(f)), nil
}

func (r *fakeClickRepo) Exists(ctx context.Context, f models.ClickEventFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

func (r *fakeClickRepo) ExistsSince(ctx context.Context, linkID uint, hash string, since time.Time) (bool, error) {
	return r.Exists(ctx, models.ClickEventFilter{TrackingLinkID: &linkID, VisitorHash: &hash, CreatedAfter: &since})
}

func (r *fakeClickRepo) InsertIfAbsent(ctx context.Context, ev *models.ClickEvent) (bool, error) {
	exists, _ := r.Exists(ctx, models.ClickEventFilter{TrackingLinkID: &ev.TrackingLinkID, VisitorHash: &ev.VisitorHash})
	if exists {
		return false, nil
	}
	r.insert(ev)
	return true, nil
}

func (r *fakeClickRepo) PruneBefore(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for _, c := range r.query(r.match(models.ClickEventFilter{CreatedBefore: &before}), "", 0, 0) {
		if r.remove(c.ID) {
			n++
		}
	}
	return n, nil
}

// ---- inquiries ----

type fakeInquiryRepo struct {
	*memTable[models.Inquiry]
	updateErr error
}

func newFakeInquiryRepo(inquiries ...*models.Inquiry) *fakeInquiryRepo {
	r := &fakeInquiryRepo{memTable: newMemTable(
		func(i *models.Inquiry) *uint { return &i.ID },
		func(i *models.Inquiry) *models.Inquiry {
			c := *i
			c.StageHistory = slices.Clone(i.StageHistory)
			return &c
		},
	)}
	for _, i := range inquiries {
		r.insert(i)
	}
	return r
}

func (r *fakeInquiryRepo) match(f models.InquiryFilter) func(*models.Inquiry) bool {
	return func(i *models.Inquiry) bool {
		if !eqPtr(f.ID, i.ID) || !eqPtr(f.ListingID, i.ListingID) || !eqPtr(f.AgentID, i.AgentID) {
			return false
		}
		if f.PromoterID != nil && (i.PromoterID == nil || *i.PromoterID != *f.PromoterID) {
			return false
		}
		if len(f.Stages) > 0 && !slices.Contains(f.Stages, i.Stage) {
			return false
		}
		if f.NonTerminal != nil && *f.NonTerminal && i.Stage.IsTerminal() {
			return false
		}
		if f.CreatedAfter != nil && i.CreatedAt.Before(*f.CreatedAfter) {
			return false
		}
		if f.CreatedBefore != nil && !i.CreatedAt.Before(*f.CreatedBefore) {
			return false
		}
		return true
	}
}

func (r *fakeInquiryRepo) ByID(_ context.Context, id uint) (*models.Inquiry, error) {
	return r.get(id), nil
}

func (r *fakeInquiryRepo) ByIDForUpdate(_ context.Context, id uint) (*models.Inquiry, error) {
	return r.get(id), nil
}

func (r *fakeInquiryRepo) UpdateStage(_ context.Context, i *models.Inquiry) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.insert(i)
	return nil
}

func (r *fakeInquiryRepo) ByFilter(_ context.Context, f models.InquiryFilter, orderBy string, limit, offset int) ([]*models.Inquiry, error) {
	return r.query(r.match(f), orderBy, limit, offset), nil
}

func (r *fakeInquiryRepo) Save(_ context.Context, i *models.Inquiry) error { r.insert(i); return nil }

func (r *fakeInquiryRepo) SaveBatch(_ context.Context, is []*models.Inquiry) error {
	for _, i := range is {
		r.insert(i)
	}
	return nil
}

func (r *fakeInquiryRepo) Count(_ context.Context, f models.InquiryFilter) (int64, error) {
	return r.count(r.match(f)), nil
}

func (r *fakeInquiryRepo) Exists(ctx context.Context, f models.InquiryFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

// ---- commissions ----

type fakeCommissionRepo struct {
	*memTable[models.Commission]
}

func newFakeCommissionRepo(commissions ...*models.Commission) *fakeCommissionRepo {
	r := &fakeCommissionRepo{memTable: newMemTable(func(c *models.Commission) *uint { return &c.ID }, nil)}
	for _, c := range commissions {
		r.insert(c)
	}
	return r
}

func (r *fakeCommissionRepo) match(f models.CommissionFilter) func(*models.Commission) bool {
	return func(c *models.Commission) bool {
		if !eqPtr(f.ID, c.ID) || !eqPtr(f.InquiryID, c.InquiryID) || !eqPtr(f.ListingID, c.ListingID) ||
			!eqPtr(f.EarnerID, c.EarnerID) || !eqPtr(f.Role, c.Role) {
			return false
		}
		if len(f.Roles) > 0 && !slices.Contains(f.Roles, c.Role) {
			return false
		}
		return len(f.Statuses) == 0 || slices.Contains(f.Statuses, c.Status)
	}
}

func (r *fakeCommissionRepo) forInquiry(id uint) []*models.Commission {
	return r.query(r.match(models.CommissionFilter{InquiryID: &id}), "", 0, 0)
}

func (r *fakeCommissionRepo) ByID(_ context.Context, id uint) (*models.Commission, error) {
	return r.get(id), nil
}

func (r *fakeCommissionRepo) ByFilter(_ context.Context, f models.CommissionFilter, orderBy string, limit, offset int) ([]*models.Commission, error) {
	return r.query(r.match(f), orderBy, limit, offset), nil
}

func (r *fakeCommissionRepo) Save(_ context.Context, c *models.Commission) error {
	r.insert(c)
	return nil
}

func (r *fakeCommissionRepo) SaveBatch(_ context.Context, cs []*models.Commission) error {
	for _, c := range cs {
		r.insert(c)
	}
	return nil
}

func (r *fakeCommissionRepo) Count(_ context.Context, f models.CommissionFilter) (int64, error) {
	return r.count(r.match(f)), nil
}

func (r *fakeCommissionRepo) Exists(ctx context.Context, f models.CommissionFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

func (r *fakeCommissionRepo) DeleteByInquiry(_ context.Context, inquiryID uint) (int64, error) {
	var n int64
	for _, c := range r.forInquiry(inquiryID) {
		if r.remove(c.ID) {
			n++
		}
	}
	return n, nil
}

func (r *fakeCommissionRepo) UpdateStatus(_ context.Context, c *models.Commission) error {
	r.insert(c)
	return nil
}

func (r *fakeCommissionRepo) SumAmount(_ context.Context, f models.CommissionFilter) (int64, error) {
	var total int64
	for _, c := range r.query(r.match(f), "", 0, 0) {
		total += c.Amount
	}
	return total, nil
}

// ---- settings ----

type fakeSettingRepo struct {
	mu     sync.Mutex
	values map[string]string
	reads  int
	err    error
}

func newFakeSettingRepo(values map[string]string) *fakeSettingRepo {
	if values == nil {
		values = map[string]string{}
	}
	return &fakeSettingRepo{values: values}
}

func (r *fakeSettingRepo) Get(_ context.Context, key string) (*models.SystemSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[key]
	if !ok {
		return nil, nil
	}
	return &models.SystemSetting{Key: key, Value: v}, nil
}

func (r *fakeSettingRepo) GetAll(_ context.Context) ([]*models.SystemSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.SystemSetting
	for k, v := range r.values {
		out = append(out, &models.SystemSetting{Key: k, Value: v})
	}
	return out, nil
}

func (r *fakeSettingRepo) Set(_ context.Context, key, value string) (*models.SystemSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.values[key] = value
	return &models.SystemSetting{Key: key, Value: value}, nil
}

func (r *fakeSettingRepo) SeedDefaults(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range models.DefaultSettings {
		if _, ok := r.values[k]; !ok {
			r.values[k] = v
		}
	}
	return nil
}

// staticSettings is a SettingsCache that always returns the same snapshot
type staticSettings struct {
	s           Settings
	invalidated int
}

func (s *staticSettings) Snapshot(context.Context) (Settings, error) { return s.s, nil }
func (s *staticSettings) Invalidate(context.Context)                 { s.invalidated++ }

// ---- audit, notifications, transactions ----

type fakeAuditRepo struct {
	*memTable[models.AuditLog]
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{memTable: newMemTable(func(a *models.AuditLog) *uint { return &a.ID }, nil)}
}

func (r *fakeAuditRepo) match(f models.AuditLogFilter) func(*models.AuditLog) bool {
	return func(a *models.AuditLog) bool {
		return eqPtr(f.Action, a.Action) && eqPtr(f.EntityType, a.EntityType)
	}
}

func (r *fakeAuditRepo) actions() []string {
	var out []string
	for _, a := range r.query(nil, "", 0, 0) {
		out = append(out, a.Action)
	}
	return out
}

func (r *fakeAuditRepo) ByID(_ context.Context, id uint) (*models.AuditLog, error) {
	return r.get(id), nil
}

func (r *fakeAuditRepo) ByFilter(_ context.Context, f models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	return r.query(r.match(f), orderBy, limit, offset), nil
}

func (r *fakeAuditRepo) Save(_ context.Context, a *models.AuditLog) error { r.insert(a); return nil }

func (r *fakeAuditRepo) SaveBatch(_ context.Context, as []*models.AuditLog) error {
	for _, a := range as {
		r.insert(a)
	}
	return nil
}

func (r *fakeAuditRepo) Count(_ context.Context, f models.AuditLogFilter) (int64, error) {
	return r.count(r.match(f)), nil
}

func (r *fakeAuditRepo) Exists(ctx context.Context, f models.AuditLogFilter) (bool, error) {
	n, _ := r.Count(ctx, f)
	return n > 0, nil
}

func (r *fakeAuditRepo) ListByActor(_ context.Context, actorID uint, limit, offset int) ([]*models.AuditLog, error) {
	return r.query(func(a *models.AuditLog) bool { return a.ActorID != nil && *a.ActorID == actorID }, "", limit, offset), nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, entityType string, entityID uint, limit, offset int) ([]*models.AuditLog, error) {
	return r.query(func(a *models.AuditLog) bool {
		return a.EntityType == entityType && a.EntityID != nil && *a.EntityID == entityID
	}, "", limit, offset), nil
}

func (r *fakeAuditRepo) ListFailedActions(_ context.Context, limit, offset int) ([]*models.AuditLog, error) {
	return r.query(func(a *models.AuditLog) bool { return a.IsFailed() }, "", limit, offset), nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*models.Notification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, notification *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

func (n *fakeNotifier) forRecipient(id uint) []*models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*models.Notification
	for _, s := range n.sent {
		if s.RecipientID == id {
			out = append(out, s)
		}
	}
	return out
}

// fakeTxManager runs fn directly. When err is set the unit of work is skipped.
type fakeTxManager struct {
	calls int
	err   error
}

func (m *fakeTxManager) WithTx(ctx context.Context, fn func(context.Context) error) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return fn(ctx)
}

var _ repository.TxManager = (*fakeTxManager)(nil)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
