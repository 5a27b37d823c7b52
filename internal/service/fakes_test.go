package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"quillblog/internal/model"
	"quillblog/internal/queue"
)

// =============================================================================
// IN-MEMORY STORE
// =============================================================================
//
// fakeStore implements every repository interface over plain maps. It ignores
// the tx argument: transaction boundaries are checked separately with sqlmock.

type likeKey struct{ commentID, userID int64 }

type fakeStore struct {
	posts    map[int64]bool
	users    map[int64]*model.User
	comments map[int64]*model.Comment
	likes    map[likeKey]bool
	reports  map[uuid.UUID]*model.Report

	nextID int64
	clock  time.Time

	// failUpdateState makes UpdateState fail for the given comment id.
	failUpdateState map[int64]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts:           map[int64]bool{1: true, 2: true},
		users:           map[int64]*model.User{},
		comments:        map[int64]*model.Comment{},
		likes:           map[likeKey]bool{},
		reports:         map[uuid.UUID]*model.Report{},
		clock:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		failUpdateState: map[int64]error{},
	}
}

func (f *fakeStore) addUser(id int64, username string) {
	f.users[id] = &model.User{ID: id, Username: username}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// seed stores a comment directly and returns its id.
func (f *fakeStore) seed(c model.Comment) int64 {
	f.nextID++
	c.ID = f.nextID
	if c.PostID == 0 {
		c.PostID = 1
	}
	if c.Status == "" {
		c.Status = model.StatusPending
	}
	c.CreatedAt = f.tick()
	c.UpdatedAt = c.CreatedAt
	f.comments[c.ID] = &c
	return c.ID
}

func (f *fakeStore) withAuthor(c model.Comment) model.Comment {
	if c.AuthorID != nil {
		if u, ok := f.users[*c.AuthorID]; ok {
			c.Author = u.Summary()
		}
	}
	return c
}

func (f *fakeStore) likeCount(commentID int64) int {
	n := 0
	for k := range f.likes {
		if k.commentID == commentID {
			n++
		}
	}
	return n
}

// PostRepository / UserRepository

func (f *fakeStore) Exists(ctx context.Context, postID int64) (bool, error) {
	return f.posts[postID], nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, model.ErrUserNotFound
}

// fakeComments exposes the store as a CommentRepository; the method names
// collide with UserRepository.GetByID, so it is a separate type.
type fakeComments struct{ *fakeStore }

func (f fakeComments) Create(ctx context.Context, c *model.Comment) error {
	if !f.posts[c.PostID] {
		return model.ErrPostNotFound
	}
	author := c.Author
	id := f.seed(*c)
	*c = *f.comments[id]
	c.Author = author
	return nil
}

func (f fakeComments) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	out := f.withAuthor(*c)
	return &out, nil
}

func (f fakeComments) GetByIDs(ctx context.Context, ids []int64) ([]model.Comment, error) {
	var out []model.Comment
	for _, id := range ids {
		if c, ok := f.comments[id]; ok {
			out = append(out, f.withAuthor(*c))
		}
	}
	return out, nil
}

func (f fakeComments) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	out := *c
	return &out, nil
}

func (f fakeComments) UpdateState(ctx context.Context, tx *sqlx.Tx, id int64, status model.CommentStatus, deletedAt *time.Time) error {
	if err := f.failUpdateState[id]; err != nil {
		return err
	}
	c, ok := f.comments[id]
	if !ok {
		return model.ErrCommentNotFound
	}
	c.Status = status
	c.DeletedAt = deletedAt
	return nil
}

func (f fakeComments) UpdateContent(ctx context.Context, tx *sqlx.Tx, id int64, content string) (*model.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	c.Content = content
	c.IsEdited = true
	out := *c
	return &out, nil
}

func (f fakeComments) SetPinned(ctx context.Context, tx *sqlx.Tx, id int64, pinned bool) error {
	c, ok := f.comments[id]
	if !ok || c.RootID != nil {
		return model.ErrCommentNotFound
	}
	c.IsPinned = pinned
	return nil
}

func (f fakeComments) CountLiveReplies(ctx context.Context, tx *sqlx.Tx, rootID int64) (int, error) {
	n := 0
	for _, c := range f.comments {
		if c.RootID != nil && *c.RootID == rootID && !c.IsTrashed() {
			n++
		}
	}
	return n, nil
}

func (f fakeComments) Purge(ctx context.Context, tx *sqlx.Tx, id int64) error {
	if _, ok := f.comments[id]; !ok {
		return model.ErrCommentNotFound
	}
	for cid, c := range f.comments {
		if cid == id || (c.RootID != nil && *c.RootID == id) {
			delete(f.comments, cid)
			for k := range f.likes {
				if k.commentID == cid {
					delete(f.likes, k)
				}
			}
			for rid, r := range f.reports {
				if r.CommentID == cid {
					delete(f.reports, rid)
				}
			}
		}
	}
	return nil
}

func (f fakeComments) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, id int64, delta int) (int, error) {
	c, ok := f.comments[id]
	if !ok {
		return 0, model.ErrCommentNotFound
	}
	c.LikesCount += delta
	return c.LikesCount, nil
}

func (f fakeComments) List(ctx context.Context, filter model.CommentFilter, page model.PageRequest) ([]model.Comment, int, error) {
	return f.page(func(c *model.Comment) bool {
		if c.IsTrashed() {
			return false
		}
		if filter.Status != "" && c.Status != filter.Status {
			return false
		}
		if filter.PostID != nil && c.PostID != *filter.PostID {
			return false
		}
		return true
	}, page)
}

func (f fakeComments) ListTrash(ctx context.Context, page model.PageRequest) ([]model.Comment, int, error) {
	return f.page(func(c *model.Comment) bool { return c.IsTrashed() }, page)
}

func (f fakeComments) visible(c *model.Comment) bool {
	return !c.IsTrashed() && c.Status == model.StatusApproved
}

func (f fakeComments) ListPublicRoots(ctx context.Context, postID int64, withTombstones bool, page model.PageRequest) ([]model.Comment, int, error) {
	items, total, err := f.page(func(c *model.Comment) bool {
		if c.PostID != postID || c.RootID != nil {
			return false
		}
		if f.visible(c) {
			return true
		}
		if !withTombstones || !c.IsTrashed() {
			return false
		}
		for _, r := range f.comments {
			if r.RootID != nil && *r.RootID == c.ID && f.visible(r) {
				return true
			}
		}
		return false
	}, page)
	sort.SliceStable(items, func(i, j int) bool {
		pi := items[i].IsPinned && !items[i].IsTrashed()
		pj := items[j].IsPinned && !items[j].IsTrashed()
		return pi && !pj
	})
	return items, total, err
}

func (f fakeComments) ListPublicReplies(ctx context.Context, rootIDs []int64) ([]model.Comment, error) {
	roots := map[int64]bool{}
	for _, id := range rootIDs {
		roots[id] = true
	}
	var out []model.Comment
	for _, c := range f.comments {
		if c.RootID != nil && roots[*c.RootID] && f.visible(c) {
			out = append(out, f.withAuthor(*c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeComments) CountStats(ctx context.Context) (*model.ModerationStats, error) {
	var s model.ModerationStats
	for _, c := range f.comments {
		switch c.State() {
		case model.StatePending:
			s.PendingComments++
		case model.StateApproved:
			s.ApprovedComments++
		case model.StateTrashed:
			s.TrashedComments++
		}
	}
	for _, r := range f.reports {
		if r.Status == model.ReportPending {
			s.PendingReports++
		}
	}
	return &s, nil
}

// page returns matches newest first.
func (f fakeComments) page(match func(*model.Comment) bool, page model.PageRequest) ([]model.Comment, int, error) {
	var all []model.Comment
	for _, c := range f.comments {
		if match(c) {
			all = append(all, f.withAuthor(*c))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// fakeLikes implements LikeRepository.
type fakeLikes struct{ *fakeStore }

func (f fakeLikes) Add(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) (bool, error) {
	k := likeKey{commentID, userID}
	if f.likes[k] {
		return false, nil
	}
	f.likes[k] = true
	return true, nil
}

func (f fakeLikes) Remove(ctx context.Context, tx *sqlx.Tx, commentID, userID int64) (bool, error) {
	k := likeKey{commentID, userID}
	if !f.likes[k] {
		return false, nil
	}
	delete(f.likes, k)
	return true, nil
}

func (f fakeLikes) CheckLikes(ctx context.Context, userID int64, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = f.likes[likeKey{id, userID}]
	}
	return out, nil
}

// fakeReports implements ReportRepository.
type fakeReports struct{ *fakeStore }

func (f fakeReports) Create(ctx context.Context, r *model.Report) error {
	if _, ok := f.comments[r.CommentID]; !ok {
		return model.ErrCommentNotFound
	}
	r.ID = uuid.New()
	r.Status = model.ReportPending
	r.CreatedAt = f.tick()
	stored := *r
	f.reports[r.ID] = &stored
	return nil
}

func (f fakeReports) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Report, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, model.ErrReportNotFound
	}
	out := *r
	return &out, nil
}

func (f fakeReports) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.ReportStatus, handledBy int64, commentDeleted bool) (*model.Report, error) {
	r, ok := f.reports[id]
	if !ok {
		return nil, model.ErrReportNotFound
	}
	at := f.tick()
	r.Status = status
	r.HandledBy = &handledBy
	r.HandledAt = &at
	r.CommentDeleted = commentDeleted
	out := *r
	return &out, nil
}

func (f fakeReports) List(ctx context.Context, status model.ReportStatus, page model.PageRequest) ([]model.Report, int, error) {
	var out []model.Report
	for _, r := range f.reports {
		if status == "" || r.Status == status {
			out = append(out, *r)
		}
	}
	return out, len(out), nil
}

// =============================================================================
// PUBLISHER & TRANSACTIONS
// =============================================================================

type recordingPublisher struct {
	events []queue.CommentEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, stream string, event queue.CommentEvent) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "1-0", nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// newTxDB returns a sqlmock-backed DB. Tests declare one ExpectBegin plus
// ExpectCommit or ExpectRollback per service-level transaction.
func newTxDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("transaction expectations: %v", err)
		}
		db.Close()
	})
	return sqlx.NewDb(db, "sqlmock"), mock
}

func expectCommits(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func expectRollbacks(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}
}

func int64Ptr(v int64) *int64 { return &v }
