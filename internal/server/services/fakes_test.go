package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/dmaltsev/tasklist/internal/dbx"
	"github.com/dmaltsev/tasklist/internal/logging"
	"github.com/dmaltsev/tasklist/internal/server/models"
	todosrepo "github.com/dmaltsev/tasklist/internal/server/repositories/todos"
	tokensrepo "github.com/dmaltsev/tasklist/internal/server/repositories/tokens"
	usersrepo "github.com/dmaltsev/tasklist/internal/server/repositories/users"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// passthroughTx runs the function directly. The fakes keep state in memory,
// so there is no transaction to open.
func passthroughTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

// --- in-memory stateful fakes ---

type fakeUsersRepo struct {
	byNo   map[int64]*models.User
	nextNo int64

	createErr error
	findErr   error
	updateErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byNo: map[int64]*models.User{}, nextNo: 1}
}

func (f *fakeUsersRepo) add(u *models.User) *models.User {
	u.UserNo = f.nextNo
	f.nextNo++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	f.byNo[u.UserNo] = u
	return u
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.add(u), nil
}

func (f *fakeUsersRepo) Find(ctx context.Context, userNo int64) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.byNo[userNo]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.byNo {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) Update(ctx context.Context, userNo int64, upd *usersrepo.Update) (int64, error) {
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	u, ok := f.byNo[userNo]
	if !ok {
		return 0, nil
	}
	if upd.UserName != nil {
		u.UserName = *upd.UserName
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}
	return 1, nil
}

func (f *fakeUsersRepo) UpdateLastLoginAt(ctx context.Context, userNo int64) error {
	if u, ok := f.byNo[userNo]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

type fakeTokensRepo struct {
	byValue map[string]*models.RefreshToken
	nextNo  int64

	createErr error
	findErr   error
	updateErr error
	deleteErr error

	// force affected counts regardless of state
	updateAffected *int64
	deleteAffected *int64
}

func newFakeTokensRepo() *fakeTokensRepo {
	return &fakeTokensRepo{byValue: map[string]*models.RefreshToken{}, nextNo: 1}
}

func (f *fakeTokensRepo) Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	token.TokenNo = f.nextNo
	f.nextNo++
	f.byValue[token.RefreshToken] = token
	return token, nil
}

func (f *fakeTokensRepo) FindByRefreshToken(ctx context.Context, value string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	token, ok := f.byValue[value]
	if !ok {
		return nil, common.ErrNotFound
	}
	return token, nil
}

func (f *fakeTokensRepo) FindAllByUserNo(ctx context.Context, userNo int64) ([]*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var result []*models.RefreshToken
	for _, token := range f.byValue {
		if token.UserNo == userNo {
			result = append(result, token)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (f *fakeTokensRepo) UpdateAccessExpiry(ctx context.Context, tokenNo int64, expiry time.Time) (int64, error) {
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	if f.updateAffected != nil {
		return *f.updateAffected, nil
	}
	for _, token := range f.byValue {
		if token.TokenNo == tokenNo {
			token.AccessTokenExpiresAt = expiry
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeTokensRepo) Delete(ctx context.Context, tokenNo int64) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	if f.deleteAffected != nil {
		return *f.deleteAffected, nil
	}
	for value, token := range f.byValue {
		if token.TokenNo == tokenNo {
			delete(f.byValue, value)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeTodosRepo struct {
	byID   map[string]*models.Todo
	maxSeq int

	createErr error
	findErr   error
	statsErr  error

	stats *todosrepo.Stats
}

func newFakeTodosRepo() *fakeTodosRepo {
	return &fakeTodosRepo{byID: map[string]*models.Todo{}}
}

func (f *fakeTodosRepo) Create(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	todo.CreatedAt = time.Now()
	f.byID[todo.TodoID] = todo
	if todo.Sequence > f.maxSeq {
		f.maxSeq = todo.Sequence
	}
	return todo, nil
}

func (f *fakeTodosRepo) Find(ctx context.Context, todoID string) (*models.Todo, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	todo, ok := f.byID[todoID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return todo, nil
}

func (f *fakeTodosRepo) FindPage(ctx context.Context, userNo int64, filter todosrepo.Filter) ([]*models.Todo, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	matched := f.match(userNo, filter)
	if filter.Offset >= len(matched) {
		return nil, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], nil
}

func (f *fakeTodosRepo) CountPage(ctx context.Context, userNo int64, filter todosrepo.Filter) (int64, error) {
	if f.findErr != nil {
		return 0, f.findErr
	}
	return int64(len(f.match(userNo, filter))), nil
}

func (f *fakeTodosRepo) match(userNo int64, filter todosrepo.Filter) []*models.Todo {
	var matched []*models.Todo
	for _, todo := range f.byID {
		if todo.UserNo != userNo {
			continue
		}
		if filter.Status == todosrepo.StatusComplete && !todo.Completed() {
			continue
		}
		if filter.Status == todosrepo.StatusIncomplete && todo.Completed() {
			continue
		}
		matched = append(matched, todo)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Sequence < matched[j].Sequence })
	return matched
}

func (f *fakeTodosRepo) MaxSequence(ctx context.Context, userNo int64) (int, error) {
	return f.maxSeq, nil
}

func (f *fakeTodosRepo) Update(ctx context.Context, todo *models.Todo) (int64, error) {
	if _, ok := f.byID[todo.TodoID]; !ok {
		return 0, nil
	}
	f.byID[todo.TodoID] = todo
	return 1, nil
}

func (f *fakeTodosRepo) UpdateSequence(ctx context.Context, todoID string, sequence int) (int64, error) {
	todo, ok := f.byID[todoID]
	if !ok {
		return 0, nil
	}
	todo.Sequence = sequence
	return 1, nil
}

func (f *fakeTodosRepo) SetCompletedAt(ctx context.Context, todoID string, completedAt *time.Time) (int64, error) {
	todo, ok := f.byID[todoID]
	if !ok {
		return 0, nil
	}
	todo.CompletedAt = completedAt
	return 1, nil
}

func (f *fakeTodosRepo) Delete(ctx context.Context, todoID string) (int64, error) {
	if _, ok := f.byID[todoID]; !ok {
		return 0, nil
	}
	delete(f.byID, todoID)
	return 1, nil
}

func (f *fakeTodosRepo) Statistics(ctx context.Context, userNo int64) (*todosrepo.Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if f.stats != nil {
		return f.stats, nil
	}
	stats := &todosrepo.Stats{}
	for _, todo := range f.byID {
		if todo.UserNo != userNo {
			continue
		}
		stats.Total++
		if todo.Completed() {
			stats.Completed++
		}
	}
	return stats, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *fakeTokensRepo
	d *fakeTodosRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u: newFakeUsersRepo(),
		t: newFakeTokensRepo(),
		d: newFakeTodosRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.u }
func (m *fakeRepoManager) Tokens(db dbx.DBTX) tokensrepo.Repository    { return m.t }
func (m *fakeRepoManager) Todos(db dbx.DBTX) todosrepo.Repository      { return m.d }

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

// lastCode extracts the 6-digit code from the most recent mail body.
func (f *fakeMailer) lastCode() (string, error) {
	if len(f.sent) == 0 {
		return "", fmt.Errorf("no mail sent")
	}
	body := f.sent[len(f.sent)-1].body
	for i := 0; i+6 <= len(body); i++ {
		code := body[i : i+6]
		digits := true
		for _, c := range code {
			if c < '0' || c > '9' {
				digits = false
				break
			}
		}
		if digits {
			return code, nil
		}
	}
	return "", fmt.Errorf("no code in body %q", body)
}
