package telegram

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/require"

	"tgmonitor/storage"
)

// fakeAPI records requests and returns canned results.
type fakeAPI struct {
	mu sync.Mutex

	users    []tg.UserClass
	usersErr error
	mediaErr error
	sendErr  error

	userRequests  [][]tg.InputUserClass
	messages      []*tg.MessagesSendMessageRequest
	mediaRequests []*tg.MessagesSendMediaRequest
}

func (f *fakeAPI) UsersGetUsers(_ context.Context, id []tg.InputUserClass) ([]tg.UserClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userRequests = append(f.userRequests, id)
	return f.users, f.usersErr
}

func (f *fakeAPI) MessagesSendMessage(_ context.Context, request *tg.MessagesSendMessageRequest) (tg.UpdatesClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, request)
	return &tg.Updates{}, f.sendErr
}

func (f *fakeAPI) MessagesSendMedia(_ context.Context, request *tg.MessagesSendMediaRequest) (tg.UpdatesClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mediaRequests = append(f.mediaRequests, request)
	return &tg.Updates{}, f.mediaErr
}

func newTestService(t *testing.T, api API) (*Service, *storage.Store) {
	t.Helper()
	store, _, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewService(api, store, slog.Default()), store
}
