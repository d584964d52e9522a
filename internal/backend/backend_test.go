package backend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"guffcircle/internal/config"
)

func stubConnect(t *testing.T, fn func(context.Context, config.Credentials, ...option.ClientOption) (*Backend, error)) {
	t.Helper()
	connect = fn
	defaultOnce = sync.Once{}
	t.Cleanup(func() {
		connect = Connect
		defaultOnce = sync.Once{}
		defaultB, defaultErr = nil, nil
	})
}

func TestAppConfig(t *testing.T) {
	creds := config.Credentials{ProjectID: "guff-circle"}.WithDefaults()
	got := AppConfig(creds)
	assert.Equal(t, "guff-circle", got.ProjectID)
	assert.Equal(t, "guff-circle.firebasestorage.app", got.StorageBucket)
}

func TestDefaultConnectsOnce(t *testing.T) {
	var calls atomic.Int32
	want := &Backend{}
	stubConnect(t, func(context.Context, config.Credentials, ...option.ClientOption) (*Backend, error) {
		calls.Add(1)
		return want, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := Default(context.Background(), config.Credentials{})
			assert.NoError(t, err)
			assert.Same(t, want, b)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestDefaultKeepsFirstError(t *testing.T) {
	boom := errors.New("bad credentials")
	stubConnect(t, func(context.Context, config.Credentials, ...option.ClientOption) (*Backend, error) {
		return nil, boom
	})

	for i := 0; i < 2; i++ {
		_, err := Default(context.Background(), config.Credentials{})
		require.ErrorIs(t, err, boom)
	}
}

func TestCloseNil(t *testing.T) {
	var b *Backend
	require.NoError(t, b.Close())
}

func TestUserFromToken(t *testing.T) {
	u, err := UserFromToken(&auth.Token{UID: "u1", Claims: map[string]interface{}{"email": "a@b.c"}})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UID)
	assert.Equal(t, "a@b.c", u.Email)

	_, err = UserFromToken(&auth.Token{UID: "u1", Claims: map[string]interface{}{}})
	assert.ErrorIs(t, err, ErrNoEmail)

	_, err = UserFromToken(nil)
	assert.Error(t, err)
}
