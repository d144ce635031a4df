package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionBindOperatorRotatesID(t *testing.T) {
	mr, client := newRedis(t)
	sm := NewSessionManager(client, "qd_session", time.Hour, false)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.Set("k", "v")
	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))
	anonymousID := sess.ID
	require.True(t, mr.Exists(sessionKeyPrefix+anonymousID))

	req = httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: anonymousID})
	sess, err = sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "v", sess.Get("k"))

	sess.BindOperator("7")
	res = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))

	assert.NotEqual(t, anonymousID, sess.ID)
	assert.False(t, mr.Exists(sessionKeyPrefix+anonymousID))
	assert.True(t, mr.Exists(sessionKeyPrefix+sess.ID))

	req = httptest.NewRequest(http.MethodGet, "/quotes", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "7", loaded.Operator())
	assert.Empty(t, loaded.Get("k"))
}

func TestSessionUnknownCookieGetsFreshID(t *testing.T) {
	_, client := newRedis(t)
	sm := NewSessionManager(client, "qd_session", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: "attacker-chosen"})
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "attacker-chosen", sess.ID)
	assert.Empty(t, sess.Operator())
}

func TestSessionAnonymousUntouchedIsNotPersisted(t *testing.T) {
	mr, client := newRedis(t)
	sm := NewSessionManager(client, "qd_session", time.Hour, false)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodPost, "/quotes", nil))
	require.NoError(t, err)
	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))

	assert.Empty(t, mr.Keys())
	assert.Empty(t, res.Result().Cookies())
}

func TestSessionDestroy(t *testing.T) {
	mr, client := newRedis(t)
	sm := NewSessionManager(client, "qd_session", time.Hour, false)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.BindOperator("1")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))
	require.True(t, mr.Exists(sessionKeyPrefix+sess.ID))

	sm.Destroy(sess)
	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))
	assert.False(t, mr.Exists(sessionKeyPrefix+sess.ID))
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestCSRFTokenRoundTrip(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := &Session{ID: "abc"}
	ctx := context.Background()

	token, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	again, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, m.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, m.VerifyToken(ctx, sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(ctx, nil, token), ErrCSRFTokenMissing)

	other := &Session{ID: "xyz"}
	other.Set(CSRFSessionKey, token)
	assert.ErrorIs(t, m.VerifyToken(ctx, other, token), ErrCSRFTokenMismatch)

	fresh, err := m.EnsureToken(ctx, &Session{ID: "abc"})
	require.NoError(t, err)
	assert.NotEqual(t, token, fresh)
}

func TestLockerExclusive(t *testing.T) {
	mr, client := newRedis(t)
	locker := NewLocker(client, 10*time.Second)
	ctx := context.Background()
	key := QuoteLockKey("q-1")

	release, err := locker.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, key)
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := locker.Acquire(ctx, QuoteLockKey("q-2"))
	require.NoError(t, err)
	other()

	release()
	assert.False(t, mr.Exists(key))

	release2, err := locker.Acquire(ctx, key)
	require.NoError(t, err)
	release2()
}

func TestLockerReleaseOnlyByOwner(t *testing.T) {
	mr, client := newRedis(t)
	locker := NewLocker(client, time.Second)
	ctx := context.Background()
	key := QuoteLockKey("q-1")

	stale, err := locker.Acquire(ctx, key)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	fresh, err := locker.Acquire(ctx, key)
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists(key), "expired owner must not release the new holder's lock")

	fresh()
	assert.False(t, mr.Exists(key))
}

func TestPageParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/quotes?limit=500&offset=-3", nil)
	limit, offset := PageParams(req)
	assert.Equal(t, maxPageSize, limit)
	assert.Equal(t, 0, offset)

	req = httptest.NewRequest(http.MethodGet, "/quotes", nil)
	limit, offset = PageParams(req)
	assert.Equal(t, defaultPageSize, limit)
	assert.Equal(t, 0, offset)

	p := NewPagination(20, 40, 45)
	assert.Equal(t, 3, p.TotalPages)
}
