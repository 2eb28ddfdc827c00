package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type recordedCommands struct {
	mu   sync.Mutex
	cmds [][]any
	auth string
}

func (r *recordedCommands) add(cmd []any, auth string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
	r.auth = auth
}

func (r *recordedCommands) last() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cmds) == 0 {
		return nil
	}
	return r.cmds[len(r.cmds)-1]
}

func newUpstashTestStore(t *testing.T, reply string, opts ...StoreOption) (*UpstashRedisStore, *recordedCommands) {
	t.Helper()

	rec := &recordedCommands{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var cmd []any
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			t.Errorf("decode command: %v", err)
		}
		rec.add(cmd, r.Header.Get("Authorization"))
		fmt.Fprint(w, reply)
	}))
	t.Cleanup(server.Close)

	opts = append([]StoreOption{WithHTTPClient(server.Client())}, opts...)
	store, err := NewUpstashRedisStore(UpstashRedisConfig{URL: server.URL, Token: "token"}, opts...)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}
	return store, rec
}

func TestPrefsKeyRejectsEmptyDevice(t *testing.T) {
	t.Parallel()

	if _, err := prefsKey(defaultStoreKeyPrefix, "   "); !errors.Is(err, ErrInvalidDevice) {
		t.Fatalf("prefsKey() error = %v, want ErrInvalidDevice", err)
	}
	got, err := prefsKey(defaultStoreKeyPrefix, " dev-1 ")
	if err != nil {
		t.Fatalf("prefsKey() error = %v", err)
	}
	if got != "relay:prefs:dev-1" {
		t.Fatalf("prefsKey() = %q", got)
	}
}

func TestNewUpstashRedisStoreValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewUpstashRedisStore(UpstashRedisConfig{Token: "x"}); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := NewUpstashRedisStore(UpstashRedisConfig{URL: "https://example.upstash.io"}); err == nil {
		t.Fatal("expected error for missing token")
	}
	if _, err := NewUpstashRedisStore(UpstashRedisConfig{URL: "https://x", Token: "t"}, WithTTL(-1)); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestUpstashRedisStoreSave(t *testing.T) {
	t.Parallel()

	store, rec := newUpstashTestStore(t, `{"result":"OK"}`, WithKeyPrefix("shop:"))

	err := store.Save(context.Background(), "dev-1", Preferences{CartID: "gid://shopify/Cart/1"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cmd := rec.last()
	if len(cmd) != 5 {
		t.Fatalf("unexpected command: %#v", cmd)
	}
	if cmd[0] != "SET" || cmd[1] != "shop:dev-1" || cmd[3] != "EX" {
		t.Fatalf("unexpected command: %#v", cmd)
	}
	if cmd[4] != float64(30*24*60*60) {
		t.Fatalf("ttl = %v, want 30 days", cmd[4])
	}
	var saved Preferences
	if err := json.Unmarshal([]byte(cmd[2].(string)), &saved); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if saved.CartID != "gid://shopify/Cart/1" {
		t.Fatalf("unexpected payload: %#v", saved)
	}
	if rec.auth != "Bearer token" {
		t.Fatalf("unexpected auth header %q", rec.auth)
	}
}

func TestUpstashRedisStoreSaveEmptyDeletes(t *testing.T) {
	t.Parallel()

	store, rec := newUpstashTestStore(t, `{"result":1}`)

	if err := store.Save(context.Background(), "dev-2", Preferences{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	cmd := rec.last()
	if len(cmd) != 2 || cmd[0] != "DEL" || cmd[1] != "relay:prefs:dev-2" {
		t.Fatalf("unexpected command: %#v", cmd)
	}
}

func TestUpstashRedisStoreLoad(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(Preferences{CartID: "c1", AuthToken: "tok"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	encoded, err := json.Marshal(string(payload))
	if err != nil {
		t.Fatalf("marshal encoded: %v", err)
	}

	store, rec := newUpstashTestStore(t, fmt.Sprintf(`{"result":%s}`, encoded))

	prefs, err := store.Load(context.Background(), "dev-3")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if prefs.CartID != "c1" || prefs.AuthToken != "tok" {
		t.Fatalf("unexpected preferences: %#v", prefs)
	}
	cmd := rec.last()
	if cmd[0] != "GET" || cmd[1] != "relay:prefs:dev-3" {
		t.Fatalf("unexpected command: %#v", cmd)
	}
}

func TestUpstashRedisStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store, _ := newUpstashTestStore(t, `{"result":null}`)

	_, err := store.Load(context.Background(), "dev-4")
	if !errors.Is(err, ErrPreferencesNotFound) {
		t.Fatalf("Load() error = %v, want ErrPreferencesNotFound", err)
	}
}

func TestUpstashRedisStoreSurfacesRedisError(t *testing.T) {
	t.Parallel()

	store, _ := newUpstashTestStore(t, `{"error":"WRONGTYPE"}`)

	err := store.Delete(context.Background(), "dev-5")
	if err == nil || err.Error() != "WRONGTYPE" {
		t.Fatalf("Delete() error = %v, want WRONGTYPE", err)
	}
}

func TestTTLSecondsRoundsUp(t *testing.T) {
	t.Parallel()

	if got := ttlSeconds(1500 * time.Millisecond); got != 2 {
		t.Fatalf("ttlSeconds(1.5s) = %d, want 2", got)
	}
	if got := ttlSeconds(0); got != 1 {
		t.Fatalf("ttlSeconds(0) = %d, want 1", got)
	}
}

func TestRedisConfigRejectsBadURL(t *testing.T) {
	t.Parallel()

	cfg := &RedisConfig{URL: "not-a-redis-url"}
	if _, err := cfg.New(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := NewRedisStore(nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestNopStore(t *testing.T) {
	t.Parallel()

	var s PreferenceStore = NopStore{}
	if err := s.Save(context.Background(), "d", Preferences{CartID: "c"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := s.Load(context.Background(), "d"); !errors.Is(err, ErrPreferencesNotFound) {
		t.Fatalf("Load() error = %v", err)
	}
}
