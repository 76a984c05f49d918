package badgerstore

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/friends-of-js/web-storage/pkg/webstorage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStoreGet(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name        string
		setup       func()
		key         string
		expectedVal string
		expectedOK  bool
	}{
		{
			name:       "get non-existent key",
			key:        "missing",
			expectedOK: false,
		},
		{
			name: "get existing key",
			setup: func() {
				store.Set("existing", "value")
			},
			key:         "existing",
			expectedVal: "value",
			expectedOK:  true,
		},
		{
			name: "get empty value",
			setup: func() {
				store.Set("empty", "")
			},
			key:         "empty",
			expectedVal: "",
			expectedOK:  true,
		},
		{
			name: "get overwritten key",
			setup: func() {
				store.Set("twice", "old")
				store.Set("twice", "new")
			},
			key:         "twice",
			expectedVal: "new",
			expectedOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}

			got, ok := store.Get(tt.key)

			if ok != tt.expectedOK {
				t.Errorf("Get() ok = %v, want %v", ok, tt.expectedOK)
				return
			}

			if got != tt.expectedVal {
				t.Errorf("Get() = %q, want %q", got, tt.expectedVal)
			}
		})
	}
}

func TestStoreRemove(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set("key", "value"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := store.Remove("key"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := store.Get("key"); ok {
		t.Error("Get() after Remove() should report absent")
	}

	// Removing an absent key succeeds.
	if err := store.Remove("key"); err != nil {
		t.Errorf("Remove() of absent key error = %v", err)
	}
}

func TestStoreEnumeration(t *testing.T) {
	store := newTestStore(t)

	for _, key := range []string{"charlie", "alpha", "bravo"} {
		if err := store.Set(key, "v"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}

	if store.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", store.Len())
	}

	// Keys enumerate in byte order regardless of insertion order.
	var keys []string
	for i := 0; i < store.Len(); i++ {
		key, ok := store.Key(i)
		if !ok {
			t.Fatalf("Key(%d) reported absent", i)
		}
		keys = append(keys, key)
	}
	if !reflect.DeepEqual(keys, []string{"alpha", "bravo", "charlie"}) {
		t.Errorf("enumeration = %v, want [alpha bravo charlie]", keys)
	}

	if _, ok := store.Key(3); ok {
		t.Error("Key(3) past the end should report false")
	}
}

func TestStoreKeyNegativeIndexPanics(t *testing.T) {
	store := newTestStore(t)

	defer func() {
		if recover() == nil {
			t.Error("Key(-1) should panic")
		}
	}()

	store.Key(-1)
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)

	for _, key := range []string{"a", "b", "c"} {
		if err := store.Set(key, "v"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if store.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", store.Len())
	}
}

func TestStoreTooLargeWriteIsCapacity(t *testing.T) {
	store := newTestStore(t)

	// A single entry past badger's transaction budget maps to the shared
	// capacity sentinel.
	err := store.Set("blob", strings.Repeat("x", 12<<20))

	if !errors.Is(err, webstorage.ErrQuotaExceeded) {
		t.Errorf("Set() error = %v, want ErrQuotaExceeded", err)
	}
	if _, ok := store.Get("blob"); ok {
		t.Error("rejected write should leave no entry")
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.Set("session/theme", `"dark"`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	if value, ok := reopened.Get("session/theme"); !ok || value != `"dark"` {
		t.Errorf("Get() after reopen = (%q, %v), want (%q, true)", value, ok, `"dark"`)
	}
}

func TestStoreWithFacade(t *testing.T) {
	backend := newTestStore(t)
	local := webstorage.New(backend)
	session := webstorage.New(backend, webstorage.WithNamespace("session"))

	if _, err := session.Set("theme", "light"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := local.Set("theme", "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if value, _, _ := session.Get("theme"); value != "light" {
		t.Errorf("session Get(theme) = %#v, want light", value)
	}
	if value, _, _ := local.Get("theme"); value != "dark" {
		t.Errorf("local Get(theme) = %#v, want dark", value)
	}

	if !reflect.DeepEqual(session.Keys(), []string{"theme"}) {
		t.Errorf("session Keys() = %v, want [theme]", session.Keys())
	}

	session.Clear()
	if local.Len() != 1 {
		t.Errorf("local Len() after session Clear() = %d, want 1", local.Len())
	}
}
