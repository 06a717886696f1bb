package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// keyPrefix namespaces cache keys inside the badger keyspace.
const keyPrefix = "rc:"

// BadgerBackend persists entries in a badger database so cached responses
// survive restarts. Entries also carry a native badger TTL so expired data
// is reclaimed by compaction even if never looked up again.
type BadgerBackend[V any] struct {
	db  *badger.DB
	now func() time.Time
}

// OpenBadgerBackend opens or creates a badger database at path.
// An empty path opens an in-memory database.
func OpenBadgerBackend[V any](path string) (*BadgerBackend[V], error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &badgerLogger{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	return &BadgerBackend[V]{db: db, now: time.Now}, nil
}

// Get implements Backend.
func (b *BadgerBackend[V]) Get(key string) (Entry[V], bool, error) {
	var entry Entry[V]
	found := false

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entry); err != nil {
				return fmt.Errorf("decode cache entry: %w", err)
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return Entry[V]{}, false, err
	}
	return entry, found, nil
}

// Set implements Backend.
func (b *BadgerBackend[V]) Set(key string, entry Entry[V]) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(keyPrefix+key), data)
		if ttl := entry.ExpiresAt.Sub(b.now()); ttl > 0 {
			// Badger TTL has second granularity; round up so the native
			// expiry never precedes the entry's own.
			e = e.WithTTL(ttl.Truncate(time.Second) + time.Second)
		}
		return txn.SetEntry(e)
	})
}

// Delete implements Backend.
func (b *BadgerBackend[V]) Delete(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
}

// Purge implements Backend. The database is owned by the cache, so every
// key is dropped.
func (b *BadgerBackend[V]) Purge() error {
	return b.db.DropAll()
}

// Len implements Backend.
func (b *BadgerBackend[V]) Len() int {
	n := 0
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n
}

// Close implements Backend.
func (b *BadgerBackend[V]) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger's internal logging through slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(msg string, args ...any) {
	l.logger.Error(fmt.Sprintf(msg, args...), slog.String("component", "badger"))
}

func (l *badgerLogger) Warningf(msg string, args ...any) {
	l.logger.Warn(fmt.Sprintf(msg, args...), slog.String("component", "badger"))
}

func (l *badgerLogger) Infof(msg string, args ...any) {
	l.logger.Debug(fmt.Sprintf(msg, args...), slog.String("component", "badger"))
}

func (l *badgerLogger) Debugf(msg string, args ...any) {
	l.logger.Debug(fmt.Sprintf(msg, args...), slog.String("component", "badger"))
}
