// Package badgerstore is the embedded default persistent store, backed by
// BadgerDB. Keys carry a zero-padded nanosecond timestamp so a forward prefix
// scan yields history in chronological order without re-sorting.
package badgerstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type Store struct {
	db  *badger.DB
	log *slog.Logger
}

// Open opens (or creates) the store at path.
func Open(path string, log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &Store{db: db, log: log}, nil
}

// New wraps an already-open badger DB (used by tests).
func New(db *badger.DB, log *slog.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return fmt.Errorf("badger is closed")
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// key layout:
//
//	msg:{room}:{unixnano %019d}:{id}  -> json message
//	file:{room}:{unixnano %019d}:{id} -> json file record
//	fileid:{id}                       -> json file record
//
// The 19-digit padding keeps lexicographic order equal to chronological
// order; the trailing uuid disambiguates two writes in the same nanosecond.
// Room names are escaped so a ':' in a room id cannot alias another prefix.
func timeKey(kind, room string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%019d:%s", kind, url.QueryEscape(room), at.UnixNano(), id))
}

func roomPrefix(kind, room string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", kind, url.QueryEscape(room)))
}

func (s *Store) scanPrefix(prefix []byte, visit func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(func(v []byte) error {
				cp := append([]byte(nil), v...)
				return visit(cp)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
