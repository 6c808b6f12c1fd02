// Package ledger remembers which programs have already been handed to the
// downloader. Entries expire with the program's retention window.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/gaurav-prasanna/radiopipe/core"
)

const keyPrefix = "trigger:"

// Ledger is a Badger-backed set of triggered programs.
type Ledger struct {
	db  *badger.DB
	now func() time.Time
}

type entry struct {
	Artists     []string  `json:"artists"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// Open opens (or creates) the ledger in dir.
func Open(dir string) (*Ledger, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	return &Ledger{db: db, now: time.Now}, nil
}

// OpenInMemory opens a ledger that lives only as long as the process.
func OpenInMemory() (*Ledger, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening in-memory ledger: %w", err)
	}
	return &Ledger{db: db, now: time.Now}, nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func key(p core.ProgramRecord) []byte {
	return []byte(keyPrefix + p.Station.ID + ":" +
		p.StartTime.In(core.StationZone).Format(core.StationTimeLayout) + ":" +
		strconv.FormatUint(p.ID, 10))
}

// MarkIfNew records p and reports true the first time it is seen. Programs
// whose retention has already run out are never recorded and report false.
func (l *Ledger) MarkIfNew(p core.ProgramRecord, artists []string) (bool, error) {
	now := l.now()
	ttl := p.ExpireAt().Sub(now)
	if ttl <= 0 {
		return false, nil
	}
	data, err := json.Marshal(entry{Artists: artists, TriggeredAt: now.UTC()})
	if err != nil {
		return false, fmt.Errorf("encoding ledger entry: %w", err)
	}

	k := key(p)
	fresh := false
	err = l.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(k)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		fresh = true
		return txn.SetEntry(badger.NewEntry(k, data).WithTTL(ttl))
	})
	if err != nil {
		return false, fmt.Errorf("updating ledger: %w", err)
	}
	return fresh, nil
}

// Seen reports whether p has been recorded and not yet expired.
func (l *Ledger) Seen(p core.ProgramRecord) (bool, error) {
	err := l.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(p))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("reading ledger: %w", err)
	}
}

// Len counts live entries.
func (l *Ledger) Len() (int, error) {
	n := 0
	err := l.db.View(func(txn *badger.Txn) error {
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
	return n, err
}
