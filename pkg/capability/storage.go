package capability

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Storage is the table store behind "Import database.". Values are kept
// as display text, the way the original language stores every column as
// text. Rows come back in insertion order.
type Storage interface {
	CreateTable(name string, columns []string) error
	Save(name string, values []string) error
	FindAll(name string) ([]Record, error)
	FindWhere(name, column, value string) ([]Record, error)
	DeleteWhere(name, column, value string) error
	Count(name string) (int, error)
	Close() error
}

// Record is one stored row with its column names in declaration order.
type Record struct {
	Columns []string
	Values  []string
}

var schemaBucket = []byte("schema")

// Store is a Storage backed by a bbolt file: one bucket per table keyed
// by insertion sequence, plus a schema bucket mapping table names to
// their column lists.
type Store struct {
	mu   sync.Mutex
	path string
	temp bool
	db   *bolt.DB
}

// NewLazyStore returns a Store that opens its file on first use. An empty
// path means a throwaway per-process store, the counterpart of an
// in-memory database.
func NewLazyStore(path string) *Store {
	return &Store{path: path, temp: path == ""}
}

// OpenStore opens the bbolt file at path immediately.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	if s.temp {
		f, err := os.CreateTemp("", "prose-db-*.bolt")
		if err != nil {
			return err
		}
		s.path = f.Name()
		f.Close()
	}
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return err
	}
	s.db = db
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(schemaBucket)
		return err
	})
}

func (s *Store) CreateTable(name string, columns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		schema := tx.Bucket(schemaBucket)
		if schema.Get([]byte(name)) != nil {
			return nil // CREATE TABLE IF NOT EXISTS semantics
		}
		cols, err := json.Marshal(columns)
		if err != nil {
			return err
		}
		if err := schema.Put([]byte(name), cols); err != nil {
			return err
		}
		_, err = tx.CreateBucketIfNotExists(tableBucket(name))
		return err
	})
}

func (s *Store) Save(name string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		cols, err := tableColumns(tx, name)
		if err != nil {
			return err
		}
		if len(values) != len(cols) {
			return fmt.Errorf("table %s has %d columns but %d values were supplied",
				name, len(cols), len(values))
		}
		row, err := json.Marshal(values)
		if err != nil {
			return err
		}
		b := tx.Bucket(tableBucket(name))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), row)
	})
}

func (s *Store) FindAll(name string) ([]Record, error) {
	return s.find(name, func(Record) bool { return true })
}

func (s *Store) FindWhere(name, column, value string) ([]Record, error) {
	idx := -1
	records, err := s.find(name, func(r Record) bool {
		if idx == -1 {
			idx = columnIndex(r.Columns, column)
		}
		return idx >= 0 && r.Values[idx] == value
	})
	if err != nil {
		return nil, err
	}
	if idx == -1 && len(records) == 0 {
		// distinguish "no rows" from "no such column"
		if err := s.checkColumn(name, column); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *Store) DeleteWhere(name, column, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		cols, err := tableColumns(tx, name)
		if err != nil {
			return err
		}
		idx := columnIndex(cols, column)
		if idx < 0 {
			return fmt.Errorf("no such column: %s", column)
		}
		b := tx.Bucket(tableBucket(name))
		var doomed [][]byte
		err = b.ForEach(func(k, v []byte) error {
			var values []string
			if err := json.Unmarshal(v, &values); err != nil {
				return err
			}
			if idx < len(values) && values[idx] == value {
				doomed = append(doomed, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Count(name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return 0, err
	}
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		if _, err := tableColumns(tx, name); err != nil {
			return err
		}
		count = tx.Bucket(tableBucket(name)).Stats().KeyN
		return nil
	})
	return count, err
}

// Close releases the underlying file, deleting it for throwaway stores.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if s.temp {
		os.Remove(s.path)
		os.Remove(filepath.Clean(s.path) + ".lock")
	}
	return err
}

func (s *Store) find(name string, keep func(Record) bool) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return nil, err
	}
	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		cols, err := tableColumns(tx, name)
		if err != nil {
			return err
		}
		return tx.Bucket(tableBucket(name)).ForEach(func(k, v []byte) error {
			var values []string
			if err := json.Unmarshal(v, &values); err != nil {
				return err
			}
			rec := Record{Columns: cols, Values: values}
			if keep(rec) {
				records = append(records, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) checkColumn(name, column string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		cols, err := tableColumns(tx, name)
		if err != nil {
			return err
		}
		if columnIndex(cols, column) < 0 {
			return fmt.Errorf("no such column: %s", column)
		}
		return nil
	})
}

func tableColumns(tx *bolt.Tx, name string) ([]string, error) {
	raw := tx.Bucket(schemaBucket).Get([]byte(name))
	if raw == nil {
		return nil, fmt.Errorf("no such table: %s", name)
	}
	var cols []string
	if err := json.Unmarshal(raw, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

func tableBucket(name string) []byte {
	return []byte("table:" + name)
}

func seqKey(seq uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], seq)
	return k[:]
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
