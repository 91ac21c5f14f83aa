package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const (
	defaultBoltBucket = "objects"
	metaBucket        = "meta"
)

type BoltConfig struct {
	// Path of the database file. Defaults to $HOME/.surge/objects.db.
	Path   string `mapstructure:"path"`
	Bucket string `mapstructure:"bucket"`
}

// objectMeta is stored as JSON next to each body.
type objectMeta struct {
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// Bolt stores objects in a local bbolt database. Concurrent Puts are
// coalesced through bbolt's batch transactions.
type Bolt struct {
	db     *bbolt.DB
	bucket []byte
	path   string
}

func NewBolt(cfg BoltConfig) (*Bolt, error) {
	path := cfg.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, &OpError{Backend: "bolt", Op: "init", Err: err}
		}
		path = filepath.Join(home, ".surge", "objects.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &OpError{Backend: "bolt", Op: "init", Err: err}
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = defaultBoltBucket
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, &OpError{Backend: "bolt", Op: "open", Key: path, Err: err}
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, &OpError{Backend: "bolt", Op: "init", Err: err}
	}

	return &Bolt{db: db, bucket: []byte(bucket), path: path}, nil
}

func (b *Bolt) Name() string { return "bolt" }

// Path returns the database file location.
func (b *Bolt) Path() string { return b.path }

func (b *Bolt) Put(ctx context.Context, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return &OpError{Backend: "bolt", Op: "put", Key: key, Err: err}
	}
	meta, err := json.Marshal(objectMeta{Size: int64(len(body)), LastModified: time.Now().UTC()})
	if err != nil {
		return &OpError{Backend: "bolt", Op: "put", Key: key, Err: err}
	}

	err = b.db.Batch(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(b.bucket).Put([]byte(key), body); err != nil {
			return err
		}
		return tx.Bucket([]byte(metaBucket)).Put([]byte(key), meta)
	})
	if err != nil {
		return &OpError{Backend: "bolt", Op: "put", Key: key, Err: err}
	}
	return nil
}

// Get returns a copy of the stored body.
func (b *Bolt) Get(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(b.bucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		out = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, &OpError{Backend: "bolt", Op: "get", Key: key, Err: err}
	}
	return out, nil
}

func (b *Bolt) List(_ context.Context, prefix string) ([]Item, error) {
	var folders, files []Item
	seen := make(map[string]bool)

	err := b.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(metaBucket))
		c := meta.Cursor()
		p := []byte(prefix)

		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			key := string(k)
			rest := key[len(prefix):]
			if i := strings.Index(rest, "/"); i >= 0 {
				folder := prefix + rest[:i+1]
				if !seen[folder] {
					seen[folder] = true
					folders = append(folders, Item{Key: folder, Type: TypeFolder})
				}
				continue
			}

			var m objectMeta
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			modified := m.LastModified
			files = append(files, Item{Key: key, Size: m.Size, LastModified: &modified, Type: TypeFile})
		}
		return nil
	})
	if err != nil {
		return nil, &OpError{Backend: "bolt", Op: "list", Key: prefix, Err: err}
	}
	return append(folders, files...), nil
}

func (b *Bolt) DeletePrefix(_ context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, ErrEmptyPrefix
	}

	deleted := 0
	err := b.db.Update(func(tx *bbolt.Tx) error {
		data, meta := tx.Bucket(b.bucket), tx.Bucket([]byte(metaBucket))
		p := []byte(prefix)

		// Collect first; deleting while iterating skips keys.
		var keys [][]byte
		c := meta.Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, bytes.Clone(k))
		}
		for _, k := range keys {
			if err := data.Delete(k); err != nil {
				return err
			}
			if err := meta.Delete(k); err != nil {
				return err
			}
		}
		deleted = len(keys)
		return nil
	})
	if err != nil {
		return 0, &OpError{Backend: "bolt", Op: "delete", Key: prefix, Err: err}
	}
	return deleted, nil
}

func (b *Bolt) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
