package store

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketLocalStorage = "local_storage"

// Bolt is a Store backed by a single bbolt bucket.
type Bolt struct {
	bdb   *bolt.DB
	quota int
}

var _ Store = (*Bolt)(nil)

// OpenBolt opens or creates the bbolt database at path.
func OpenBolt(path string, quota int) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketLocalStorage))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket %q: %w", bucketLocalStorage, err)
	}

	return &Bolt{bdb: db, quota: quota}, nil
}

func (b *Bolt) Get(key string) ([]byte, error) {
	var value []byte
	err := b.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketLocalStorage)).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// bbolt values are only valid inside the transaction.
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to view bolt database: %w", err)
	}
	return value, nil
}

func (b *Bolt) Set(key string, value []byte) error {
	err := b.bdb.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketLocalStorage))

		used := 0
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if string(k) != key {
				used += len(k) + len(v)
			}
		}
		if !fits(b.quota, used, key, value) {
			return ErrQuotaExceeded
		}

		return bucket.Put([]byte(key), value)
	})
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			return err
		}
		return fmt.Errorf("failed to update bolt database: %w", err)
	}
	return nil
}

func (b *Bolt) Delete(key string) error {
	err := b.bdb.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketLocalStorage)).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to update bolt database: %w", err)
	}
	return nil
}

func (b *Bolt) Close() error {
	if err := b.bdb.Close(); err != nil {
		return fmt.Errorf("failed to close bolt database: %w", err)
	}
	return nil
}
