package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketClientState = []byte("client_state")

// BoltStore persiste el estado del cliente en un archivo BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database at path
func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store dir %s: %w", dir, err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketClientState)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketClientState).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		// data sólo es válido dentro de la transacción
		value = append([]byte(nil), data...)
		return nil
	})
	return value, mapBoltErr(err)
}

func (s *BoltStore) Save(ctx context.Context, key string, value []byte) error {
	return mapBoltErr(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketClientState).Put([]byte(key), value)
	}))
}

func (s *BoltStore) Delete(ctx context.Context, key string) error {
	return mapBoltErr(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketClientState).Delete([]byte(key))
	}))
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func mapBoltErr(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}
