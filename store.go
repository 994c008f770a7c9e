package main

import (
	"bytes"
	"encoding/binary"
	"flag"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var (
	dbpath = flag.String("db", "gputerrain.db", "db file name, empty to disable")
)

var (
	cameraBucket = []byte("camera")
)

// Store keeps the camera pose between runs.
type Store struct {
	db *bolt.DB
}

func NewStore(p string) (*Store, error) {
	db, err := bolt.Open(p, 0666, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", p)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cameraBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create buckets")
	}
	db.NoSync = true
	return &Store{
		db: db,
	}, nil
}

func (s *Store) UpdateCameraState(state CameraState) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(cameraBucket)
		buf := new(bytes.Buffer)
		if err := binary.Write(buf, binary.LittleEndian, &state); err != nil {
			return err
		}
		return bkt.Put(cameraBucket, buf.Bytes())
	})
}

// GetCameraState returns the saved pose, if any.
func (s *Store) GetCameraState() (CameraState, bool) {
	var (
		state CameraState
		found bool
	)
	s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(cameraBucket)
		value := bkt.Get(cameraBucket)
		if value == nil {
			return nil
		}
		buf := bytes.NewBuffer(value)
		found = binary.Read(buf, binary.LittleEndian, &state) == nil
		return nil
	})
	return state, found
}

func (s *Store) Close() error {
	s.db.Sync()
	return s.db.Close()
}
