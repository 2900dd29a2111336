package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/popcodeorg/playground-backend/internal/projects/event"
)

// Journal is an append-only event log kept in a bbolt file. Each stream
// (one per user session) is a bucket keyed by a big-endian sequence number.
type Journal struct {
	db *bolt.DB
}

// OpenJournal opens or creates the journal file at path.
func OpenJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Append stores env at the end of stream.
func (j *Journal) Append(ctx context.Context, stream string, env event.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(stream))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), data)
	})
}

// Replay calls fn for every entry of stream after the given sequence
// number, in order. A stream that was never written is empty.
func (j *Journal) Replay(ctx context.Context, stream string, after uint64, fn func(seq uint64, env event.Envelope) error) error {
	return j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(stream))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Seek(seqKey(after + 1)); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var env event.Envelope
			if err := json.Unmarshal(v, &env); err != nil {
				return fmt.Errorf("decode entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			if err := fn(binary.BigEndian.Uint64(k), env); err != nil {
				return err
			}
		}
		return nil
	})
}

// Envelopes returns the whole stream.
func (j *Journal) Envelopes(ctx context.Context, stream string) ([]event.Envelope, error) {
	var out []event.Envelope
	err := j.Replay(ctx, stream, 0, func(_ uint64, env event.Envelope) error {
		out = append(out, env)
		return nil
	})
	return out, err
}

// Truncate drops stream entirely.
func (j *Journal) Truncate(ctx context.Context, stream string) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(stream)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(stream))
	})
}

// Streams lists the streams present in the journal.
func (j *Journal) Streams(ctx context.Context) ([]string, error) {
	var out []string
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			out = append(out, string(name))
			return nil
		})
	})
	return out, err
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
