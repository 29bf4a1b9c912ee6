package highscore

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/roopamkhare/fashion-vashion/internal/cache"
	"github.com/roopamkhare/fashion-vashion/internal/database"
	bolt "go.etcd.io/bbolt"
)

const (
	bucket = "highscores"

	// Keep holds how many entries survive on the board.
	Keep = 5

	cacheKey = "highscores/top"
)

var ErrEntryNotFound = fmt.Errorf("not found")

type Entry struct {
	ID        uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

func New(db *database.DB, cache cache.Cache) *DB {
	return &DB{sDB: db, cache: cache}
}

type DB struct {
	sDB *database.DB

	cache cache.Cache
}

// Top returns up to Keep entries ordered by score descending.
func (db *DB) Top() ([]Entry, error) {
	if db.cache != nil {
		if v, ok := db.cache.Get(cacheKey); ok {
			return v.([]Entry), nil
		}
	}

	var list []Entry
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		if err := b.ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			list = append(list, entry)
			return nil
		}); err != nil {
			return fmt.Errorf("bucket for each: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Score > list[j].Score
	})

	if len(list) > Keep {
		list = list[:Keep]
	}

	if db.cache != nil {
		db.cache.Add(cacheKey, list)
	}

	return list, nil
}

// IsHighScore reports whether score would enter the board: fewer than
// Keep entries recorded, or strictly above the lowest surviving score.
func (db *DB) IsHighScore(score int) (bool, error) {
	top, err := db.Top()
	if err != nil {
		return false, fmt.Errorf("fetch top: %w", err)
	}

	if len(top) < Keep {
		return true, nil
	}

	return score > top[len(top)-1].Score, nil
}

// Add records a new board entry and trims everything below the cut.
func (db *DB) Add(name string, score int) error {
	entry := Entry{ID: uuid.New(), Name: name, Score: score, CreatedAt: time.Now()}

	tx, err := db.sDB.DB.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer tx.Rollback() // nolint

	b := tx.Bucket([]byte(bucket))
	if b == nil {
		bs, err := tx.CreateBucket([]byte(bucket))
		if err != nil {
			return fmt.Errorf("can not create bucket: %w", err)
		}
		b = bs
	}

	binaryID, err := entry.ID.MarshalBinary()
	if err != nil {
		return fmt.Errorf("uuid binary: %w", err)
	}

	bytes, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := b.Put(binaryID, bytes); err != nil {
		return fmt.Errorf("put to bucket error: %w", err)
	}

	if err := trim(b); err != nil {
		return fmt.Errorf("trim bucket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	if db.cache != nil {
		db.cache.Delete(cacheKey)
	}

	return nil
}

func trim(b *bolt.Bucket) error {
	type keyed struct {
		key   []byte
		score int
	}

	var all []keyed
	if err := b.ForEach(func(k, v []byte) error {
		var entry Entry
		if err := json.Unmarshal(v, &entry); err != nil {
			return fmt.Errorf("json unmarshal error, %w", err)
		}
		key := make([]byte, len(k))
		copy(key, k)
		all = append(all, keyed{key: key, score: entry.Score})
		return nil
	}); err != nil {
		return fmt.Errorf("bucket for each: %w", err)
	}

	if len(all) <= Keep {
		return nil
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].score > all[j].score
	})

	for _, stale := range all[Keep:] {
		if err := b.Delete(stale.key); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
	}

	return nil
}
