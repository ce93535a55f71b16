package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var (
	guestsBucket      = []byte("guests")
	magicTokensBucket = []byte("magic_tokens")
)

// errGuestNotFound aborts an UpdateGuest transaction without surfacing an
// error to the caller; the nil record signals absence instead.
var errGuestNotFound = errors.New("guest not found")

type BBoltStore struct {
	db *bolt.DB

	// now is swappable in tests.
	now func() time.Time
}

func NewBBoltStore(path string) (*BBoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db at %s: %w", path, err)
	}

	// Reason: buckets must exist before any read/write operations
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{guestsBucket, magicTokensBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BBoltStore{db: db, now: time.Now}, nil
}

func (s *BBoltStore) GetGuest(_ context.Context, code string) (*GuestRecord, error) {
	var record *GuestRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		g, err := getGuest(tx, code)
		if err != nil {
			return err
		}
		record = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (s *BBoltStore) FindByEmail(_ context.Context, email string) (*GuestRecord, error) {
	norm := strings.ToLower(strings.TrimSpace(email))
	if norm == "" {
		return nil, nil
	}
	return s.findFirst(func(g *GuestRecord) bool {
		return strings.ToLower(strings.TrimSpace(g.Email)) == norm
	})
}

func (s *BBoltStore) FindByPhone(_ context.Context, phone string) (*GuestRecord, error) {
	norm := OnlyDigits(phone)
	if norm == "" {
		return nil, nil
	}
	return s.findFirst(func(g *GuestRecord) bool {
		return OnlyDigits(g.Phone) == norm
	})
}

func (s *BBoltStore) FindByPhoneLast4(_ context.Context, last4 string) ([]GuestRecord, error) {
	var result []GuestRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(guestsBucket)
		return b.ForEach(func(k, v []byte) error {
			var g GuestRecord
			if err := json.Unmarshal(v, &g); err != nil {
				return fmt.Errorf("unmarshaling guest %s: %w", string(k), err)
			}
			digits := OnlyDigits(g.Phone)
			if len(digits) >= 4 && strings.HasSuffix(digits, last4) {
				result = append(result, g)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *BBoltStore) UpdateGuest(_ context.Context, code string, mutate func(*GuestRecord) error) (*GuestRecord, error) {
	var record *GuestRecord

	err := s.db.Update(func(tx *bolt.Tx) error {
		g, err := getGuest(tx, code)
		if err != nil {
			return err
		}
		if g == nil {
			return errGuestNotFound
		}

		if err := mutate(g); err != nil {
			return err
		}

		g.UpdatedAt = s.now().UTC()
		if err := putGuest(tx, g); err != nil {
			return err
		}

		record = g
		return nil
	})
	if errors.Is(err, errGuestNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (s *BBoltStore) SetMagicLink(_ context.Context, code, token string, expiresAt time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		g, err := getGuest(tx, code)
		if err != nil {
			return err
		}
		if g == nil {
			return fmt.Errorf("setting magic link: guest %s not found", code)
		}

		idx := tx.Bucket(magicTokensBucket)
		if g.MagicLinkToken != "" {
			if err := idx.Delete([]byte(g.MagicLinkToken)); err != nil {
				return fmt.Errorf("dropping stale magic token index for %s: %w", code, err)
			}
		}

		exp := expiresAt.UTC()
		g.MagicLinkToken = token
		g.MagicLinkExpiresAt = &exp
		g.UpdatedAt = s.now().UTC()

		if err := idx.Put([]byte(token), []byte(code)); err != nil {
			return fmt.Errorf("indexing magic token for %s: %w", code, err)
		}
		return putGuest(tx, g)
	})
}

func (s *BBoltStore) ConsumeMagicLink(_ context.Context, token string) (*GuestRecord, error) {
	var record *GuestRecord

	// Lookup and clear happen in one write transaction so two concurrent
	// redemption attempts cannot both observe a valid token.
	err := s.db.Update(func(tx *bolt.Tx) error {
		idx := tx.Bucket(magicTokensBucket)
		codeBytes := idx.Get([]byte(token))
		if codeBytes == nil {
			return nil
		}
		code := string(codeBytes)

		g, err := getGuest(tx, code)
		if err != nil {
			return err
		}
		if g == nil || g.MagicLinkToken != token {
			// Stale index entry; drop it and report no match.
			return idx.Delete([]byte(token))
		}

		if err := idx.Delete([]byte(token)); err != nil {
			return fmt.Errorf("deleting magic token index for %s: %w", code, err)
		}

		expired := g.MagicLinkExpiresAt == nil || !s.now().UTC().Before(*g.MagicLinkExpiresAt)

		g.MagicLinkToken = ""
		g.MagicLinkExpiresAt = nil
		g.UpdatedAt = s.now().UTC()
		if err := putGuest(tx, g); err != nil {
			return err
		}

		if expired {
			return nil
		}
		record = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Seed loads guest records from a map, skipping codes that already exist.
func (s *BBoltStore) Seed(guests map[string]GuestRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(guestsBucket)
		for code, rec := range guests {
			existing := b.Get([]byte(code))
			if existing != nil {
				log.WithField("guest_code", code).Debug("seed: guest already exists, skipping")
				continue
			}
			rec.GuestCode = code
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = s.now().UTC()
			}
			rec.UpdatedAt = s.now().UTC()
			if err := putGuest(tx, &rec); err != nil {
				return fmt.Errorf("seeding guest %s: %w", code, err)
			}
			log.WithField("guest_code", code).Info("seeded guest")
		}
		return nil
	})
}

func (s *BBoltStore) GetAllGuests(_ context.Context) (map[string]GuestRecord, error) {
	result := make(map[string]GuestRecord)

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(guestsBucket)
		return b.ForEach(func(k, v []byte) error {
			var g GuestRecord
			if err := json.Unmarshal(v, &g); err != nil {
				return fmt.Errorf("unmarshaling guest %s: %w", string(k), err)
			}
			result[string(k)] = g
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ReplaceAllGuests swaps the whole guest list, used by the bulk import path.
// Magic token indexes are rebuilt from the incoming records.
func (s *BBoltStore) ReplaceAllGuests(_ context.Context, guests map[string]GuestRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{guestsBucket, magicTokensBucket} {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("deleting bucket %s: %w", string(name), err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("recreating bucket %s: %w", string(name), err)
			}
		}

		idx := tx.Bucket(magicTokensBucket)
		for code, rec := range guests {
			rec.GuestCode = code
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = s.now().UTC()
			}
			rec.UpdatedAt = s.now().UTC()
			if err := putGuest(tx, &rec); err != nil {
				return fmt.Errorf("writing guest %s: %w", code, err)
			}
			if rec.MagicLinkToken != "" {
				if err := idx.Put([]byte(rec.MagicLinkToken), []byte(code)); err != nil {
					return fmt.Errorf("indexing magic token for %s: %w", code, err)
				}
			}
		}
		return nil
	})
}

func (s *BBoltStore) Close() error {
	return s.db.Close()
}

func (s *BBoltStore) findFirst(match func(*GuestRecord) bool) (*GuestRecord, error) {
	var record *GuestRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(guestsBucket)
		return b.ForEach(func(k, v []byte) error {
			if record != nil {
				return nil
			}
			var g GuestRecord
			if err := json.Unmarshal(v, &g); err != nil {
				return fmt.Errorf("unmarshaling guest %s: %w", string(k), err)
			}
			if match(&g) {
				record = &g
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func getGuest(tx *bolt.Tx, code string) (*GuestRecord, error) {
	data := tx.Bucket(guestsBucket).Get([]byte(code))
	if data == nil {
		return nil, nil
	}
	var g GuestRecord
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("unmarshaling guest %s: %w", code, err)
	}
	return &g, nil
}

func putGuest(tx *bolt.Tx, g *GuestRecord) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshaling guest %s: %w", g.GuestCode, err)
	}
	if err := tx.Bucket(guestsBucket).Put([]byte(g.GuestCode), data); err != nil {
		return fmt.Errorf("writing guest %s: %w", g.GuestCode, err)
	}
	return nil
}

// OnlyDigits strips every non-digit so formatted phone numbers compare equal.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
