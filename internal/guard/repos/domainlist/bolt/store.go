// Package bolt persists block-domain rules in a bbolt database so the
// daemon can restart without reparsing its list files.
package bolt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/haukened/pageguard/internal/guard/domain"
	"github.com/haukened/pageguard/internal/guard/repos/domainlist"
)

var (
	bucketExact  = []byte("exact")
	bucketSuffix = []byte("suffix")
	bucketMeta   = []byte("meta")

	metaVersion = []byte("version")
	metaUpdated = []byte("updated")
)

// value layout: kind(1) | addedAt unix(8) | srcLen(2) | src
const valueHeaderLen = 11

// Test seams.
var (
	ensureBucketsFn = ensureBuckets
	deleteBucketsFn = deleteBuckets
	loadRulesFn     = loadRules
	writeMetaFn     = writeMeta
)

type bucketCreator interface {
	CreateBucketIfNotExists(name []byte) (*bbolt.Bucket, error)
}

type bucketDeleter interface {
	DeleteBucket(name []byte) error
}

// boltStore implements domainlist.Store using bbolt.
type boltStore struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (domainlist.Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error { return ensureBucketsFn(tx) }); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

// GetFirstMatch returns the exact rule for name if present, else the most
// specific suffix anchor covering name.
func (s *boltStore) GetFirstMatch(name string) (domain.DomainRule, bool, error) {
	var (
		out   domain.DomainRule
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketExact); b != nil && name != "" {
			if v := b.Get([]byte(name)); v != nil {
				r, err := decodeRuleValue(name, v, domain.DomainRuleExact)
				if err != nil {
					return err
				}
				out, found = r, true
				return nil
			}
		}
		b := tx.Bucket(bucketSuffix)
		if b == nil {
			return nil
		}
		anchor := name
		for {
			if len(anchor) == 0 {
				break
			}
			if v := b.Get(reverseBytesInPlace([]byte(anchor))); v != nil {
				r, err := decodeRuleValue(anchor, v, domain.DomainRuleSuffix)
				if err != nil {
					return err
				}
				out, found = r, true
				return nil
			}
			i := strings.IndexByte(anchor, '.')
			if i < 0 {
				break
			}
			anchor = anchor[i+1:]
		}
		return nil
	})
	return out, found, err
}

// RebuildAll atomically replaces every rule and the snapshot metadata.
func (s *boltStore) RebuildAll(rules []domain.DomainRule, version uint64, updatedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := deleteBucketsFn(tx, bucketExact, bucketSuffix, bucketMeta); err != nil {
			return fmt.Errorf("delete buckets: %w", err)
		}
		if err := ensureBucketsFn(tx); err != nil {
			return fmt.Errorf("create buckets: %w", err)
		}
		if err := loadRulesFn(tx, rules); err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
		if err := writeMetaFn(tx, version, updatedUnix); err != nil {
			return fmt.Errorf("write meta: %w", err)
		}
		return nil
	})
}

// Purge removes every rule and the metadata, leaving empty buckets.
func (s *boltStore) Purge() error {
	return s.RebuildAll(nil, 0, 0)
}

func (s *boltStore) Stats() domainlist.StoreStats {
	var st domainlist.StoreStats
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketExact); b != nil {
			st.ExactKeys = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketSuffix); b != nil {
			st.SuffixKeys = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketMeta); b != nil {
			if v := b.Get(metaVersion); len(v) == 8 {
				st.Version = binary.BigEndian.Uint64(v)
			}
			if v := b.Get(metaUpdated); len(v) == 8 {
				st.UpdatedUnix = int64(binary.BigEndian.Uint64(v))
			}
		}
		return nil
	})
	return st
}

func ensureBuckets(tx bucketCreator) error {
	for _, name := range [][]byte{bucketExact, bucketSuffix, bucketMeta} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}
	return nil
}

// deleteBuckets removes the named buckets, ignoring ones that do not exist.
func deleteBuckets(tx bucketDeleter, names ...[]byte) error {
	for _, name := range names {
		if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bberrors.ErrBucketNotFound) {
			return err
		}
	}
	return nil
}

// loadRules writes rules into their buckets. Unsupported kinds are skipped.
func loadRules(tx *bbolt.Tx, rules []domain.DomainRule) error {
	exact := tx.Bucket(bucketExact)
	suffix := tx.Bucket(bucketSuffix)
	for _, r := range rules {
		v := encodeRuleValue(r)
		switch r.Kind {
		case domain.DomainRuleExact:
			if err := exact.Put([]byte(r.Name), v); err != nil {
				return err
			}
		case domain.DomainRuleSuffix:
			if err := suffix.Put(reverseBytesInPlace([]byte(r.Name)), v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeMeta(tx *bbolt.Tx, version uint64, updatedUnix int64) error {
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return bberrors.ErrBucketNotFound
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], version)
	if err := b.Put(metaVersion, append([]byte(nil), buf[:]...)); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(buf[:], uint64(updatedUnix))
	return b.Put(metaUpdated, append([]byte(nil), buf[:]...))
}

func encodeRuleValue(r domain.DomainRule) []byte {
	src := r.Source
	if len(src) > 0xFFFF {
		src = src[:0xFFFF]
	}
	v := make([]byte, valueHeaderLen+len(src))
	v[0] = byte(r.Kind)
	var added int64
	if !r.AddedAt.IsZero() {
		added = r.AddedAt.Unix()
	}
	binary.BigEndian.PutUint64(v[1:9], uint64(added))
	binary.BigEndian.PutUint16(v[9:11], uint16(len(src)))
	copy(v[valueHeaderLen:], src)
	return v
}

// decodeRuleValue rebuilds a rule from its stored value. Short values decode
// to a rule with zero AddedAt and no source; an unknown kind byte falls back
// to defaultKind.
func decodeRuleValue(name string, v []byte, defaultKind domain.DomainRuleKind) (domain.DomainRule, error) {
	r := domain.DomainRule{Name: name, Kind: defaultKind}
	if len(v) < valueHeaderLen {
		return r, nil
	}
	switch k := domain.DomainRuleKind(v[0]); k {
	case domain.DomainRuleExact, domain.DomainRuleSuffix:
		r.Kind = k
	}
	if added := int64(binary.BigEndian.Uint64(v[1:9])); added != 0 {
		r.AddedAt = time.Unix(added, 0).UTC()
	}
	n := int(binary.BigEndian.Uint16(v[9:11]))
	if valueHeaderLen+n > len(v) {
		n = 0
	}
	r.Source = string(v[valueHeaderLen : valueHeaderLen+n])
	return r, nil
}

func reverseString(s string) string {
	return string(reverseBytesInPlace([]byte(s)))
}

// reverseBytesInPlace reverses b byte-wise. Canonical hosts are ASCII
// (punycoded), so this matches domainlist.ReverseHost.
func reverseBytesInPlace(b []byte) []byte {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}
