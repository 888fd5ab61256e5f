// Package flashkv is a persist.Backend kept in one erase block of a flash
// block device (TinyGo's machine.Flash on RP2040).
//
// Image layout, little-endian:
//
//	"PSKV" | version:1 | count:1 | count × (klen:1 key vlen:1 value) | crc32:4
//
// The CRC covers every byte before it. A block that fails any check, such as
// an erased block or one torn by power loss mid-write, reads as an empty table.
package flashkv

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"sort"

	"plantsense-go/services/touch/persist"
)

// BlockDevice is the subset of TinyGo's machine.BlockDevice used here.
type BlockDevice interface {
	ReadAt(p []byte, off int64) (n int, err error)
	WriteAt(p []byte, off int64) (n int, err error)
	Size() int64
	WriteBlockSize() int64
	EraseBlockSize() int64
	EraseBlocks(start, length int64) error
}

const (
	magic   = "PSKV"
	version = 1
	hdrLen  = len(magic) + 2
	crcLen  = 4
)

var (
	ErrTooLarge = errors.New("flashkv: table does not fit in one erase block")
	ErrKeyLen   = errors.New("flashkv: key or value longer than 255 bytes")
)

var _ persist.Backend = (*Store)(nil)

type Store struct {
	dev   BlockDevice
	block int64
	table map[string][]byte // nil until first read
}

// New uses the last erase block of dev.
func New(dev BlockDevice) *Store {
	return NewAt(dev, dev.Size()/dev.EraseBlockSize()-1)
}

// NewAt uses erase block index block of dev.
func NewAt(dev BlockDevice, block int64) *Store {
	return &Store{dev: dev, block: block}
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	if err := s.load(); err != nil {
		return nil, false, err
	}
	v, ok := s.table[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Put rewrites the whole block once with all entries applied.
func (s *Store) Put(entries ...persist.Entry) error {
	if err := s.load(); err != nil {
		return err
	}
	next := s.clone()
	for _, e := range entries {
		if len(e.Key) > 255 || len(e.Value) > 255 {
			return ErrKeyLen
		}
		next[e.Key] = append([]byte(nil), e.Value...)
	}
	return s.commit(next)
}

func (s *Store) Delete(keys ...string) error {
	if err := s.load(); err != nil {
		return err
	}
	next := s.clone()
	for _, k := range keys {
		delete(next, k)
	}
	return s.commit(next)
}

func (s *Store) clone() map[string][]byte {
	m := make(map[string][]byte, len(s.table))
	for k, v := range s.table {
		m[k] = v
	}
	return m
}

func (s *Store) load() error {
	if s.table != nil {
		return nil
	}
	buf := make([]byte, s.dev.EraseBlockSize())
	if _, err := s.dev.ReadAt(buf, s.block*s.dev.EraseBlockSize()); err != nil {
		return err
	}
	t, ok := decode(buf)
	if !ok {
		t = make(map[string][]byte)
	}
	s.table = t
	return nil
}

func (s *Store) commit(t map[string][]byte) error {
	img, err := encode(t)
	if err != nil {
		return err
	}
	ebs := s.dev.EraseBlockSize()
	if int64(len(img)) > ebs {
		return ErrTooLarge
	}
	if wbs := s.dev.WriteBlockSize(); wbs > 1 {
		for int64(len(img))%wbs != 0 {
			img = append(img, 0xFF)
		}
	}
	// From here on the block may be erased or torn; drop the cache so the
	// next read reflects what is actually in flash.
	s.table = nil
	if err := s.dev.EraseBlocks(s.block, 1); err != nil {
		return err
	}
	if _, err := s.dev.WriteAt(img, s.block*ebs); err != nil {
		return err
	}
	s.table = t
	return nil
}

func encode(t map[string][]byte) ([]byte, error) {
	if len(t) > 255 {
		return nil, ErrTooLarge
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	img := make([]byte, 0, 64)
	img = append(img, magic...)
	img = append(img, version, byte(len(keys)))
	for _, k := range keys {
		v := t[k]
		if len(k) > 255 || len(v) > 255 {
			return nil, ErrKeyLen
		}
		img = append(img, byte(len(k)))
		img = append(img, k...)
		img = append(img, byte(len(v)))
		img = append(img, v...)
	}
	return binary.LittleEndian.AppendUint32(img, crc32.ChecksumIEEE(img)), nil
}

func decode(buf []byte) (map[string][]byte, bool) {
	if len(buf) < hdrLen+crcLen || string(buf[:len(magic)]) != magic || buf[len(magic)] != version {
		return nil, false
	}
	n := int(buf[len(magic)+1])
	t := make(map[string][]byte, n)
	off := hdrLen
	for i := 0; i < n; i++ {
		if off >= len(buf) {
			return nil, false
		}
		kl := int(buf[off])
		off++
		if off+kl >= len(buf) {
			return nil, false
		}
		k := string(buf[off : off+kl])
		off += kl
		vl := int(buf[off])
		off++
		if off+vl > len(buf) {
			return nil, false
		}
		t[k] = append([]byte(nil), buf[off:off+vl]...)
		off += vl
	}
	if off+crcLen > len(buf) {
		return nil, false
	}
	if binary.LittleEndian.Uint32(buf[off:]) != crc32.ChecksumIEEE(buf[:off]) {
		return nil, false
	}
	return t, true
}
