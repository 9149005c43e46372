package models

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// Snowflake generates unique 64-bit IDs composed of timestamp and node/sequence bits.
// Layout: 1 bit unused + 41 bits timestamp(ms since 2020-01-01) + 10 bits node + 12 bits sequence.
type Snowflake struct {
	epoch  int64
	nodeID int64
	lastMs int64
	seq    int64
	mu     sync.Mutex
}

func NewSnowflake(nodeID int64) *Snowflake {
	return &Snowflake{epoch: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), nodeID: nodeID & 0x3FF}
}

func (s *Snowflake) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UnixMilli()
	if now == s.lastMs {
		s.seq = (s.seq + 1) & 0xFFF
		if s.seq == 0 {
			for now <= s.lastMs {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.seq = 0
	}
	s.lastMs = now
	ts := (now - s.epoch) & ((1 << 41) - 1)
	return (ts << (10 + 12)) | (s.nodeID << 12) | s.seq
}

var defaultSnowflake = NewSnowflake(1)

// LegitID returns a new snowflake id rendered as a hyphenless UUIDv4-shaped
// string. Used as the jti of access tokens.
func LegitID() string {
	id := uint64(defaultSnowflake.Next())
	var b [16]byte
	binary.BigEndian.PutUint16(b[4:6], uint16(id>>48))
	lo := id & 0x0000FFFFFFFFFFFF
	for i := 0; i < 6; i++ {
		b[10+i] = byte(lo >> (40 - 8*i))
	}
	b[6] = (b[6] & 0x0F) | 0x40
	b[8] = (b[8] & 0x3F) | 0x80
	return fmt.Sprintf("%08x%04x%04x%04x%012x",
		binary.BigEndian.Uint32(b[0:4]),
		binary.BigEndian.Uint16(b[4:6]),
		binary.BigEndian.Uint16(b[6:8]),
		binary.BigEndian.Uint16(b[8:10]),
		b[10:16],
	)
}
