package sync

import (
	"encoding/binary"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring mapping arbitrary keys onto a fixed set of
// stripe indexes
type ring struct {
	hashRing *treemap.Map

	// minEntryValue is used to cache the value of min entry in hashRing.
	// Using treemap.Map.Min() is O(log n).
	minEntryValue int
}

// newRing returns a new consistent hash ring over the stripes [0, stripes),
// with replicationFactor virtual nodes per stripe. Stripes are named by
// prefix and index when placed on the ring.
func newRing(prefix string, stripes, replicationFactor uint) *ring {
	hashRing := treemap.NewWith(utils.Int64Comparator)
	for stripe := 0; stripe < int(stripes); stripe++ {
		stripeHash, _ := murmur3.Sum128([]byte(fmt.Sprintf("%s%d", prefix, stripe)))

		stripeHashBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(stripeHashBytes, stripeHash)
		for i := 0; i < int(replicationFactor); i++ {
			hasher := murmur3.New128()
			hasher.Write(stripeHashBytes)
			indexBytes := make([]byte, 4)
			binary.LittleEndian.PutUint32(indexBytes, uint32(i))
			hasher.Write(indexBytes)
			hash, _ := hasher.Sum128()
			hashRing.Put(int64(hash), stripe)
		}
	}

	r := &ring{
		hashRing: hashRing,
	}
	if _, minEntryValue := hashRing.Min(); minEntryValue != nil {
		r.minEntryValue = minEntryValue.(int)
	}
	return r
}

// shard consistently hashes the key and returns its stripe
func (r *ring) shard(key []byte) int {
	hasher := murmur3.New128()
	hasher.Write(key)
	raw, _ := hasher.Sum128()
	hash := int64(raw)
	_, stripe := r.hashRing.Ceiling(hash)
	if stripe != nil {
		return stripe.(int)
	}
	return r.minEntryValue
}
