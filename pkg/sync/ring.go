package sync

import (
	"encoding/binary"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring over a fixed number of stripes
type ring struct {
	points *treemap.Map

	// first caches the stripe at the smallest point, since Min() is O(log n)
	first int
}

// newRing places pointsPerStripe virtual points on the ring for each of the
// stripes. Each point hashes the stripe's digest together with the point index.
func newRing(stripes, pointsPerStripe uint) *ring {
	points := treemap.NewWith(utils.Int64Comparator)

	for stripe := uint(0); stripe < stripes; stripe++ {
		stripeKey := make([]byte, 4)
		binary.LittleEndian.PutUint32(stripeKey, uint32(stripe))
		stripeHash, _ := murmur3.Sum128(stripeKey)

		stripeHashBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(stripeHashBytes, stripeHash)

		for point := uint(0); point < pointsPerStripe; point++ {
			pointBytes := make([]byte, 4)
			binary.LittleEndian.PutUint32(pointBytes, uint32(point))

			hasher := murmur3.New128()
			hasher.Write(stripeHashBytes)
			hasher.Write(pointBytes)
			hash, _ := hasher.Sum128()

			points.Put(int64(hash), int(stripe))
		}
	}

	r := &ring{points: points}
	if _, v := points.Min(); v != nil {
		r.first = v.(int)
	}
	return r
}

// stripe returns the stripe owning the key
func (r *ring) stripe(key []byte) int {
	hash, _ := murmur3.Sum128(key)
	_, v := r.points.Ceiling(int64(hash))
	if v == nil {
		return r.first
	}
	return v.(int)
}
