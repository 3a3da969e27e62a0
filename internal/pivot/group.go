package pivot

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/KaramelBytes/datadeck-cli/internal/dataset"
)

// Key is the tuple of grouping values for one bucket.
type Key []dataset.Value

// Equal compares two keys component-wise.
func (k Key) Equal(o Key) bool {
	if len(k) != len(o) {
		return false
	}
	for i := range k {
		if !k[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Strings returns the string form of every component.
func (k Key) Strings() []string {
	out := make([]string, len(k))
	for i, v := range k {
		out[i] = v.String()
	}
	return out
}

// String joins the components for display only.
func (k Key) String() string { return strings.Join(k.Strings(), " / ") }

// hash encodes each component as kind tag plus length-prefixed payload so
// that ("a","b") and ("a|b") never share an encoding.
func (k Key) hash(buf []byte) (uint64, []byte) {
	buf = buf[:0]
	for _, v := range k {
		buf = append(buf, byte(v.Kind))
		switch v.Kind {
		case dataset.Number:
			f := v.Num
			if f == 0 {
				f = 0 // fold -0 into 0, they compare equal
			}
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
		case dataset.Text:
			buf = binary.AppendUvarint(buf, uint64(len(v.Str)))
			buf = append(buf, v.Str...)
		}
	}
	return xxh3.Hash(buf), buf
}

// Group is one bucket of rows sharing a key.
type Group struct {
	Key  Key
	Rows []dataset.Row
}

// Grouper accumulates rows into buckets, keeping first-seen key order.
type Grouper struct {
	fields []string
	index  map[uint64][]int
	groups []*Group
	buf    []byte
}

// NewGrouper groups by the given column names.
func NewGrouper(fields []string) *Grouper {
	return &Grouper{fields: fields, index: make(map[uint64][]int)}
}

// KeyOf extracts the grouping key of r.
func (g *Grouper) KeyOf(r dataset.Row) Key {
	k := make(Key, len(g.fields))
	for i, f := range g.fields {
		k[i] = r.Get(f)
	}
	return k
}

// Add places r in its bucket and returns that bucket.
func (g *Grouper) Add(r dataset.Row) *Group {
	k := g.KeyOf(r)
	grp := g.lookup(k)
	grp.Rows = append(grp.Rows, r)
	return grp
}

func (g *Grouper) lookup(k Key) *Group {
	var h uint64
	h, g.buf = k.hash(g.buf)
	for _, i := range g.index[h] {
		if g.groups[i].Key.Equal(k) {
			return g.groups[i]
		}
	}
	grp := &Group{Key: k}
	g.index[h] = append(g.index[h], len(g.groups))
	g.groups = append(g.groups, grp)
	return grp
}

// Find returns the position of k among the buckets without creating one.
func (g *Grouper) Find(k Key) (int, bool) {
	var h uint64
	h, g.buf = k.hash(g.buf)
	for _, i := range g.index[h] {
		if g.groups[i].Key.Equal(k) {
			return i, true
		}
	}
	return 0, false
}

// Groups returns buckets in first-seen order.
func (g *Grouper) Groups() []*Group { return g.groups }

// GroupBy partitions rows by fields.
func GroupBy(rows []dataset.Row, fields []string) []*Group {
	g := NewGrouper(fields)
	for _, r := range rows {
		g.Add(r)
	}
	return g.Groups()
}
