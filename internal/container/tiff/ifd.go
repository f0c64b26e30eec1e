package tiff

import (
	"encoding/binary"
	"slices"
)

// entry is one IFD field. Entries with a non-nil sub point to a child IFD
// whose offset is filled in at encode time.
type entry struct {
	id    uint16
	typ   uint16
	count uint32
	val   []byte
	sub   *ifd
}

type ifd struct {
	entries []entry
}

func (d *ifd) add(e entry) {
	d.entries = append(d.entries, e)
}

// size is the IFD's encoded size including its out-of-line values.
func (d *ifd) size() int {
	n := 2 + 12*len(d.entries) + 4
	for _, e := range d.entries {
		if e.sub == nil && len(e.val) > 4 {
			n += len(e.val) + len(e.val)%2
		}
	}
	return n
}

// encode serializes root and its children as a TIFF structure with a
// single top-level IFD. Each IFD is followed by its own value area.
func encode(order binary.AppendByteOrder, root *ifd) []byte {
	var dirs []*ifd
	var flatten func(*ifd)
	flatten = func(d *ifd) {
		slices.SortStableFunc(d.entries, func(a, b entry) int { return int(a.id) - int(b.id) })
		dirs = append(dirs, d)
		for _, e := range d.entries {
			if e.sub != nil {
				flatten(e.sub)
			}
		}
	}
	flatten(root)

	offsets := make(map[*ifd]uint32, len(dirs))
	next := 8
	for _, d := range dirs {
		offsets[d] = uint32(next)
		next += d.size()
	}

	out := make([]byte, 0, next)
	if order == binary.LittleEndian {
		out = append(out, 'I', 'I')
	} else {
		out = append(out, 'M', 'M')
	}
	out = order.AppendUint16(out, 42)
	out = order.AppendUint32(out, 8)

	for _, d := range dirs {
		valueOffset := int(offsets[d]) + 2 + 12*len(d.entries) + 4
		var values []byte

		out = order.AppendUint16(out, uint16(len(d.entries)))
		for _, e := range d.entries {
			out = order.AppendUint16(out, e.id)
			out = order.AppendUint16(out, e.typ)
			out = order.AppendUint32(out, e.count)
			switch {
			case e.sub != nil:
				out = order.AppendUint32(out, offsets[e.sub])
			case len(e.val) > 4:
				out = order.AppendUint32(out, uint32(valueOffset+len(values)))
				values = append(values, e.val...)
				if len(e.val)%2 == 1 {
					values = append(values, 0)
				}
			default:
				inline := [4]byte{}
				copy(inline[:], e.val)
				out = append(out, inline[:]...)
			}
		}
		out = order.AppendUint32(out, 0)
		out = append(out, values...)
	}
	return out
}
