package can

import "fmt"

// Filter is an identifier and a mask of the bits that must match it.
// A mask bit set to 1 must be equal in the received identifier, a 0 bit
// is ignored. Standard and extended identifiers never match each other.
type Filter struct {
	id        ID
	mask      uint32
	acceptAll bool
}

// AcceptAll matches every frame.
func AcceptAll() Filter {
	return Filter{acceptAll: true}
}

// NewFilter matches id exactly.
func NewFilter(id ID) Filter {
	return Filter{id: id, mask: id.width()}
}

// WithMask returns a copy of f comparing only the bits set in mask.
func (f Filter) WithMask(mask uint32) Filter {
	if f.acceptAll {
		return f
	}
	f.mask = mask & f.id.width()
	return f
}

func (f Filter) ID() ID            { return f.id }
func (f Filter) Mask() uint32      { return f.mask }
func (f Filter) IsAcceptAll() bool { return f.acceptAll }

func (f Filter) Matches(id ID) bool {
	if f.acceptAll {
		return true
	}
	if id.extended != f.id.extended {
		return false
	}
	return (id.raw^f.id.raw)&f.mask == 0
}

func (f Filter) String() string {
	if f.acceptAll {
		return "accept all"
	}
	return fmt.Sprintf("id %s mask 0x%X", f.id, f.mask)
}

// CombineFilter returns the narrowest single filter matching every id.
// Bits that differ between the ids are left out of the mask, so the
// filter may accept identifiers outside the set. All ids must be of the
// same kind. Without ids it accepts everything.
func CombineFilter(ids ...ID) Filter {
	if len(ids) == 0 {
		return AcceptAll()
	}
	and, or := ids[0].raw, ids[0].raw
	for _, id := range ids[1:] {
		if id.extended != ids[0].extended {
			panic("can: CombineFilter with mixed standard and extended ids")
		}
		and &= id.raw
		or |= id.raw
	}
	base := ID{raw: and, extended: ids[0].extended}
	return NewFilter(base).WithMask(^(or ^ and))
}
