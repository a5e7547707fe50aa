package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Height is a monotonically increasing data type
// that can be compared against another Height for the purposes of updating and
// freezing clients
//
// Normally the RevisionHeight is incremented at each height while keeping
// RevisionNumber the same. However some consensus algorithms may choose to
// reset the height in certain conditions e.g. hard forks, state-machine
// breaking changes In these cases, the RevisionNumber is incremented so that
// height continues to be monitonically increasing even as the RevisionHeight
// gets reset
type Height struct {
	// the revision that the client is currently on
	RevisionNumber uint64 `protobuf:"varint,1,opt,name=revision_number,json=revisionNumber,proto3" json:"revision_number"`
	// the height within the given revision
	RevisionHeight uint64 `protobuf:"varint,2,opt,name=revision_height,json=revisionHeight,proto3" json:"revision_height"`
}

func (h *Height) Reset()      { *h = Height{} }
func (*Height) ProtoMessage() {}

// NewHeight is a constructor for the IBC height type
func NewHeight(revisionNumber, revisionHeight uint64) Height {
	return Height{
		RevisionNumber: revisionNumber,
		RevisionHeight: revisionHeight,
	}
}

// ZeroHeight is a helper function which returns an uninitialized height.
func ZeroHeight() Height {
	return Height{}
}

// Compare implements a method to compare two heights. When comparing two heights a, b
// we can call a.Compare(b) which will return
// -1 if a < b
// 0  if a = b
// 1  if a > b
//
// It first compares based on revision numbers, whichever has the higher revision number is the higher height
// If revision number is the same, then the revision height is compared
func (h Height) Compare(other Height) int {
	switch {
	case h.RevisionNumber < other.RevisionNumber:
		return -1
	case h.RevisionNumber > other.RevisionNumber:
		return 1
	case h.RevisionHeight < other.RevisionHeight:
		return -1
	case h.RevisionHeight > other.RevisionHeight:
		return 1
	default:
		return 0
	}
}

// LT Helper comparison function returns true if h < other
func (h Height) LT(other Height) bool { return h.Compare(other) == -1 }

// LTE Helper comparison function returns true if h <= other
func (h Height) LTE(other Height) bool { return h.Compare(other) != 1 }

// GT Helper comparison function returns true if h > other
func (h Height) GT(other Height) bool { return h.Compare(other) == 1 }

// GTE Helper comparison function returns true if h >= other
func (h Height) GTE(other Height) bool { return h.Compare(other) != -1 }

// EQ Helper comparison function returns true if h == other
func (h Height) EQ(other Height) bool { return h.Compare(other) == 0 }

// String returns a string representation of Height
func (h Height) String() string {
	return fmt.Sprintf("%d-%d", h.RevisionNumber, h.RevisionHeight)
}

// Decrement will return a new height with the RevisionHeight decremented
// If the RevisionHeight is already at lowest value (1), then false success flag is returend
func (h Height) Decrement() (decremented Height, success bool) {
	if h.RevisionHeight == 0 {
		return Height{}, false
	}
	return NewHeight(h.RevisionNumber, h.RevisionHeight-1), true
}

// Increment will return a height with the same revision number but an
// incremented revision height
func (h Height) Increment() Height {
	return NewHeight(h.RevisionNumber, h.RevisionHeight+1)
}

// IsZero returns true if height revision and revision-height are both 0
func (h Height) IsZero() bool {
	return h.RevisionNumber == 0 && h.RevisionHeight == 0
}

// Ptr returns a pointer to a copy of h, for use in messages.
func (h Height) Ptr() *Height {
	return &h
}

// HeightFromPtr dereferences h, mapping nil to the zero height.
func HeightFromPtr(h *Height) Height {
	if h == nil {
		return Height{}
	}
	return *h
}

// ParseHeight is a utility function that takes a string representation of the height
// and returns a Height struct
func ParseHeight(heightStr string) (Height, error) {
	splitStr := strings.Split(heightStr, "-")
	if len(splitStr) != 2 {
		return Height{}, fmt.Errorf("%w: expected height string format: {revision}-{height}. Got: %s", ErrInvalidHeight, heightStr)
	}
	revisionNumber, err := strconv.ParseUint(splitStr[0], 10, 64)
	if err != nil {
		return Height{}, fmt.Errorf("%w: invalid revision number. parse err: %s", ErrInvalidHeight, err)
	}
	revisionHeight, err := strconv.ParseUint(splitStr[1], 10, 64)
	if err != nil {
		return Height{}, fmt.Errorf("%w: invalid revision height. parse err: %s", ErrInvalidHeight, err)
	}
	return NewHeight(revisionNumber, revisionHeight), nil
}

// MustParseHeight will attempt to parse a string representation of a height and panic if
// parsing fails.
func MustParseHeight(heightStr string) Height {
	height, err := ParseHeight(heightStr)
	if err != nil {
		panic(err)
	}

	return height
}

// ParseChainID returns the revision number of a chain ID in the
// {chain-name}-{revision} format, or 0 if chainID does not follow it.
func ParseChainID(chainID string) uint64 {
	i := strings.LastIndex(chainID, "-")
	if i <= 0 || i == len(chainID)-1 {
		return 0
	}
	revision, err := strconv.ParseUint(chainID[i+1:], 10, 64)
	if err != nil {
		return 0
	}
	return revision
}
