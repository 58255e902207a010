package party

import (
	"strconv"
)

// ID is the position of a party in a signing topology, starting at 0.
//
// It is distinct from the polynomial evaluation index of the party's key share.
type ID int

// String returns a base 10 representation of ID.
func (id ID) String() string {
	return strconv.Itoa(int(id))
}
