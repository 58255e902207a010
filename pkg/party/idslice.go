package party

import (
	"sort"
)

type IDSlice []ID

// Range returns the IDs 0, …, n-1.
func Range(n int) IDSlice {
	ids := make(IDSlice, n)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

func (partyIDs IDSlice) Len() int           { return len(partyIDs) }
func (partyIDs IDSlice) Less(i, j int) bool { return partyIDs[i] < partyIDs[j] }
func (partyIDs IDSlice) Swap(i, j int)      { partyIDs[i], partyIDs[j] = partyIDs[j], partyIDs[i] }

// Valid returns true if partyIDs is sorted and contains no duplicates.
func (partyIDs IDSlice) Valid() bool {
	for i := range partyIDs {
		if i > 0 && partyIDs[i-1] >= partyIDs[i] {
			return false
		}
	}
	return true
}

// Contains returns true if partyIDs contains id.
// Assumes that partyIDs is sorted.
func (partyIDs IDSlice) Contains(ids ...ID) bool {
	for _, id := range ids {
		if _, ok := partyIDs.search(id); !ok {
			return false
		}
	}
	return true
}

func (partyIDs IDSlice) search(x ID) (int, bool) {
	index := sort.Search(len(partyIDs), func(i int) bool { return partyIDs[i] >= x })
	if index >= 0 && index < len(partyIDs) && partyIDs[index] == x {
		return index, true
	}
	return 0, false
}

// Remove returns a new sorted slice without id.
func (partyIDs IDSlice) Remove(id ID) IDSlice {
	newPartyIDs := make(IDSlice, 0, len(partyIDs))
	for _, partyID := range partyIDs {
		if partyID != id {
			newPartyIDs = append(newPartyIDs, partyID)
		}
	}
	return newPartyIDs
}

// Ints returns the IDs as plain integers, the form expected by the protocol engine.
func (partyIDs IDSlice) Ints() []int {
	out := make([]int, len(partyIDs))
	for i, id := range partyIDs {
		out[i] = int(id)
	}
	return out
}
