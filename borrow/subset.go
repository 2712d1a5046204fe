package borrow

// IsSubset reports whether every access of candidate is covered by at least
// one access of reference. An access is covered by an access to the same type
// that is exclusive, or by any access if the candidate only reads.
//
// The check is not symmetric. Duplicate candidate accesses are checked
// independently and may be covered by the same reference access.
func IsSubset(candidate, reference Borrows) bool {
	for _, access := range candidate {
		if !reference.Has(access) {
			return false
		}
	}

	return true
}
