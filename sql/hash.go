package sql

// Value hashing for hash joins and group-by tables. Equality of hash inputs
// follows Equal: values of the same class hash identically.

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

func hashBytes(s string) uint64 {
	h := uint64(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime
	}
	return h
}

func mix64(v uint64) uint64 {
	v ^= v >> 33
	v *= 0xff51afd7ed558ccd
	v ^= v >> 33
	v *= 0xc4ceb9fe1a85ec53
	v ^= v >> 33
	return v
}

// HashValue returns a 64 bit hash of a non-null value; nil hashes to zero.
func HashValue(v Value) uint64 {
	switch v := v.(type) {
	case nil:
		return 0
	case BoolValue:
		if v {
			return mix64(1)
		}
		return mix64(2)
	case Int64Value:
		return mix64(uint64(v))
	case NumericValue:
		// drop trailing fractional zeros so that equal values of different
		// scales hash alike
		d, s := v.Digits, v.Scale
		for s > 0 && d%10 == 0 {
			d /= 10
			s--
		}
		return mix64(uint64(d)) ^ mix64(uint64(s)+0x9e3779b97f4a7c15)
	case StringValue:
		return hashBytes(string(v))
	case DateValue:
		return mix64(uint64(v))
	case TimestampValue:
		return mix64(uint64(v))
	}
	panic("unexpected type for sql.Value")
}

// HashCombine folds h into seed; applied left-to-right over join keys.
func HashCombine(seed, h uint64) uint64 {
	return seed ^ (h + 0x9e3779b97f4a7c15 + (seed << 6) + (seed >> 2))
}
