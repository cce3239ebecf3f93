package cachekit

// ValidateKey rejects empty keys.
func ValidateKey(key string) error {
	if key == "" {
		return InvalidArgument("key must not be empty")
	}
	return nil
}

// ValidateExpiration rejects non-positive TTLs.
func ValidateExpiration(seconds int) error {
	if seconds <= 0 {
		return InvalidArgument("expiration must be positive, got %d seconds", seconds)
	}
	return nil
}

// ValidateKeys validates every key of a multi-key operation.
// An empty key list is rejected too.
func ValidateKeys(keys []string) error {
	if len(keys) == 0 {
		return InvalidArgument("keys must not be empty")
	}
	for i, k := range keys {
		if k == "" {
			return InvalidArgument("key at index %d must not be empty", i)
		}
	}
	return nil
}

// DistinctKeys returns keys with duplicates removed, first occurrence wins.
func DistinctKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
