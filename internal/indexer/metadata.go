package indexer

// FilterScalarMetadata returns a copy of md keeping only string, bool, integer,
// and floating-point values. Nil, slices, maps, and structs are dropped.
func FilterScalarMetadata(md map[string]any) map[string]any {
	out := make(map[string]any, len(md))
	for k, v := range md {
		switch v.(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			out[k] = v
		}
	}
	return out
}
