package vectorstore

import (
	"encoding/json"
	"fmt"
)

// chromem-go metadata is map[string]string; CALM payloads carry richer
// types (bool, float64, []string, time as unix seconds). JSON-encode each
// value into its metadata slot and decode it back out on read so payload
// shape survives the round trip through chromem-go's string-only store.
func stringifyPayload(p Payload) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		if s, ok := v.(string); ok {
			// Store bare strings unencoded so chromem-go's own string-match
			// "where" filters (unused by CALM today, but part of its
			// contract) still work against payload fields untouched.
			out[k] = s
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			out[k] = fmt.Sprint(v)
			continue
		}
		out[k] = string(b)
	}
	return out
}

func unstringifyPayload(m map[string]string) Payload {
	out := make(Payload, len(m))
	for k, s := range m {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			out[k] = v
		} else {
			out[k] = s
		}
	}
	return out
}
