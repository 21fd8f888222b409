package webhookmq

import "time"

// MetadataKey is the reserved payload key carrying dispatch metadata. An
// application payload using this key is silently overwritten by the
// envelope.
const MetadataKey = "_webhook"

// envelope returns a shallow copy of data with the dispatch metadata block
// attached: the normalized target path and the dispatch timestamp in
// float seconds since the Unix epoch.
func envelope(path string, data map[string]interface{}) map[string]interface{} {
	payload := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}

	payload[MetadataKey] = map[string]interface{}{
		"path":      path,
		"timestamp": float64(time.Now().UnixNano()) / float64(time.Second),
	}

	return payload
}
