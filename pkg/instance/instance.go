package instance

import "os"

// GetID names the running process for log correlation: the platform dyno,
// then an explicit VENUEOPS_INSTANCE_ID, then the hostname.
func GetID() string {
	for _, key := range []string{"DYNO", "VENUEOPS_INSTANCE_ID"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
