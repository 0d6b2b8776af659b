package config

import (
	"fmt"
	"os"
)

// Template returns a commented example configuration holding the defaults.
func Template() string {
	return template
}

// WriteTemplate writes Template to path, refusing to replace an existing file
// unless overwrite is set.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const template = `# tramctl configuration
[source]
host = "127.0.0.1"
port = 8081
connect_timeout = "5s"
read_timeout = "30s"
# redial after refused dials, peer close or stalled reads
reconnect = false
# consecutive dial attempts per connection; 0 = unlimited
max_connect_attempts = 1
read_buffer = 256

[decode]
# abort | reconnect
on_frame_error = "abort"
# skip | abort
on_value_error = "skip"

[render]
# text | tui | none
mode = "text"

[status]
# e.g. "127.0.0.1:9090"; empty disables the status API
addr = ""
# bearer token required by every route except /health; empty leaves the API open
token = ""

[log]
level = "info"
# log to a file instead of stderr; recommended with mode = "tui"
file = ""
`
