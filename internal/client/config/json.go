package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/todokeeper/internal/flagx"
	"github.com/dmitrijs2005/todokeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations go
// through timex.Duration, so "10s" and integer nanoseconds both work.
type JsonConfig struct {
	ServerURL           string         `json:"server_url"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Absent or zero fields keep their current value. Read and
// unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
}
