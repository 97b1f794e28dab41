// Package config loads and watches the vitalscope configuration file
// (config.yaml).
//
// Top-level types:
//   - Config{Tracker, Thresholds, Provider, Server, Webhooks} — full config
//     tree parsed from YAML
//   - TrackerConfig — metrics/alerts/gamification stage flags, input_wait,
//     collector_timeout, interval
//   - ThresholdConfig — per-metric alert ceiling overrides; Thresholds()
//     converts the set fields into a partial vitals.Thresholds map
//   - ProviderConfig — mode (beacon|chrome|promtext) plus the mode-specific
//     fields (url, remote_url, settle_delay, endpoint)
//   - ServerConfig, AuthConfig — http_port and API auth; Key() resolves the
//     API key from the environment variable named in key_env
//   - WebhookConfig — type (slack|teams|http); URL() resolves the target
//     from the environment variable named in url_env
//
// Load(path) reads the YAML file, applies defaults (stage flags on, 5s
// input wait, 30s interval, port 8077, beacon mode), then validates
// required fields and enums.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. Event bursts from atomic-save
// editors are debounced and the watch is re-added after the file is
// replaced.
package config
