package config

// Key: board name. Val: raw YAML for that board.

const cfgLinux = `
i2c:
  bus: ""
chips:
  one: {address: 0x5A}
  two: {address: 0x5C}
init:
  backoff_ms: 100
storage:
  path: /var/lib/plantsense/params.db
  autosave: false
poll:
  interval_ms: 500
thresholds:
  touch: 12
  release: 6
log:
  level: info
`

// The firmware keeps parameters in the last flash block; storage.path is unused.
const cfgPico = `
chips:
  one: {address: 0x5A}
  two: {address: 0x5C}
init:
  backoff_ms: 100
storage:
  autosave: true
poll:
  interval_ms: 250
thresholds:
  touch: 12
  release: 6
log:
  level: info
`

var embeddedConfigs = map[string][]byte{
	BoardLinux: []byte(cfgLinux),
	BoardPico:  []byte(cfgPico),
}
