// Package config loads the server configuration from YAML.
//
// Every field has a default, so an empty or missing file is valid:
//
//	admission:
//	  strict: true
//	  fallback_total_bytes: 1073741824
//	  tiers:
//	    - {up_to_bytes: 1073741824, max_ratio: 0.5}
//	    - {up_to_bytes: 2147483648, max_ratio: 0.7}
//	    - {up_to_bytes: 0, max_ratio: 0.85}
//	telemetry:
//	  source: sysinfo        # sysinfo | meminfo | static
//	  refresh_interval: 0s   # 0 reads the device once
//	engine:
//	  max_objects: 0         # 0 is unlimited
//	log:
//	  level: info
//	  format: console
package config
