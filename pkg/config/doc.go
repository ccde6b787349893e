// Package config provides the configuration of colframe.
//
// A single Config structure carries every tunable: the view policy of row
// selections, the execution pool, chunk ingestion, logging, tracing and the
// metrics endpoint. NewDefault fills every section, so configuration files
// are sparse.
//
// # Usage
//
//	cfg, err := config.Load("colframe.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Apply(); err != nil {
//		log.Fatal(err)
//	}
//
// Apply installs the view policy, the global logger and the tracer provider.
// The execution pool and codecs are built by the caller from cfg.Execution
// and cfg.Codec().
//
// # Environment Variable Substitution
//
// Values may reference the environment before parsing:
//
//	logging:
//	  level: ${COLFRAME_LOG_LEVEL:-info}
//	ingest:
//	  compression:
//	    algorithm: ${COLFRAME_CODEC}
//
// Unset variables without a fallback become empty strings. The command line
// loads a .env file first, so its variables are visible here.
//
// # Example File
//
//	columns:
//	  min_view_size: 4096
//	execution:
//	  workers: 8
//	ingest:
//	  compression:
//	    algorithm: zstd
//	    level: 7
//	  max_frame_size: 16777216
//	logging:
//	  level: debug
//	  encoding: console
//	tracing:
//	  exporter: stdout
//	  sampling_rate: 0.1
//	metrics:
//	  enabled: true
//	  address: ":9090"
package config
