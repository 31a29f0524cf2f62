// Package config loads the runtime configuration with viper.
//
// Values are resolved in this order: command line flags bound with
// BindFlags, INBOXSORTER_* environment variables (dots in keys become
// underscores), an optional YAML file and finally the defaults registered by
// SetDefaults.
//
// Example config.yaml:
//
//	threshold: 0.9
//	categories: [Work, Personal, Newsletters]
//	labels:
//	  prefix: "AI/"
//	model:
//	  base_url: http://localhost:11434/v1
//	  name: mistral
//	  timeout: 90s
package config
