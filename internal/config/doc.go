// Package config loads server, database, auth and task engine settings from
// an optional config.yaml and HOTELOPS_* environment variables, and
// validates them before anything else starts.
package config
