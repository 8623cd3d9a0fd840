// Package config loads the authclient configuration.
//
// Values come from a YAML file, a .env file and the environment, in that
// order of precedence from lowest to highest. Environment variables map to
// keys by upper-casing them and replacing dots with underscores, so
// REFRESH_WAITER_TIMEOUT sets refresh.waiter_timeout.
//
//	cfg, err := config.Load("authclient")
//	if err != nil {
//	    return err
//	}
package config
