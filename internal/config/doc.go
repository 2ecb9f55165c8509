// Package config loads application settings from a YAML file, a .env
// file, and environment variables, in increasing order of precedence.
// The resulting Config doubles as the authentication state consulted
// by the data-access facade: credentials present means cloud mode.
package config
