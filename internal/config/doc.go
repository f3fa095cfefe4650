// Package config loads run settings from flags, environment, an optional
// settings file and defaults, in that order of precedence. Environment
// variables use the SCRIPTMIRROR_ prefix; the legacy unprefixed names
// (CLEAN_MODE, BARK_PUSH_URL, ...) are accepted as aliases.
package config
