// Package configs embeds the configuration template written by
// `hybridsearch config init`.
package configs

import _ "embed"

// ConfigTemplate is a commented configuration file listing every option
// with its default.
//
//go:embed config.example.yaml
var ConfigTemplate string
