// Package pkgconfig reads application settings.
//
// The file is YAML loaded through Viper. Any key can be overridden by an
// environment variable named GOWEAVE_ plus the key with dots turned into
// underscores: "warehouse.driver" is GOWEAVE_WAREHOUSE_DRIVER.
//
// Secret keys such as gemini.api_key hold the name of an environment
// variable. ResolveSecret replaces that name with the variable's value.
package pkgconfig
