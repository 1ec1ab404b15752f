// Package types defines parameter schemas, validated parameter sets, the
// snapshot catalog interface, configuration and the standard errors shared
// by modelkit packages.
package types
