package config

import "time"

// ConfigSource represents the origin of a configuration value.
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceConfigFile  ConfigSource = "config.toml"
	SourceEnvironment ConfigSource = "environment"
	SourceFlag        ConfigSource = "flag"
)

// String returns the string representation of the ConfigSource.
func (s ConfigSource) String() string {
	return string(s)
}

// Value is a configuration value together with where it came from.
type Value[T any] struct {
	Value  T
	Source ConfigSource
}

// StringValue represents a string configuration value with its source.
type StringValue = Value[string]

// IntValue represents an int configuration value with its source.
type IntValue = Value[int]

// BoolValue represents a bool configuration value with its source.
type BoolValue = Value[bool]

// DurationValue represents a duration configuration value with its source.
type DurationValue = Value[time.Duration]

// Default creates a Value with default source.
func Default[T any](v T) Value[T] {
	return Value[T]{Value: v, Source: SourceDefault}
}

// set replaces the value when override is non-nil.
func (v *Value[T]) set(override *T, source ConfigSource) {
	if override != nil {
		v.Value = *override
		v.Source = source
	}
}
