package config

import (
	"time"

	"github.com/spf13/cobra"
)

// ApplyStringConfig applies a config file string value if the flag was not explicitly set
// and the config value is present. Returns the effective value and its source.
func ApplyStringConfig(cmd *cobra.Command, flagName string, currentValue string, configValue *string) (string, ConfigSource) {
	return apply(cmd, flagName, currentValue, configValue)
}

// ApplyIntConfig is ApplyStringConfig for ints.
func ApplyIntConfig(cmd *cobra.Command, flagName string, currentValue int, configValue *int) (int, ConfigSource) {
	return apply(cmd, flagName, currentValue, configValue)
}

// ApplyBoolConfig is ApplyStringConfig for bools. A false flag default never
// overrides a true config value.
func ApplyBoolConfig(cmd *cobra.Command, flagName string, currentValue bool, configValue *bool) (bool, ConfigSource) {
	return apply(cmd, flagName, currentValue, configValue)
}

// ApplyDurationConfig applies a config file duration, already parsed by
// ValidateFileConfig.
func ApplyDurationConfig(cmd *cobra.Command, flagName string, currentValue time.Duration, configValue *string) (time.Duration, ConfigSource) {
	if cmd.Flags().Changed(flagName) {
		return currentValue, SourceFlag
	}
	if configValue != nil {
		if d, err := time.ParseDuration(*configValue); err == nil {
			return d, SourceConfigFile
		}
	}
	return currentValue, SourceDefault
}

func apply[T any](cmd *cobra.Command, flagName string, currentValue T, configValue *T) (T, ConfigSource) {
	if cmd.Flags().Changed(flagName) {
		return currentValue, SourceFlag
	}
	if configValue != nil {
		return *configValue, SourceConfigFile
	}
	return currentValue, SourceDefault
}

// ApplyEnvString applies an environment variable string value if set and flag was not changed.
// This handles the priority: localnet.toml < env < flag
func ApplyEnvString(cmd *cobra.Command, flagName string, currentValue string, envValue string, currentSource ConfigSource) (string, ConfigSource) {
	if cmd.Flags().Changed(flagName) {
		return currentValue, SourceFlag
	}
	if envValue != "" {
		return envValue, SourceEnvironment
	}
	return currentValue, currentSource
}

// ApplyEnvBool applies an environment variable bool value if set and flag was not changed.
func ApplyEnvBool(cmd *cobra.Command, flagName string, currentValue bool, envSet bool, currentSource ConfigSource) (bool, ConfigSource) {
	if cmd.Flags().Changed(flagName) {
		return currentValue, SourceFlag
	}
	if envSet {
		return true, SourceEnvironment
	}
	return currentValue, currentSource
}
