package enums

import "fmt"

// ConfigValueType declares how a site config value string should be interpreted.
type ConfigValueType string

const (
	ConfigValueTypeString ConfigValueType = "string"
	ConfigValueTypeBool   ConfigValueType = "bool"
	ConfigValueTypeInt    ConfigValueType = "int"
)

var validConfigValueTypes = []ConfigValueType{
	ConfigValueTypeString,
	ConfigValueTypeBool,
	ConfigValueTypeInt,
}

// IsValid reports whether the value is a known ConfigValueType.
func (c ConfigValueType) IsValid() bool {
	for _, candidate := range validConfigValueTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseConfigValueType converts raw input into a ConfigValueType.
func ParseConfigValueType(value string) (ConfigValueType, error) {
	for _, candidate := range validConfigValueTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid config value type %q", value)
}
