package config

import (
	"fmt"
	"strconv"
	"time"
)

// Duration wraps time.Duration so YAML can express it as "100ms" or
// "1s500ms" instead of a raw nanosecond integer, the way Go's own
// flag/time packages format it.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// Dur returns the wrapped time.Duration.
func (d Duration) Dur() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			// yaml.v3 decodes a plain integer scalar into a string too, so
			// a raw nanosecond count arrives here rather than below.
			if ns, nerr := strconv.ParseInt(s, 10, 64); nerr == nil {
				*d = Duration(ns)
				return nil
			}
			return fmt.Errorf("config: invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var ns int64
	if err := unmarshal(&ns); err != nil {
		return fmt.Errorf("config: duration must be a string like \"100ms\" or an integer of nanoseconds")
	}
	*d = Duration(ns)
	return nil
}
