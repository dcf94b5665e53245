package adapter

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeParams decodes the free-form target.params block into an
// adapter-specific struct. A nil map yields the zero value.
func DecodeParams[T any](params map[string]any) (*T, error) {
	out := new(T)
	if len(params) == 0 {
		return out, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build params decoder: %w", err)
	}
	if err := dec.Decode(params); err != nil {
		return nil, fmt.Errorf("invalid adapter params: %w", err)
	}
	return out, nil
}
