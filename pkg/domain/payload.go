package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodePayload decodes a loosely typed payload (as carried on Events and
// Commands) into a typed struct. Handlers use it to avoid map assertions.
//
// Field matching is case-insensitive and honors `mapstructure` tags.
func DecodePayload(payload any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build payload decoder: %w", err)
	}
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}
