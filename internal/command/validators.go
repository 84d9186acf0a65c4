// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"errors"
	"fmt"

	"github.com/staranto/memo/internal/entry"
)

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

func OutputValidator(value any) error {
	var validOutputFlagValues = []string{"text", "json", "yaml"}
	for _, v := range validOutputFlagValues {
		if v == value {
			return nil
		}
	}
	return fmt.Errorf("must be one of %v", validOutputFlagValues)
}

func CodecValidator(value any) error {
	s, ok := value.(string)
	if !ok {
		return errors.New("must be a string")
	}
	_, err := entry.ParseFormat(s)
	return err
}
