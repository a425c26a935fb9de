package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"poolDataFetcher/internal/model"
)

// ParseAddresses converts string addresses into common.Address.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("%w: invalid address: %s", model.ErrInvalidInput, input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

// ParseTokenPairs parses "token0:token1:fee" entries, fee in hundredths of a
// basis point (500 = 0.05%).
func ParseTokenPairs(inputs []string) ([]model.TokenPair, error) {
	pairs := make([]model.TokenPair, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		parts := strings.Split(input, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: pair %q must be token0:token1:fee", model.ErrInvalidInput, input)
		}
		tokens, err := ParseAddresses(parts[:2])
		if err != nil {
			return nil, err
		}
		if len(tokens) != 2 {
			return nil, fmt.Errorf("%w: pair %q is missing a token", model.ErrInvalidInput, input)
		}
		fee, err := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 24)
		if err != nil {
			return nil, fmt.Errorf("%w: pair %q fee: %w", model.ErrInvalidInput, input, err)
		}
		pairs = append(pairs, model.TokenPair{Token0: tokens[0], Token1: tokens[1], Fee: uint32(fee)})
	}
	return pairs, nil
}
