package abi

import (
	"fmt"
	"strings"
)

// ledger account/action names are uint64 values encoded with a 32 symbol
// alphabet, 5 bits per character except the 13th which gets the remaining 4
const nameAlphabet = ".12345abcdefghijklmnopqrstuvwxyz"

// NameToString converts a packed name value into its textual form.
// Trailing dots are not part of the textual form and are stripped.
func NameToString(value uint64) string {
	str := []byte(".............")
	tmp := value

	for i := 0; i <= 12; i++ {
		if i == 0 {
			str[12] = nameAlphabet[tmp&0x0f]
			tmp >>= 4
		} else {
			str[12-i] = nameAlphabet[tmp&0x1f]
			tmp >>= 5
		}
	}

	return strings.TrimRight(string(str), ".")
}

// StringToName converts a textual name into its packed uint64 form
func StringToName(s string) (uint64, error) {
	if len(s) > 13 {
		return 0, fmt.Errorf("name too long: %s", s)
	}

	var value uint64

	for i := 0; i < len(s); i++ {
		sym, err := nameCharToSymbol(s[i])
		if err != nil {
			return 0, fmt.Errorf("name %s: %w", s, err)
		}

		if i < 12 {
			value |= (sym & 0x1f) << uint(64-5*(i+1))
		} else {
			if sym&0x0f != sym {
				return 0, fmt.Errorf("name %s: 13th character out of range", s)
			}

			value |= sym & 0x0f
		}
	}

	return value, nil
}

func nameCharToSymbol(c byte) (uint64, error) {
	switch {
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 6, nil
	case c >= '1' && c <= '5':
		return uint64(c-'1') + 1, nil
	case c == '.':
		return 0, nil
	default:
		return 0, fmt.Errorf("invalid character %q", c)
	}
}
