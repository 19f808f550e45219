package command

import (
	"strconv"
	"strings"

	"github.com/john-yian/ckb-next/internal/device"
)

// keyScanWidth is the maximum length of one key token in a key list.
// Longer tokens are split at this boundary and the pieces resolved
// independently, matching the original daemon's scan width. Do not
// widen without a protocol revision.
const keyScanWidth = 10

// resolveKeys walks a comma-separated key list and invokes fn once per
// resolved key index. Unresolvable tokens are dropped without error.
//
// Per token, first match wins:
//  1. "all" expands to every index in [0, device.KeysExtended)
//  2. "#<decimal>" parses numerically, bounded by KeysExtended
//  3. "#x<hex>" likewise
//  4. anything else scans the keymap for an exact name match
//
// An empty segment (leading or doubled comma) terminates the scan.
func resolveKeys(list string, keymap device.Keymap, fn func(index int)) {
	pos := 0
	for pos < len(list) {
		end := pos
		for end < len(list) && end-pos < keyScanWidth && list[end] != ',' && list[end] != ':' {
			end++
		}
		name := list[pos:end]
		if name == "" {
			return
		}

		if name == "all" {
			for i := 0; i < device.KeysExtended; i++ {
				fn(i)
			}
		} else if index, ok := parseKeyIndex(name); ok {
			fn(index)
		} else if index := keymap.Index(name); index >= 0 {
			fn(index)
		}

		pos = end
		if pos < len(list) && list[pos] == ',' {
			pos++
		}
	}
}

// parseKeyIndex parses the numeric key forms "#<decimal>" and
// "#x<hex>". ok is false for non-numeric tokens and for indices outside
// the extended key range.
func parseKeyIndex(name string) (index int, ok bool) {
	rest, found := strings.CutPrefix(name, "#")
	if !found || rest == "" {
		return 0, false
	}

	base := 10
	if hex, isHex := strings.CutPrefix(rest, "x"); isHex {
		rest = hex
		base = 16
	}

	n, err := strconv.ParseUint(rest, base, 32)
	if err != nil || n >= device.KeysExtended {
		return 0, false
	}
	return int(n), true
}

// splitParam splits a parameter token at its first unescaped colon into
// the key list and the shared value. ok is false when the key list would
// be empty (token starts with the separator), in which case the token is
// dropped.
func splitParam(word string) (left, right string, ok bool) {
	for i := 0; i < len(word); i++ {
		switch word[i] {
		case '\\':
			i++ // skip the escaped byte
		case ':':
			if i == 0 {
				return "", "", false
			}
			return word[:i], word[i+1:], true
		}
	}
	if word == "" {
		return "", "", false
	}
	return word, "", true
}
