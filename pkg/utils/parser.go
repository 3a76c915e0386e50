// Package utils provides small helpers shared by the HTTP layer: response writers,
// size parsing, origin matching and request inspection.
package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// sizeRegex matches a number followed optionally by a unit string.
var sizeRegex = regexp.MustCompile(`^(\d+)\s*([a-zA-Z]*)$`)

// unitMultipliers uses binary prefixes: 1 KB = 1024 bytes.
var unitMultipliers = map[string]int64{
	"":   1,
	"B":  1,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
}

// ParseSize parses a human-readable size such as "10MB", "512 kb" or "2048".
func ParseSize(sizeStr string) (int64, error) {
	rawStr := strings.TrimSpace(strings.ToUpper(sizeStr))
	if rawStr == "" {
		return 0, fmt.Errorf("empty size")
	}

	matches := sizeRegex.FindStringSubmatch(rawStr)
	if len(matches) != 3 {
		return 0, fmt.Errorf("invalid size format %q", sizeStr)
	}

	value, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid numeric value in %q", sizeStr)
	}

	multiplier, ok := unitMultipliers[matches[2]]
	if !ok {
		return 0, fmt.Errorf("unsupported unit %q in %q", matches[2], sizeStr)
	}
	return value * multiplier, nil
}

// SizeToBytes is ParseSize with a fallback for unparsable input.
func SizeToBytes(sizeStr string, defaultValue int64) int64 {
	n, err := ParseSize(sizeStr)
	if err != nil {
		return defaultValue
	}
	return n
}

// ParseInt safely parses a string to int with bounds checking.
// ParseInt("abc", 256, 16, 2048) returns 256; ParseInt("9999", 256, 16, 2048) returns 2048.
func ParseInt(value string, def int, min int, max int) int {
	if value == "" {
		return def
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	if i < min {
		return min
	}
	if i > max {
		return max
	}
	return i
}
