// Package util provides small string helpers for host command arguments.
package util

import "strings"

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArg normalizes one raw host argument: surrounding whitespace and
// quotes are removed and doubled quotes are unescaped.
func CleanArg(s string) string {
	return FixEscapeQuotes(TrimQuotes(strings.TrimSpace(s)))
}

// CleanArgs applies CleanArg to every element in place and returns args.
func CleanArgs(args []string) []string {
	for i, a := range args {
		args[i] = CleanArg(a)
	}
	return args
}
