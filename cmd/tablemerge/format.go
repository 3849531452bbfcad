// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tablemerge/pkg/types"
)

// addFormatFlags registers the flags that control how tables are parsed.
func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().String("delimiter", ",", `field delimiter (a single character, or "tab")`)
	cmd.Flags().StringSlice("null-tokens", nil, `values read as missing (default "", NA, NaN)`)
	cmd.Flags().Bool("trim-space", false, "trim whitespace around every field")
	cmd.Flags().String("encoding", "utf-8", "input encoding: utf-8, utf-16, latin1, windows-1252")
}

// formatFromFlags builds a TableFormat from the format flags, falling back
// to the format section of the config file.
func formatFromFlags(cmd *cobra.Command) (types.TableFormat, error) {
	delim, err := parseDelimiter(setting(cmd, "delimiter", "format.delimiter"))
	if err != nil {
		return types.TableFormat{}, err
	}

	f := types.TableFormat{
		Delimiter: delim,
		Encoding:  setting(cmd, "encoding", "format.encoding"),
	}

	if cmd.Flags().Changed("null-tokens") {
		f.NullTokens, _ = cmd.Flags().GetStringSlice("null-tokens")
	} else if viper.IsSet("format.null_tokens") {
		f.NullTokens = viper.GetStringSlice("format.null_tokens")
	}

	if cmd.Flags().Changed("trim-space") {
		f.TrimSpace, _ = cmd.Flags().GetBool("trim-space")
	} else {
		f.TrimSpace = viper.GetBool("format.trim_space")
	}
	return f, nil
}

// parseDelimiter accepts a single character, "tab" or a literal `\t`.
func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", ",":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("delimiter %q is not allowed", s)
	}
	return r, nil
}
