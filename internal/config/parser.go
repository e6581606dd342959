package config

import "strings"

// Parse reads configuration content as JSONC. Empty content yields the base
// configuration after validation.
func Parse(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	return parseJSONC(content, base)
}
