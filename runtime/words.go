package runtime

import "embed"

//go:embed censored/*
var censoredFolder embed.FS

// LoadCensoredWords parses the embedded per-language dictionaries.
func LoadCensoredWords() (*CensoredData, error) {
	return NewCensoredLoader(censoredFolder).LoadAll("censored")
}
