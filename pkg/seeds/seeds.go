package seeds

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoSeeds is returned when a seed file names no collections
var ErrNoSeeds = errors.New("seed file contains no urls")

type seedEntry struct {
	URL string `json:"url"`
}

// Load reads collection seed URLs from path.
//
// The file is either a JSON array of {"url": ...} objects, a JSON array of
// strings, or plain text with one URL per line where blank lines and lines
// starting with "#" are ignored. Duplicates keep their first position.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	urls, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return urls, nil
}

// Parse extracts seed URLs from the contents of a seed file
func Parse(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)

	var raw []string
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var err error
		if raw, err = parseJSON(trimmed); err != nil {
			return nil, err
		}
	} else {
		scanner := bufio.NewScanner(bytes.NewReader(trimmed))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if strings.HasPrefix(line, "#") {
				continue
			}
			raw = append(raw, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read seed lines: %w", err)
		}
	}

	urls := dedupe(raw)
	if len(urls) == 0 {
		return nil, ErrNoSeeds
	}
	return urls, nil
}

func parseJSON(data []byte) ([]string, error) {
	var entries []seedEntry
	if err := json.Unmarshal(data, &entries); err == nil {
		raw := make([]string, len(entries))
		for i, e := range entries {
			raw[i] = e.URL
		}
		return raw, nil
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("seed file is neither a list of {\"url\"} objects nor of strings: %w", err)
	}
	return raw, nil
}

func dedupe(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}
