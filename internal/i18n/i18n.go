// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package i18n provides the localizer for template labels, recommendations and the user facing
// log messages.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/Xuanwo/go-locale"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"
)

const catalogDir = "locale"

//go:embed locale/*.po
var catalogs embed.FS

// Available returns the languages an embedded catalog exists for. English is the source
// language and needs none.
func Available() ([]language.Tag, error) {
	entries, err := fs.ReadDir(catalogs, catalogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogs: %w", err)
	}
	tags := make([]language.Tag, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".po" {
			continue
		}
		tag, err := language.Parse(strings.TrimSuffix(entry.Name(), ".po"))
		if err != nil {
			return nil, fmt.Errorf("invalid catalog name %q: %w", entry.Name(), err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// New returns a localizer for loc. An empty loc uses the system locale. Languages without a
// catalog get the English source texts.
func New(loc string) (*spreak.Localizer, error) {
	tag := language.Make(loc)
	if loc == "" {
		detected, err := locale.Detect()
		if err != nil {
			detected = language.English
		}
		tag = detected
	}

	available, err := Available()
	if err != nil {
		return nil, err
	}
	languages := make([]any, 0, len(available))
	for _, lang := range available {
		languages = append(languages, lang)
	}

	catalogFS, err := fs.Sub(catalogs, catalogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalogs: %w", err)
	}
	bundle, err := spreak.NewBundle(
		spreak.WithSourceLanguage(language.English),
		spreak.WithFallbackLanguage(language.English),
		spreak.WithDomainFs("", catalogFS),
		spreak.WithLanguage(languages...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create i18n bundle: %w", err)
	}
	return spreak.NewLocalizer(bundle, tag), nil
}
