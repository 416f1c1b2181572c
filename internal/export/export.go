// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package export writes the raw prediction document of an analysis as JSON or CSV.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/wneessen/rainparade/internal/prediction"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

var (
	// ErrNoData is returned if there is no prediction document to export, for example after a
	// fallback analysis.
	ErrNoData = errors.New("no data available to export, run an analysis first")

	ErrUnknownFormat = errors.New("unknown export format")

	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// ParseFormat returns the Format for s, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// Filename returns weather_data_<location>_<date>.<format>, with every character of location
// and date that is not an ASCII letter or digit replaced by an underscore.
func Filename(location, date string, format Format, compressed bool) string {
	name := fmt.Sprintf("weather_data_%s_%s.%s", unsafeChars.ReplaceAllString(location, "_"),
		unsafeChars.ReplaceAllString(date, "_"), format)
	if compressed {
		name += ".gz"
	}
	return name
}

// Write encodes res in the given format to w, gzip compressed if compress is set.
func Write(w io.Writer, format Format, res *prediction.Response, compress bool) error {
	if res == nil {
		return ErrNoData
	}
	doc, err := res.Document()
	if err != nil {
		return fmt.Errorf("failed to get prediction document: %w", err)
	}

	var encode func(io.Writer, []byte) error
	switch format {
	case FormatJSON:
		encode = JSON
	case FormatCSV:
		encode = CSV
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if !compress {
		return encode(w, doc)
	}
	zw := gzip.NewWriter(w)
	if err = encode(zw, doc); err != nil {
		_ = zw.Close()
		return err
	}
	if err = zw.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}

// WriteFile exports res into dir and returns the path of the written file.
func WriteFile(dir, location, date string, format Format, res *prediction.Response, compress bool) (string, error) {
	if res == nil {
		return "", ErrNoData
	}
	buf := bytes.NewBuffer(nil)
	if err := Write(buf, format, res, compress); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, Filename(location, date, format, compress))
	if err := os.WriteFile(path, buf.Bytes(), 0o640); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// JSON writes doc indented by two spaces.
func JSON(w io.Writer, doc []byte) error {
	buf := bytes.NewBuffer(nil)
	if err := json.Indent(buf, doc, "", "  "); err != nil {
		return fmt.Errorf("failed to indent JSON document: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write JSON export: %w", err)
	}
	return nil
}
