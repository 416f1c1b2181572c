// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type field struct {
	key   string
	value string
}

// CSV writes doc as two lines: the dotted keys of all leaf values in document order, and the
// values, each wrapped in double quotes with inner quotes doubled. Array elements are keyed by
// their index, null leaves are written as "null".
func CSV(w io.Writer, doc []byte) error {
	fields, err := flatten(doc)
	if err != nil {
		return err
	}

	keys := make([]string, len(fields))
	values := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
		values[i] = `"` + strings.ReplaceAll(f.value, `"`, `""`) + `"`
	}
	out := strings.Join(keys, ",") + "\n" + strings.Join(values, ",")
	if _, err = io.WriteString(w, out); err != nil {
		return fmt.Errorf("failed to write CSV export: %w", err)
	}
	return nil
}

// flatten walks the token stream so that object keys keep their document order.
func flatten(doc []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var fields []field
	if err := flattenValue(dec, "", &fields); err != nil {
		return nil, fmt.Errorf("failed to flatten JSON document: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("failed to flatten JSON document: trailing data")
	}
	return fields, nil
}

func flattenValue(dec *json.Decoder, key string, fields *[]field) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				name, ok := keyTok.(string)
				if !ok {
					return fmt.Errorf("unexpected object key %v", keyTok)
				}
				if err = flattenValue(dec, key+name+".", fields); err != nil {
					return err
				}
			}
		case '[':
			for i := 0; dec.More(); i++ {
				if err = flattenValue(dec, key+strconv.Itoa(i)+".", fields); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unexpected delimiter %s", v)
		}
		// consume the closing delimiter
		_, err = dec.Token()
		return err
	case string:
		*fields = append(*fields, field{key: strings.TrimSuffix(key, "."), value: v})
	case json.Number:
		*fields = append(*fields, field{key: strings.TrimSuffix(key, "."), value: v.String()})
	case bool:
		*fields = append(*fields, field{key: strings.TrimSuffix(key, "."), value: strconv.FormatBool(v)})
	case nil:
		*fields = append(*fields, field{key: strings.TrimSuffix(key, "."), value: "null"})
	}
	return nil
}
