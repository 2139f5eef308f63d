// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	yaml "gopkg.in/yaml.v3"
)

// OutputFormats lists the renderings FormatOutput supports.
var OutputFormats = []string{"json", "yaml", "table"}

// FormatOutput writes v to stdout in the requested format (json, yaml,
// table). Commands use it for result payloads; status lines go through the
// logger instead.
func FormatOutput(v any, format string) error {
	return renderOutput(os.Stdout, v, format)
}

func renderOutput(w io.Writer, v any, format string) error {
	switch format {
	case "yaml":
		return yaml.NewEncoder(w).Encode(v)
	case "table":
		return renderTable(w, v)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// tableFields is the column candidate list for table output, in display
// order. Only fields present in the first row become columns.
var tableFields = []string{"name", "serialNumber", "connectionStatus", "type", "state", "key", "value", "_id"}

func renderTable(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var items []map[string]any
	switch t := raw.(type) {
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
	case map[string]any:
		items = append(items, t)
	default:
		return renderOutput(w, v, "json")
	}

	if len(items) == 0 {
		fmt.Fprintln(w, "(no results)")
		return nil
	}

	var cols []string
	for _, f := range tableFields {
		if _, ok := items[0][f]; ok {
			cols = append(cols, f)
		}
	}
	if len(cols) == 0 {
		return renderOutput(w, v, "json")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)

	for _, item := range items {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprintf(tw, "%v", item[c])
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}
