// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// columns is the canonical projection order for rendered snapshots.
var columns = []string{"name", "version", "running", "restarts", "deployed", "image"}

// Render formats a snapshot as a plain-text table. The image column is
// dropped unless wide is set. Absent values render as empty cells, booleans
// as true/false and timestamps as YYYY-MM-DD HH:MM:SS.
func Render(records []ServiceRecord, wide bool) string {
	cols := columns
	if !wide {
		cols = columns[:len(columns)-1]
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	title := cases.Title(language.English)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = title.String(c)
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))

	for _, rec := range records {
		cells := make([]string, 0, len(cols))
		cells = append(cells,
			rec.Name,
			rec.Version,
			strconv.FormatBool(rec.Running),
			strconv.Itoa(rec.Restarts),
		)
		if rec.Deployed.IsZero() {
			cells = append(cells, "")
		} else {
			cells = append(cells, rec.Deployed.Format(DeployedTimeLayout))
		}
		if wide {
			cells = append(cells, rec.Image)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	w.Flush()
	return b.String()
}
