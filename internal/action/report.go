package action

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"dupfind/internal/grouper"
)

var reportRule = strings.Repeat("___", 40)

func writeTextReport(w io.Writer, groups []grouper.DuplicateGroup) error {
	bw := bufio.NewWriter(w)
	if len(groups) == 0 {
		bw.WriteString("No duplicate files found.\n")
		return bw.Flush()
	}
	bw.WriteString("Duplicates Found:\n")
	bw.WriteString("files with same content:\n")
	bw.WriteString("\n" + reportRule + "\n")
	for _, g := range groups {
		for _, path := range g.Paths {
			bw.WriteString("\t\t" + path + "\n")
		}
		bw.WriteString(reportRule + "\n")
	}
	return bw.Flush()
}

type jsonReport struct {
	ScanID string      `json:"scan_id"`
	Groups []jsonGroup `json:"groups"`
}

type jsonGroup struct {
	Size        int64    `json:"size"`
	Fingerprint string   `json:"fingerprint"`
	Canonical   string   `json:"canonical"`
	Duplicates  []string `json:"duplicates"`
}

func writeJSONReport(w io.Writer, scanID string, groups []grouper.DuplicateGroup) error {
	report := jsonReport{ScanID: scanID, Groups: make([]jsonGroup, 0, len(groups))}
	for _, g := range groups {
		report.Groups = append(report.Groups, jsonGroup{
			Size:        g.Size,
			Fingerprint: g.Fingerprint.String(),
			Canonical:   g.Canonical(),
			Duplicates:  append([]string(nil), g.Redundant()...),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
