package importer

import (
	"regexp"
	"strconv"
	"strings"

	"bms/internal/models"
)

var flatCodePattern = regexp.MustCompile(`^([A-H])[-_]?([0-9]{1,2})$`)

// Row is one pasted occupant line that parsed cleanly.
type Row struct {
	Line      int            `json:"line"`
	Flat      models.FlatKey `json:"-"`
	FlatCode  string         `json:"flat"`
	OwnerName string         `json:"owner_name"`
	Phone     string         `json:"phone"`
}

// ParseResult holds the parsed rows and the number of lines that were
// rejected. Blank and header lines are neither.
type ParseResult struct {
	Rows    []Row
	Skipped int
}

// ParseFlatCode accepts "A-01", "a01", "A_1", "A 01" and similar.
func ParseFlatCode(code string) (models.FlatKey, bool) {
	code = strings.ToUpper(strings.Join(strings.Fields(code), ""))
	m := flatCodePattern.FindStringSubmatch(code)
	if m == nil {
		return models.FlatKey{}, false
	}
	floor, err := strconv.Atoi(m[2])
	if err != nil || floor < models.MinFloor || floor > models.MaxFloor {
		return models.FlatKey{}, false
	}
	return models.FlatKey{Unit: m[1], Floor: floor}, true
}

// IsHeader reports whether line looks like a column header.
func IsHeader(line string) bool {
	l := strings.ToLower(line)
	return strings.Contains(l, "flat") && strings.Contains(l, "owner")
}

func splitCells(line string) []string {
	sep := ","
	if strings.Contains(line, "\t") {
		sep = "\t"
	}
	cells := strings.Split(line, sep)
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// Parse reads free-form pasted text, one record per line: flat code, owner
// name and an optional phone, separated by tabs or commas.
func Parse(text string) ParseResult {
	var res ParseResult
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || IsHeader(line) {
			continue
		}
		cells := splitCells(line)
		if len(cells) < 2 {
			res.Skipped++
			continue
		}
		key, ok := ParseFlatCode(cells[0])
		if !ok || cells[1] == "" {
			res.Skipped++
			continue
		}
		row := Row{Line: i + 1, Flat: key, FlatCode: key.String(), OwnerName: cells[1]}
		if len(cells) > 2 {
			row.Phone = models.NormalizePhone(cells[2])
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}
