package importer

import (
	"regexp"
	"strings"
)

// RowData holds the best-effort normalized field values for one imported
// row. It is populated even for invalid rows so callers can render a
// preview table. ParticipantEmail and CertificateNumber are omitted from
// JSON entirely when empty, distinguishing "absent" from
// "present-but-invalid".
type RowData struct {
	ParticipantName   string `json:"participantName"`
	ParticipantEmail  string `json:"participantEmail,omitempty"`
	EventName         string `json:"eventName"`
	EventStartDate    string `json:"eventStartDate"`
	EventEndDate      string `json:"eventEndDate"`
	CertificateNumber string `json:"certificateNumber,omitempty"`
}

// Row is the validation result for one data row of the source file.
// Index is the 1-based position in the file; the first data row is 2
// because row 1 is the header.
type Row struct {
	Index   int      `json:"index"`
	Data    RowData  `json:"data"`
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// emailPattern is a minimal local@domain.tld shape check, deliberately
// loose. Deliverability is not this layer's concern.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks every data row of a parsed table against the import
// rules. Row 1 is treated as headers; a table with fewer than 2 rows
// yields an empty result, not an error.
//
// existing seeds the set of certificate numbers already known to be
// issued; the set grows as the file is processed top to bottom, so a
// number reused by a later row of the same file is rejected with the
// within-file error. Lookups are case-insensitive.
func Validate(rows [][]string, existing map[string]bool) []Row {
	if len(rows) < 2 {
		return []Row{}
	}

	cols := resolveColumns(rows[0])

	seen := make(map[string]bool, len(existing))
	for n := range existing {
		seen[strings.ToUpper(strings.TrimSpace(n))] = true
	}
	fromFile := make(map[string]bool)

	results := make([]Row, 0, len(rows)-1)
	for i, raw := range rows[1:] {
		index := i + 2
		data := extractRow(raw, cols)
		num := data.CertificateNumber

		// A number already claimed by an earlier row of this file
		// short-circuits the standard per-row validation entirely.
		if num != "" && fromFile[num] {
			results = append(results, Row{
				Index:   index,
				Data:    data,
				IsValid: false,
				Errors:  []string{"certificateNumber must be unique within file"},
			})
			continue
		}

		results = append(results, validateRow(index, data, seen))
		if num != "" {
			seen[num] = true
			fromFile[num] = true
		}
	}
	return results
}

// extractRow pulls the six logical fields out of a raw row, trimming each
// cell, upper-casing the certificate number, and rewriting dd-mm-yyyy
// dates to yyyy-mm-dd.
func extractRow(raw []string, cols columnMap) RowData {
	return RowData{
		ParticipantName:   cellAt(raw, cols[fieldParticipantName]),
		ParticipantEmail:  cellAt(raw, cols[fieldParticipantEmail]),
		EventName:         cellAt(raw, cols[fieldEventName]),
		EventStartDate:    normalizeDate(cellAt(raw, cols[fieldEventStartDate])),
		EventEndDate:      normalizeDate(cellAt(raw, cols[fieldEventEndDate])),
		CertificateNumber: strings.ToUpper(cellAt(raw, cols[fieldCertificateNumber])),
	}
}

// validateRow applies the standard per-row rules. seen must already
// contain all previously issued numbers plus numbers claimed by earlier
// rows of the current file.
func validateRow(index int, data RowData, seen map[string]bool) Row {
	errs := []string{}

	if data.ParticipantName == "" {
		errs = append(errs, "participantName is required")
	}
	if data.EventName == "" {
		errs = append(errs, "eventName is required")
	}

	if data.EventStartDate == "" {
		errs = append(errs, "eventStartDate is required")
	} else if !parseDate(data.EventStartDate) {
		errs = append(errs, "eventStartDate must be a valid date")
	}

	if data.EventEndDate == "" {
		errs = append(errs, "eventEndDate is required")
	} else if !parseDate(data.EventEndDate) {
		errs = append(errs, "eventEndDate must be a valid date")
	}

	if data.ParticipantEmail != "" && !emailPattern.MatchString(data.ParticipantEmail) {
		errs = append(errs, "participantEmail must be a valid email")
	}

	if data.CertificateNumber != "" && seen[data.CertificateNumber] {
		errs = append(errs, "certificateNumber must be unique")
	}

	return Row{
		Index:   index,
		Data:    data,
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}
