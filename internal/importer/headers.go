package importer

import "strings"

// Logical fields a spreadsheet column can map to.
const (
	fieldParticipantName   = "participantName"
	fieldParticipantEmail  = "participantEmail"
	fieldEventName         = "eventName"
	fieldEventStartDate    = "eventStartDate"
	fieldEventEndDate      = "eventEndDate"
	fieldCertificateNumber = "certificateNumber"
)

// headerAliases lists acceptable header spellings per logical field.
// Spreadsheet producers vary capitalization, spacing, and naming ("Name" vs
// "participantName" vs "Participant Name"), so comparison is done on the
// normalized form: lowercased with all whitespace removed.
var headerAliases = map[string][]string{
	fieldParticipantName:   {"participantname", "name", "fullname", "participant"},
	fieldParticipantEmail:  {"participantemail", "email", "e-mail", "emailaddress", "mail"},
	fieldEventName:         {"eventname", "event", "eventtitle"},
	fieldEventStartDate:    {"eventstartdate", "startdate", "start", "from"},
	fieldEventEndDate:      {"eventenddate", "enddate", "end", "to"},
	fieldCertificateNumber: {"certificatenumber", "certificateno", "certno", "certificate", "number"},
}

// fieldOrder fixes the resolution order so ambiguous headers bind
// deterministically.
var fieldOrder = []string{
	fieldParticipantName,
	fieldParticipantEmail,
	fieldEventName,
	fieldEventStartDate,
	fieldEventEndDate,
	fieldCertificateNumber,
}

// columnMap holds the resolved column index per logical field, -1 if the
// header row contains no matching column.
type columnMap map[string]int

// normalizeHeader lowercases a header cell and strips all whitespace.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), ""))
}

// resolveColumns maps each logical field to the first matching header
// column, left to right. A field with no matching header resolves to -1,
// which makes every row effectively miss that field's value.
func resolveColumns(header []string) columnMap {
	cols := make(columnMap, len(fieldOrder))
	for _, f := range fieldOrder {
		cols[f] = -1
	}

	for idx, h := range header {
		n := normalizeHeader(h)
		if n == "" {
			continue
		}
		for _, f := range fieldOrder {
			if cols[f] != -1 {
				continue
			}
			for _, alias := range headerAliases[f] {
				if n == alias {
					cols[f] = idx
					break
				}
			}
		}
	}
	return cols
}

// cellAt returns the trimmed cell for a resolved column, or "" when the
// column is unmapped or the row is short.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
