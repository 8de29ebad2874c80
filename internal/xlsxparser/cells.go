package xlsxparser

import (
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// formatKind is what a number format says about the value it displays.
type formatKind int

const (
	formatNumber formatKind = iota
	formatDate
	formatTime
)

// Built-in number format ids that display dates or times.
var builtinFormatKinds = map[int]formatKind{
	14: formatDate, 15: formatDate, 16: formatDate, 17: formatDate, 22: formatDate,
	18: formatTime, 19: formatTime, 20: formatTime, 21: formatTime,
	45: formatTime, 46: formatTime, 47: formatTime,
	27: formatDate, 28: formatDate, 29: formatDate, 30: formatDate, 31: formatDate,
	32: formatTime, 33: formatTime, 34: formatTime, 35: formatTime, 36: formatDate,
	50: formatDate, 51: formatDate, 52: formatDate, 53: formatDate, 54: formatDate,
	55: formatDate, 56: formatDate, 57: formatDate, 58: formatDate,
}

// cellRenderer rewrites date and time serials of one sheet as ISO text.
type cellRenderer struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	kinds    map[int]formatKind
}

func newCellRenderer(f *excelize.File, sheet string) *cellRenderer {
	r := &cellRenderer{f: f, sheet: sheet, kinds: make(map[int]formatKind)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}
	return r
}

// renderDates replaces, in place, every numeric cell whose style is a date
// or time format. Other cells are left as stored.
func (r *cellRenderer) renderDates(rows [][]string) error {
	for i, row := range rows {
		for j, v := range row {
			serial, err := strconv.ParseFloat(v, 64)
			if err != nil || serial < 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
				continue
			}

			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			kind, err := r.kindOf(cell)
			if err != nil {
				return err
			}
			if kind == formatNumber {
				continue
			}

			t, err := excelize.ExcelDateToTime(serial, r.date1904)
			if err != nil {
				continue
			}
			switch {
			case kind == formatTime:
				row[j] = t.Format("15:04:05")
			case serial == float64(int64(serial)):
				row[j] = t.Format("2006-01-02")
			default:
				row[j] = t.Format("2006-01-02 15:04:05")
			}
		}
	}
	return nil
}

func (r *cellRenderer) kindOf(cell string) (formatKind, error) {
	idx, err := r.f.GetCellStyle(r.sheet, cell)
	if err != nil {
		return formatNumber, err
	}
	if kind, ok := r.kinds[idx]; ok {
		return kind, nil
	}

	kind := formatNumber
	if style, err := r.f.GetStyle(idx); err == nil {
		kind = styleKind(style)
	}
	r.kinds[idx] = kind
	return kind, nil
}

func styleKind(style *excelize.Style) formatKind {
	if style.CustomNumFmt != nil {
		return classifyFormat(*style.CustomNumFmt)
	}
	return builtinFormatKinds[style.NumFmt]
}

// classifyFormat inspects the first section of a format code. Quoted text,
// escaped characters and bracketed modifiers are ignored, except the
// elapsed-time brackets [h], [mm] and [ss].
func classifyFormat(code string) formatKind {
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		case ch == '[':
			end := strings.IndexByte(code[i:], ']')
			if end < 0 {
				i = len(code)
				break
			}
			if inner := strings.ToLower(code[i+1 : i+end]); strings.Trim(inner, "hms") == "" {
				b.WriteByte('h')
			}
			i += end
		case ch == ';':
			i = len(code)
		default:
			b.WriteByte(ch)
		}
	}

	s := strings.ToLower(b.String())
	switch {
	case s == "general":
		return formatNumber
	case strings.ContainsAny(s, "yd"):
		return formatDate
	case strings.ContainsAny(s, "hs"):
		return formatTime
	case strings.Contains(s, "m"):
		return formatDate
	}
	return formatNumber
}
