package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SeatList is an ordered list of seat codes.  It is persisted as a JSON
// array in a single text column and decodes back to the same elements in
// the same order.
type SeatList []string

// Value implements driver.Valuer.  A nil list is stored as "[]".
func (l SeatList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *SeatList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = SeatList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into SeatList", src)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		*l = SeatList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode seat list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// Contains reports whether code is an element of the list.  Matching is
// exact: "A1" does not match "A10".
func (l SeatList) Contains(code string) bool {
	for _, s := range l {
		if s == code {
			return true
		}
	}
	return false
}

// Duplicates returns the codes that appear more than once, in first-repeat order.
func (l SeatList) Duplicates() []string {
	seen := make(map[string]int, len(l))
	var dup []string
	for _, s := range l {
		seen[s]++
		if seen[s] == 2 {
			dup = append(dup, s)
		}
	}
	return dup
}

// SeatLine is one row of a theater's seat layout: a row label and the
// seat numbers that exist in that row.
type SeatLine struct {
	ID      string `json:"id"`      // seats.id
	Line    string `json:"line"`    // seats.line (row label)
	Numbers []int  `json:"numbers"` // seats.rows (JSON array)
}

// Codes expands the line into seat codes, e.g. line "B" with numbers
// [1 2] gives ["B1" "B2"].
func (s SeatLine) Codes() []string {
	out := make([]string, 0, len(s.Numbers))
	for _, n := range s.Numbers {
		out = append(out, s.Line+strconv.Itoa(n))
	}
	return out
}

// SeatLayout is the full set of seat lines for a theater.
type SeatLayout []SeatLine

// Has reports whether code names a seat in the layout.  Only the
// canonical spelling matches: "A1" is a seat, "A01" and "A+1" are not.
func (l SeatLayout) Has(code string) bool {
	for _, line := range l {
		if !strings.HasPrefix(code, line.Line) {
			continue
		}
		n, err := strconv.Atoi(code[len(line.Line):])
		if err != nil {
			continue
		}
		if code != line.Line+strconv.Itoa(n) {
			continue
		}
		for _, m := range line.Numbers {
			if m == n {
				return true
			}
		}
	}
	return false
}

// ValidSeatCode reports whether code is a canonical seat code: an
// upper-case row label of letters followed by a positive seat number with
// no sign or leading zeros, e.g. "A1" or "AA12".  Each physical seat has
// exactly one valid spelling.
func ValidSeatCode(code string) bool {
	i := 0
	for i < len(code) && code[i] >= 'A' && code[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(code) || code[i] == '0' {
		return false
	}
	for _, r := range code[i:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
