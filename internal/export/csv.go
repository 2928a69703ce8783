package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"internscan-engine/internal/domain"
)

// WriteCSV writes a header row of cols and one row per position. A nil
// cols means Columns(ps).
func WriteCSV(w io.Writer, ps []domain.Position, cols []string) error {
	if cols == nil {
		cols = Columns(ps)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for _, p := range ps {
		for i, c := range cols {
			row[i] = p.Field(c)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a file produced by WriteCSV back into positions. Empty
// extra cells are dropped.
func ReadCSV(r io.Reader) ([]domain.Position, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var out []domain.Position
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(out)+2, err)
		}
		var p domain.Position
		for i, v := range rec {
			switch header[i] {
			case domain.FieldCompany:
				p.Company = v
			case domain.FieldRole:
				p.Role = v
			case domain.FieldLocation:
				p.Location = v
			case domain.FieldApplication:
				p.Application = v
			case domain.FieldStatus:
				p.Status = v
			case domain.FieldDateToken:
				p.DateToken = v
			case domain.FieldSourceRepo:
				p.SourceRepo = v
			default:
				if v == "" {
					continue
				}
				if p.Extra == nil {
					p.Extra = map[string]string{}
				}
				p.Extra[header[i]] = v
			}
		}
		out = append(out, p)
	}
}
