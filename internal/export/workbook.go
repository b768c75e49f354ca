// Package export renders stored regulations as an xlsx workbook with one
// worksheet per regulation
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/stacklok/phone-registry-server/internal/service"
)

const (
	// ContentType is the media type of the rendered workbook
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// maxSheetName is the Excel limit on worksheet name length
	maxSheetName = 31

	defaultSheetName = "Unnamed Regulation"
	timeLayout       = "2006-01-02 15:04:05"
)

// ErrNoRegulations is returned when asked to render an empty workbook
var ErrNoRegulations = errors.New("no regulations to export")

var sheetNameReplacer = strings.NewReplacer(
	`\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_", ":", "_",
)

// RegulationsWorkbook builds a workbook with one sheet per regulation. The
// caller must Close the returned file.
func RegulationsWorkbook(regulations []service.Regulation) (*excelize.File, error) {
	if len(regulations) == 0 {
		return nil, ErrNoRegulations
	}

	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	defaultSheet := f.GetSheetName(0)
	names := newSheetNames()
	for i, reg := range regulations {
		name := names.next(reg.FriendlyName)
		if i == 0 {
			// Reuse the default sheet so the workbook never holds an empty one
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("failed to rename default sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create sheet %q: %w", name, err)
		}

		if err := writeRegulationSheet(f, st, name, reg); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to render regulation %s: %w", reg.Sid, err)
		}
	}
	f.SetActiveSheet(0)

	return f, nil
}

// WriteTo renders regulations and writes the workbook to w
func WriteTo(w io.Writer, regulations []service.Regulation) error {
	f, err := RegulationsWorkbook(regulations)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// sheetNames hands out unique, valid worksheet names. Excel compares sheet
// names case-insensitively.
type sheetNames struct {
	used map[string]struct{}
}

func newSheetNames() *sheetNames {
	return &sheetNames{used: make(map[string]struct{})}
}

func (s *sheetNames) next(friendlyName *string) string {
	base := SheetName(friendlyName)
	name := base
	for n := 2; s.taken(name); n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	s.used[strings.ToLower(name)] = struct{}{}
	return name
}

func (s *sheetNames) taken(name string) bool {
	_, ok := s.used[strings.ToLower(name)]
	return ok
}

// SheetName derives a valid worksheet name from a regulation friendly name
func SheetName(friendlyName *string) string {
	name := defaultSheetName
	if friendlyName != nil && strings.TrimSpace(*friendlyName) != "" {
		name = *friendlyName
	}
	name = truncate(name, maxSheetName)
	name = sheetNameReplacer.Replace(name)
	// Excel rejects names that start or end with an apostrophe
	if strings.HasPrefix(name, "'") {
		name = "_" + name[1:]
	}
	if strings.HasSuffix(name, "'") {
		name = name[:len(name)-1] + "_"
	}
	return name
}

// truncate cuts s to at most n characters without splitting a rune
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
