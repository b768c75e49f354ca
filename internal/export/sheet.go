package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/stacklok/phone-registry-server/internal/service"
)

const (
	colorHeader      = "366092"
	colorSection     = "D9E1F2"
	colorAltRow      = "F2F2F2"
	colorDocument    = "E7E6E6"
	colorInstruction = "FFF2CC"
)

// requirement payload shapes, as returned by the provider
type detailedField struct {
	FriendlyName string `json:"friendly_name"`
	MachineName  string `json:"machine_name"`
	Description  string `json:"description"`
}

func (d detailedField) label() string {
	if d.FriendlyName != "" {
		return d.FriendlyName
	}
	return d.MachineName
}

type endUserRequirement struct {
	DetailedFields []detailedField `json:"detailed_fields"`
}

type acceptedDocument struct {
	Name           string          `json:"name"`
	DetailedFields []detailedField `json:"detailed_fields"`
}

type supportingDocument struct {
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	AcceptedDocuments []acceptedDocument `json:"accepted_documents"`
}

type requirements struct {
	EndUser            []endUserRequirement `json:"end_user"`
	SupportingDocument []json.RawMessage    `json:"supporting_document"`
}

// supportingDocuments flattens the supporting document list, whose entries
// are either documents or lists of documents
func (r requirements) supportingDocuments() []supportingDocument {
	var docs []supportingDocument
	for _, raw := range r.SupportingDocument {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var group []supportingDocument
			if err := json.Unmarshal(trimmed, &group); err == nil {
				docs = append(docs, group...)
			}
			continue
		}
		var doc supportingDocument
		if err := json.Unmarshal(trimmed, &doc); err == nil {
			docs = append(docs, doc)
		}
	}
	return docs
}

func parseRequirements(sid string, raw json.RawMessage) requirements {
	var req requirements
	if len(raw) == 0 {
		return req
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		slog.Debug("Ignoring unreadable regulation requirements", "sid", sid, "error", err)
		return requirements{}
	}
	return req
}

// styles holds the style ids shared by every sheet of a workbook
type styles struct {
	title       int
	info        int
	updated     int
	section     int
	tableHeader int
	fieldName   [2]int
	description [2]int
	value       [2]int
	document    int
	docDesc     int
	instruction int
	accepted    int
	subHeader   int
	noFields    int
}

func newStyles(f *excelize.File) (*styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}
	centered := &excelize.Alignment{Horizontal: "left", Vertical: "center"}
	wrapped := &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true}

	st := &styles{}
	defs := []struct {
		target *int
		style  *excelize.Style
	}{
		{&st.title, &excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"}, Fill: fill(colorHeader), Alignment: centered}},
		{&st.info, &excelize.Style{Font: &excelize.Font{Size: 10}, Alignment: centered}},
		{&st.updated, &excelize.Style{Font: &excelize.Font{Size: 9, Italic: true}, Alignment: centered}},
		{&st.section, &excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 11}, Fill: fill(colorSection), Alignment: centered, Border: border}},
		{&st.tableHeader, &excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"}, Fill: fill(colorHeader), Alignment: centered, Border: border}},
		{&st.fieldName[0], &excelize.Style{Font: &excelize.Font{Size: 10}, Alignment: wrapped, Border: border}},
		{&st.fieldName[1], &excelize.Style{Font: &excelize.Font{Size: 10}, Fill: fill(colorAltRow), Alignment: wrapped, Border: border}},
		{&st.description[0], &excelize.Style{Font: &excelize.Font{Size: 9, Italic: true}, Alignment: wrapped, Border: border}},
		{&st.description[1], &excelize.Style{
			Font: &excelize.Font{Size: 9, Italic: true}, Fill: fill(colorAltRow), Alignment: wrapped, Border: border}},
		{&st.value[0], &excelize.Style{Font: &excelize.Font{Size: 10}, Alignment: wrapped, Border: border}},
		{&st.value[1], &excelize.Style{Font: &excelize.Font{Size: 10}, Fill: fill(colorAltRow), Alignment: wrapped, Border: border}},
		{&st.document, &excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 11}, Fill: fill(colorDocument), Alignment: centered, Border: border}},
		{&st.docDesc, &excelize.Style{
			Font:      &excelize.Font{Size: 9, Italic: true},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true}}},
		{&st.instruction, &excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 10, Italic: true}, Fill: fill(colorInstruction), Alignment: centered, Border: border}},
		{&st.accepted, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 10}, Alignment: centered}},
		{&st.subHeader, &excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 9}, Fill: fill(colorAltRow), Alignment: centered, Border: border}},
		{&st.noFields, &excelize.Style{Font: &excelize.Font{Size: 9, Italic: true}, Alignment: centered}},
	}

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("failed to create style: %w", err)
		}
		*d.target = id
	}
	return st, nil
}

// sheetWriter appends rows to one worksheet
type sheetWriter struct {
	f     *excelize.File
	st    *styles
	sheet string
	row   int
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func (w *sheetWriter) set(col string, value any, style int) error {
	ref := cell(col, w.row)
	if err := w.f.SetCellValue(w.sheet, ref, value); err != nil {
		return err
	}
	return w.f.SetCellStyle(w.sheet, ref, ref, style)
}

// merged writes value into a merged A:C row and advances to the next row
func (w *sheetWriter) merged(value string, style int) error {
	start, end := cell("A", w.row), cell("C", w.row)
	if err := w.f.MergeCell(w.sheet, start, end); err != nil {
		return err
	}
	if err := w.f.SetCellValue(w.sheet, start, value); err != nil {
		return err
	}
	if err := w.f.SetCellStyle(w.sheet, start, end, style); err != nil {
		return err
	}
	w.row++
	return nil
}

func writeRegulationSheet(f *excelize.File, st *styles, sheet string, reg service.Regulation) error {
	w := &sheetWriter{f: f, st: st, sheet: sheet, row: 1}

	title := defaultSheetName
	if reg.FriendlyName != nil && *reg.FriendlyName != "" {
		title = *reg.FriendlyName
	}
	if err := w.merged(title, st.title); err != nil {
		return err
	}
	if err := w.merged(infoLine(reg), st.info); err != nil {
		return err
	}
	updated := "Last Updated: N/A"
	if !reg.LastUpdated.IsZero() {
		updated = "Last Updated: " + reg.LastUpdated.Format(timeLayout)
	}
	if err := w.merged(updated, st.updated); err != nil {
		return err
	}
	w.row++

	req := parseRequirements(reg.Sid, reg.Requirements)
	if err := w.requiredInformation(req.EndUser); err != nil {
		return err
	}
	if err := w.requiredDocuments(req.supportingDocuments()); err != nil {
		return err
	}

	if err := f.SetColWidth(sheet, "A", "A", 35); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 50); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", "C", 30); err != nil {
		return err
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      3,
		TopLeftCell: "A4",
		ActivePane:  "bottomLeft",
	})
}

func infoLine(reg service.Regulation) string {
	var parts []string
	if reg.IsoCountry != nil && *reg.IsoCountry != "" {
		parts = append(parts, "Country: "+*reg.IsoCountry)
	}
	if reg.NumberType != nil && *reg.NumberType != "" {
		parts = append(parts, "Number Type: "+*reg.NumberType)
	}
	if reg.EndUserType != "" {
		parts = append(parts, "End User Type: "+reg.EndUserType)
	}
	if len(parts) == 0 {
		return "Regulation Information"
	}
	return strings.Join(parts, " | ")
}

func (w *sheetWriter) requiredInformation(endUser []endUserRequirement) error {
	if len(endUser) == 0 {
		return nil
	}

	if err := w.merged("Required Information", w.st.section); err != nil {
		return err
	}
	headers := []struct{ col, title string }{{"A", "Field Name"}, {"B", "Description"}, {"C", "Value"}}
	for _, h := range headers {
		if err := w.set(h.col, h.title, w.st.tableHeader); err != nil {
			return err
		}
	}
	w.row++

	for _, req := range endUser {
		for idx, field := range req.DetailedFields {
			alt := idx % 2
			if err := w.set("A", field.label(), w.st.fieldName[alt]); err != nil {
				return err
			}
			if err := w.set("B", field.Description, w.st.description[alt]); err != nil {
				return err
			}
			if err := w.set("C", "", w.st.value[alt]); err != nil {
				return err
			}
			w.row++
		}
	}
	w.row++
	return nil
}

func (w *sheetWriter) requiredDocuments(docs []supportingDocument) error {
	if len(docs) == 0 {
		return nil
	}

	if err := w.merged("Required Documents", w.st.section); err != nil {
		return err
	}

	for _, doc := range docs {
		name := doc.Name
		if name == "" {
			name = "Document Requirement"
		}
		if err := w.merged(name, w.st.document); err != nil {
			return err
		}
		if doc.Description != "" {
			if err := w.merged(doc.Description, w.st.docDesc); err != nil {
				return err
			}
		}

		if len(doc.AcceptedDocuments) > 1 {
			if err := w.merged("Choose ONE of the following document types:", w.st.instruction); err != nil {
				return err
			}
		}
		for _, accepted := range doc.AcceptedDocuments {
			if err := w.acceptedDocument(accepted); err != nil {
				return err
			}
		}
		w.row++
	}
	return nil
}

func (w *sheetWriter) acceptedDocument(doc acceptedDocument) error {
	name := doc.Name
	if name == "" {
		name = "Document"
	}
	if err := w.merged("  Accepted: "+name, w.st.accepted); err != nil {
		return err
	}

	if len(doc.DetailedFields) == 0 {
		return w.merged("  (No specific fields required)", w.st.noFields)
	}

	if err := w.set("A", "Field Name", w.st.subHeader); err != nil {
		return err
	}
	w.row++
	for idx, field := range doc.DetailedFields {
		if err := w.set("A", field.label(), w.st.fieldName[idx%2]); err != nil {
			return err
		}
		w.row++
	}
	return nil
}
