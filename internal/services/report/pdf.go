package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	pageWidth   = 190.0 // A4 width minus margins
	bodySize    = 9.0
	bodyLine    = 5.0
	tableSize   = 8.0
	tableLine   = 4.0
	maxCellRows = 10
)

// markdownToPDF lays out goldmark's AST onto an A4 page. An optional JPEG
// data URL is placed above the content.
func markdownToPDF(markdown, title, imageDataURL string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("GreatTrades", true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont("Arial", "", bodySize)

	if imageDataURL != "" {
		if err := placeImage(pdf, imageDataURL); err != nil {
			return nil, err
		}
	}

	source := []byte(markdown)
	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	doc := md.Parser().Parse(text.NewReader(source))

	w := &pdfWriter{
		pdf:        pdf,
		source:     source,
		tr:         pdf.UnicodeTranslatorFromDescriptor(""),
		size:       bodySize,
		lineHeight: bodyLine,
	}
	if err := ast.Walk(doc, w.walk); err != nil {
		return nil, fmt.Errorf("failed to lay out report: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func placeImage(pdf *fpdf.Fpdf, dataURL string) error {
	comma := strings.IndexByte(dataURL, ',')
	if !strings.HasPrefix(dataURL, "data:image/jpeg;base64,") || comma < 0 {
		return fmt.Errorf("unsupported thumbnail data URL")
	}
	data, err := base64.StdEncoding.DecodeString(dataURL[comma+1:])
	if err != nil {
		return fmt.Errorf("failed to decode thumbnail: %w", err)
	}

	options := fpdf.ImageOptions{ImageType: "JPEG", ReadDpi: false}
	info := pdf.RegisterImageOptionsReader("thumbnail", options, bytes.NewReader(data))
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to register thumbnail: %w", err)
	}

	width := 40.0
	if info != nil && info.Width() > 0 && info.Width() < info.Height() {
		width = 40.0 * info.Width() / info.Height()
	}
	pdf.ImageOptions("thumbnail", 10, pdf.GetY(), width, 0, true, options, 0, "")
	pdf.Ln(4)
	return nil
}

type pdfWriter struct {
	pdf        *fpdf.Fpdf
	source     []byte
	tr         func(string) string
	size       float64
	lineHeight float64
	bold       bool
	italic     bool
	lists      []int // next ordinal per open list, 0 for bullet lists
}

func (w *pdfWriter) applyFont() {
	style := ""
	if w.bold {
		style += "B"
	}
	if w.italic {
		style += "I"
	}
	w.pdf.SetFont("Arial", style, w.size)
}

func (w *pdfWriter) write(s string) {
	w.pdf.Write(w.lineHeight, w.tr(s))
}

func (w *pdfWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		w.heading(node, entering)
	case *ast.Paragraph:
		if !entering {
			w.pdf.Ln(w.lineHeight + 2)
		}
	case *ast.Text:
		if entering {
			w.write(string(node.Segment.Value(w.source)))
			if node.SoftLineBreak() || node.HardLineBreak() {
				w.write(" ")
			}
		}
	case *ast.String:
		if entering {
			w.write(string(node.Value))
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			w.bold = entering
		} else {
			w.italic = entering
		}
		w.applyFont()
	case *ast.CodeSpan:
		if entering {
			w.pdf.SetFont("Courier", "", w.size)
			w.write(string(node.Text(w.source)))
			w.applyFont()
		}
		return ast.WalkSkipChildren, nil
	case *ast.List:
		w.list(node, entering)
	case *ast.ListItem:
		if entering {
			w.listItem()
		}
	case *ast.ThematicBreak:
		if entering {
			w.pdf.Ln(2)
			w.pdf.Line(10, w.pdf.GetY(), 10+pageWidth, w.pdf.GetY())
			w.pdf.Ln(2)
		}
	case *extast.Table:
		if entering {
			w.table(node)
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (w *pdfWriter) heading(n *ast.Heading, entering bool) {
	if !entering {
		w.pdf.Ln(w.lineHeight + 2)
		w.size, w.lineHeight, w.bold = bodySize, bodyLine, false
		w.applyFont()
		return
	}

	w.pdf.Ln(3)
	switch n.Level {
	case 1:
		w.size, w.lineHeight = 16, 8
	case 2:
		w.size, w.lineHeight = 12, 6
	default:
		w.size, w.lineHeight = 10, 5
	}
	w.bold = true
	w.applyFont()
}

func (w *pdfWriter) list(n *ast.List, entering bool) {
	if entering {
		next := 0
		if n.IsOrdered() {
			next = n.Start
		}
		w.lists = append(w.lists, next)
		return
	}
	w.lists = w.lists[:len(w.lists)-1]
	if len(w.lists) == 0 {
		w.pdf.Ln(w.lineHeight + 2)
	}
}

func (w *pdfWriter) listItem() {
	if w.pdf.GetX() > 11 {
		w.pdf.Ln(w.lineHeight)
	}
	depth := len(w.lists)
	w.pdf.SetX(10 + float64(depth)*5)

	marker := "- "
	if top := &w.lists[depth-1]; *top > 0 {
		marker = strconv.Itoa(*top) + ". "
		*top++
	}
	w.write(marker)
}

func (w *pdfWriter) table(n *extast.Table) {
	var rows [][]string
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, w.tr(string(cell.Text(w.source))))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	widths := w.columnWidths(rows)
	w.pdf.Ln(1)

	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		w.pdf.SetFont("Arial", style, tableSize)

		wrapped := make([][]string, len(widths))
		lines := 1
		for j := range widths {
			if j < len(row) {
				wrapped[j] = w.pdf.SplitText(row[j], widths[j]-2)
			}
			if len(wrapped[j]) > maxCellRows {
				wrapped[j] = wrapped[j][:maxCellRows]
			}
			if len(wrapped[j]) > lines {
				lines = len(wrapped[j])
			}
		}

		height := float64(lines)*tableLine + 2
		_, pageHeight := w.pdf.GetPageSize()
		if w.pdf.GetY()+height > pageHeight-10 {
			w.pdf.AddPage()
		}

		x, y := 10.0, w.pdf.GetY()
		for j, width := range widths {
			if i == 0 {
				w.pdf.SetFillColor(230, 230, 230)
				w.pdf.Rect(x, y, width, height, "FD")
			} else {
				w.pdf.Rect(x, y, width, height, "D")
			}
			for k, line := range wrapped[j] {
				w.pdf.SetXY(x+1, y+1+float64(k)*tableLine)
				w.pdf.CellFormat(width-2, tableLine, line, "", 0, "L", false, 0, "")
			}
			x += width
		}
		w.pdf.SetXY(10, y+height)
	}

	w.pdf.Ln(3)
	w.applyFont()
}

// columnWidths sizes columns by their widest cell, then scales to the page
func (w *pdfWriter) columnWidths(rows [][]string) []float64 {
	cols := len(rows[0])
	widths := make([]float64, cols)

	w.pdf.SetFont("Arial", "B", tableSize)
	for _, row := range rows {
		for j := 0; j < cols && j < len(row); j++ {
			if width := w.pdf.GetStringWidth(row[j]) + 4; width > widths[j] {
				widths[j] = width
			}
		}
	}

	total := 0.0
	for j := range widths {
		if widths[j] < 15 {
			widths[j] = 15
		}
		total += widths[j]
	}
	scale := pageWidth / total
	for j := range widths {
		widths[j] *= scale
	}
	return widths
}
