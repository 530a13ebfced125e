package transport

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dscatalog/internal/dto"
	"dscatalog/internal/middleware"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const (
	exportSheet       = "Products"
	exportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportDateFormat  = "2006-01-02 15:04:05"

	headerStyle = `{
		"border": [
			{"type": "left", "color": "#000000", "style": 1},
			{"type": "top", "color": "#000000", "style": 1},
			{"type": "right", "color": "#000000", "style": 1},
			{"type": "bottom", "color": "#000000", "style": 1}
		],
		"fill": {"type": "pattern", "pattern": 1, "color": ["#96b753"]},
		"font": {"bold": true},
		"alignment": {"horizontal": "center"}
	}`
	dataStyle = `{
		"border": [
			{"type": "left", "color": "#000000", "style": 1},
			{"type": "top", "color": "#000000", "style": 1},
			{"type": "right", "color": "#000000", "style": 1},
			{"type": "bottom", "color": "#000000", "style": 1}
		],
		"alignment": {"wrap_text": true, "vertical": "top"}
	}`
)

var exportHeader = []string{"ID", "Name", "Description", "Price", "Price (formatted)", "Date", "Categories"}

// Export handles GET /products/export. It writes every product matching the
// same filter as the listing into a single-sheet workbook.
func (h *ProductHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	sort, err := parseSort(r.URL.Query().Get("sort"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	products, err := h.productService.FindAllMatching(r.Context(), filter, sort)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	// render fully before writing headers so a failure can still be
	// reported as JSON
	var buf bytes.Buffer
	if err := writeProductWorkbook(&buf, products); err != nil {
		h.logger.Error("Failed to build product export", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to build export")
		return
	}

	fileName := fmt.Sprintf("products_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", exportContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Failed to write product export", zap.Error(err))
		return
	}

	h.logger.Info("Products exported", zap.Int("rows", len(products)))
}

func writeProductWorkbook(buf *bytes.Buffer, products []dto.ProductDetail) error {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", exportSheet)

	if err := f.SetColWidth(exportSheet, "A", "A", 8); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "B", "G", 30); err != nil {
		return err
	}

	header, err := f.NewStyle(headerStyle)
	if err != nil {
		return err
	}
	data, err := f.NewStyle(dataStyle)
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return err
	}

	headerRow := make([]interface{}, len(exportHeader))
	for i, title := range exportHeader {
		headerRow[i] = excelize.Cell{StyleID: header, Value: title}
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return err
	}

	for n, p := range products {
		price, _ := p.Price.Float64()

		names := make([]string, len(p.Categories))
		for i, c := range p.Categories {
			names[i] = c.Name
		}

		row := []interface{}{
			excelize.Cell{StyleID: data, Value: p.ID},
			excelize.Cell{StyleID: data, Value: p.Name},
			excelize.Cell{StyleID: data, Value: p.Description},
			excelize.Cell{StyleID: data, Value: price},
			excelize.Cell{StyleID: data, Value: formatPrice(p)},
			excelize.Cell{StyleID: data, Value: p.Date.UTC().Format(exportDateFormat)},
			excelize.Cell{StyleID: data, Value: strings.Join(names, ", ")},
		}

		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	_, err = f.WriteTo(buf)
	return err
}

func formatPrice(p dto.ProductDetail) string {
	price, _ := p.Price.Round(2).Float64()
	return "$" + humanize.FormatFloat("#,###.##", price)
}
