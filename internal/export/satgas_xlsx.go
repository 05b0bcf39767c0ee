// Package export renders satgas search results as an xlsx workbook.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"satgas-data/internal/service"
)

const SatgasSheet = "Satgas"

type column struct {
	header string
	width  float64
	value  func(s *service.SatgasDTO) any
}

var satgasColumns = []column{
	{"ID", 8, func(s *service.SatgasDTO) any { return s.ID }},
	{"Nama", 25, func(s *service.SatgasDTO) any { return s.FullName }},
	{"No. HP", 16, func(s *service.SatgasDTO) any { return s.PhoneNum }},
	{"Email", 25, func(s *service.SatgasDTO) any { return s.Email }},
	{"Desa", 20, func(s *service.SatgasDTO) any { return s.Village }},
	{"Kecamatan", 20, func(s *service.SatgasDTO) any { return s.District }},
	{"Kota/Kabupaten", 20, func(s *service.SatgasDTO) any { return s.CityName }},
	{"Provinsi", 20, func(s *service.SatgasDTO) any { return s.Province }},
	{"Kode Area", 10, func(s *service.SatgasDTO) any { return s.AreaCode }},
	{"Medis", 8, func(s *service.SatgasDTO) any { return yesNo(s.IsMedic) }},
	{"Diblokir", 10, func(s *service.SatgasDTO) any { return yesNo(s.Blocked) }},
	{"Terdaftar", 20, func(s *service.SatgasDTO) any { return s.RegisterTime }},
}

// SatgasHeader column titles in sheet order.
func SatgasHeader() []string {
	out := make([]string, len(satgasColumns))
	for i, c := range satgasColumns {
		out[i] = c.header
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "Ya"
	}
	return "Tidak"
}

// GenerateSatgasExport one header row followed by one row per entry.
func GenerateSatgasExport(entries []*service.SatgasDTO) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SatgasSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, c := range satgasColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(SatgasSheet, cell, c.header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(SatgasSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(SatgasSheet, col, col, c.width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for r, s := range entries {
		row := r + 2
		for i, c := range satgasColumns {
			v := c.value(s)
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(SatgasSheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(SatgasSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
