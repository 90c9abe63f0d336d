// Package export writes admin listings as spreadsheets.
package export

import (
	"io"
	"strings"
	"time"

	"github.com/tealeg/xlsx"

	"freshbasket/internal/domain"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var productHeaders = []string{
	"ID", "SKU", "Name", "Brand", "Category", "MRP", "Selling Price", "Discount %",
	"GST %", "Stock", "Stock Status", "Variants", "Tags", "Active", "Featured", "Updated",
}

// Products writes one sheet with a header row and one row per product.
func Products(w io.Writer, products []domain.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return err
	}
	header := sheet.AddRow()
	for _, h := range productHeaders {
		header.AddCell().SetString(h)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID)
		row.AddCell().SetString(p.SKU)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Brand)
		category := p.Category.Name
		if category == "" {
			category = p.Category.ID
		}
		row.AddCell().SetString(category)
		row.AddCell().SetFloat(p.Pricing.MRP)
		row.AddCell().SetFloat(p.Pricing.SellingPrice)
		row.AddCell().SetFloat(p.Pricing.DiscountPercent)
		row.AddCell().SetFloat(p.Tax.GSTRate)
		row.AddCell().SetInt(p.Stock.Quantity)
		row.AddCell().SetString(p.Stock.Status)
		row.AddCell().SetString(variants(p.Variants))
		row.AddCell().SetString(strings.Join(p.Tags, ", "))
		row.AddCell().SetBool(p.IsActive)
		row.AddCell().SetBool(p.IsFeatured)
		updated := ""
		if p.UpdatedAt != nil {
			updated = p.UpdatedAt.Format(time.DateTime)
		}
		row.AddCell().SetString(updated)
	}
	return file.Write(w)
}

func variants(vs []domain.Variant) string {
	labels := make([]string, 0, len(vs))
	for _, v := range vs {
		labels = append(labels, v.Label)
	}
	return strings.Join(labels, ", ")
}

// Filename is the download name for an export taken at t.
func Filename(t time.Time) string {
	return "products-" + t.Format("20060102-150405") + ".xlsx"
}
