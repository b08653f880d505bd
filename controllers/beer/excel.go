package beerControllers

import (
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"

	"github.com/Dema10/beerproject/controllers/respond"
	"github.com/Dema10/beerproject/middleware"
	"github.com/Dema10/beerproject/models"
	"github.com/Dema10/beerproject/workflow"
)

// Column order shared by export and import. Import reads the first six.
var sheetHeaders = []string{
	"ID", "Name", "Style", "ABV", "Price", "Quantity",
	"InProduction", "CreatedAt", "UpdatedAt",
}

// GET /admin/inventory/export
func ExportInventory(svc *workflow.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		beers, err := svc.Export(c.Request.Context(), middleware.Identity(c))
		if err != nil {
			respond.Error(c, "export inventory", err)
			return
		}

		file, err := buildSheet(beers)
		if err != nil {
			respond.Error(c, "export inventory", err)
			return
		}

		// Set response headers for download
		c.Header("Content-Disposition", "attachment; filename=inventory.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			respond.Error(c, "write inventory sheet", err)
			return
		}
	}
}

// POST /admin/inventory/import (multipart field "file")
func ImportInventory(svc *workflow.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Excel file is required"})
			return
		}

		file, err := header.Open()
		if err != nil {
			respond.Error(c, "open inventory sheet", err)
			return
		}
		defer file.Close()

		rows, skipped, err := readSheet(file, header.Size)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}

		result, err := svc.Import(c.Request.Context(), middleware.Identity(c), rows)
		if err != nil {
			respond.Error(c, "import inventory", err)
			return
		}
		result.Skipped += skipped

		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": result.Created,
			"updated_count": result.Updated,
			"skipped_count": result.Skipped,
		})
	}
}

func buildSheet(beers []models.Beer) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Inventory")
	if err != nil {
		return nil, err
	}

	headerRow := sheet.AddRow()
	for _, h := range sheetHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, b := range beers {
		row := sheet.AddRow()
		row.AddCell().SetValue(b.ID)
		row.AddCell().SetValue(b.Name)
		row.AddCell().SetValue(b.Style)
		row.AddCell().SetValue(b.ABV)
		row.AddCell().SetString(b.Price.StringFixed(2))
		row.AddCell().SetValue(b.Quantity)
		row.AddCell().SetValue(strconv.FormatBool(b.InProduction))
		row.AddCell().SetValue(b.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(b.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return file, nil
}

type errSheet string

func (e errSheet) Error() string { return string(e) }

// readSheet parses the first sheet. Rows without a name or with an
// unreadable price or quantity are counted in skipped.
func readSheet(r io.ReaderAt, size int64) (rows []models.Beer, skipped int, err error) {
	xlFile, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return nil, 0, errSheet("Failed to parse Excel file")
	}
	if len(xlFile.Sheets) == 0 || xlFile.Sheets[0].MaxRow < 2 {
		return nil, 0, errSheet("Excel file is empty or missing header row")
	}

	sheet := xlFile.Sheets[0]
	for i := 1; i < sheet.MaxRow && i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		if row == nil {
			continue
		}
		get := func(index int) string {
			if index < len(row.Cells) {
				return strings.TrimSpace(row.Cells[index].String())
			}
			return ""
		}
		if get(0) == "" && get(1) == "" {
			continue
		}

		price, err1 := decimal.NewFromString(get(4))
		quantity, ok := parseQuantity(get(5))
		abv, _ := strconv.ParseFloat(get(3), 64)
		if get(1) == "" || err1 != nil || !ok {
			skipped++
			continue
		}

		rows = append(rows, models.Beer{
			ID:       get(0),
			Name:     get(1),
			Style:    get(2),
			ABV:      abv,
			Price:    price,
			Quantity: quantity,
		})
	}
	return rows, skipped, nil
}

// parseQuantity accepts whole numbers that fit a 32-bit int. Numeric cells
// may come back as "5" or "5.0"; fractions, NaN and huge values are rejected.
func parseQuantity(s string) (int, bool) {
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
