package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cardapio/internal/logging"
	"cardapio/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const ordersSheet = "Pedidos"

var orderHeaders = []string{
	"Número", "Data", "Cliente", "Telefone", "Endereço", "Itens", "Pagamento", "Troco", "Status", "Total",
}

// OrdersExporter writes order listings as xlsx files under a directory.
type OrdersExporter struct {
	dir    string
	logger *zerolog.Logger
	now    func() time.Time
}

func NewOrdersExporter(dir string, logger *zerolog.Logger) *OrdersExporter {
	return &OrdersExporter{
		dir:    dir,
		logger: logging.Component(logger, "export"),
		now:    time.Now,
	}
}

// Export saves orders to a new workbook and returns its path.
func (e *OrdersExporter) Export(orders []*models.Order, status string) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ordersSheet)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	title := "Pedidos"
	if status != "" {
		title += " (" + status + ")"
	}
	_ = f.SetCellValue(ordersSheet, "A1", fmt.Sprintf("%s - gerado em %s", title, e.now().Format("02/01/2006 15:04")))
	lastCol, _ := excelize.ColumnNumberToName(len(orderHeaders))
	_ = f.MergeCell(ordersSheet, "A1", lastCol+"1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(ordersSheet, "A1", "A1", titleStyle)

	e.writeHeaders(f)
	total := e.writeRows(f, orders)

	footerRow := len(orders) + 3
	labelCell, _ := excelize.CoordinatesToCellName(len(orderHeaders)-1, footerRow)
	totalCell, _ := excelize.CoordinatesToCellName(len(orderHeaders), footerRow)
	_ = f.SetCellValue(ordersSheet, labelCell, "Total geral")
	_ = f.SetCellValue(ordersSheet, totalCell, total)

	_ = f.SetColWidth(ordersSheet, "A", "A", 16)
	_ = f.SetColWidth(ordersSheet, "B", "B", 18)
	_ = f.SetColWidth(ordersSheet, "C", "E", 25)
	_ = f.SetColWidth(ordersSheet, "F", "F", 45)
	_ = f.SetColWidth(ordersSheet, "G", "J", 14)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("pedidos_%s.xlsx", e.now().Format("20060102_150405"))
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("orders", len(orders)).Msg("Orders exported")
	return filePath, nil
}

func (e *OrdersExporter) writeHeaders(f *excelize.File) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range orderHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(ordersSheet, cell, h)
		_ = f.SetCellStyle(ordersSheet, cell, cell, style)
	}
}

func (e *OrdersExporter) writeRows(f *excelize.File, orders []*models.Order) float64 {
	var total float64
	for i, o := range orders {
		row := i + 3
		changeFor := ""
		if o.ChangeFor != nil {
			changeFor = fmt.Sprintf("%.2f", *o.ChangeFor)
		}
		values := []any{
			o.Number,
			o.CreatedAt.Format("02/01/2006 15:04"),
			o.CustomerName,
			o.CustomerPhone,
			o.CustomerAddress,
			describeItems(o.Items),
			o.PaymentMethod,
			changeFor,
			o.Status,
			o.Total,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(ordersSheet, cell, v)
		}
		if o.Status != models.OrderStatusCancelled {
			total += o.Total
		}
	}
	return total
}

func describeItems(items []models.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
	}
	return strings.Join(parts, ", ")
}
