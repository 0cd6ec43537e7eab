package export

import (
	"fmt"

	"steam-buff-tracker/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Catalog"
	HistorySheet = "History"
)

var (
	summaryHeader = []interface{}{"ID", "名称", "Steam价格", "Buff价格", "比例", "Buff卖家", "更新时间", "快照数", "Buff链接", "Steam链接"}
	historyHeader = []interface{}{"ID", "名称", "Steam价格", "Buff价格", "比例", "Buff卖家", "时间"}
)

// ExportCatalog writes the catalog to an xlsx workbook: one summary row per
// entry with its latest snapshot, plus every snapshot on a history sheet.
func ExportCatalog(entries []models.CatalogEntry, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("创建工作表失败: %w", err)
	}
	if _, err := f.NewSheet(HistorySheet); err != nil {
		return fmt.Errorf("创建工作表失败: %w", err)
	}

	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return err
	}
	if err := f.SetSheetRow(HistorySheet, "A1", &historyHeader); err != nil {
		return err
	}

	historyRow := 2
	for i, e := range entries {
		row := []interface{}{e.ID, e.Name, nil, nil, nil, nil, nil, len(e.PriceHistory), e.BuffLink, e.Link}
		if latest, ok := e.Latest(); ok {
			row[2], row[3], row[4], row[5], row[6] = latest.SteamPrice, latest.BuffPrice, latest.Ratio, latest.BuffUsername, latest.Timestamp
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", i+2, err)
		}

		for _, s := range e.PriceHistory {
			cell, err := excelize.CoordinatesToCellName(1, historyRow)
			if err != nil {
				return err
			}
			h := []interface{}{e.ID, e.Name, s.SteamPrice, s.BuffPrice, s.Ratio, s.BuffUsername, s.Timestamp}
			if err := f.SetSheetRow(HistorySheet, cell, &h); err != nil {
				return fmt.Errorf("写入历史第 %d 行失败: %w", historyRow, err)
			}
			historyRow++
		}
	}

	_ = f.SetColWidth(SummarySheet, "B", "B", 40)
	_ = f.SetColWidth(SummarySheet, "I", "J", 30)
	_ = f.SetColWidth(HistorySheet, "B", "B", 40)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存 %s 失败: %w", path, err)
	}
	return nil
}
