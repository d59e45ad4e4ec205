// Package export writes projected inventory views to spreadsheets.
package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/cardshop/cardshop/internal/model"
	"github.com/cardshop/cardshop/internal/view"
)

// Sheet names.
const (
	CardsSheet   = "Cards"
	SummarySheet = "Summary"
)

// Columns is the header row of the cards sheet.
var Columns = []string{
	"ID", "Name", "Game", "Set", "Number", "Rarity", "Status",
	"Condition", "Value", "Listed", "Sold",
}

var statuses = []model.Status{model.StatusInventory, model.StatusListing, model.StatusSold}

// Build renders cards (already projected) and their aggregate into a workbook.
// The cards sheet ends with a totals row; the summary sheet holds per-status
// counts.
func Build(cards []model.Card, stats view.Stats) (*xlsx.File, error) {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet(CardsSheet)
	if err != nil {
		return nil, eris.Wrap(err, "export: add cards sheet")
	}
	addStrings(sheet.AddRow(), Columns...)

	for _, c := range cards {
		row := sheet.AddRow()
		var listed, sold string
		if c.Listing != nil {
			listed, sold = c.Listing.ListedDate, c.Listing.SoldDate
		}
		addStrings(row, c.ID, c.Name, c.Game, c.Set, c.CardNumber, c.Rarity,
			string(c.Status), string(c.Grading.Overall.Condition))
		row.AddCell().SetFloat(c.Value())
		addStrings(row, listed, sold)
	}

	totals := sheet.AddRow()
	addStrings(totals, "Total")
	totals.AddCell().SetInt(stats.Total)
	for i := 2; i < 8; i++ {
		totals.AddCell()
	}
	totals.AddCell().SetFloat(stats.TotalValue)

	summary, err := f.AddSheet(SummarySheet)
	if err != nil {
		return nil, eris.Wrap(err, "export: add summary sheet")
	}
	addStrings(summary.AddRow(), "Status", "Cards")
	for _, s := range statuses {
		row := summary.AddRow()
		addStrings(row, string(s))
		row.AddCell().SetInt(stats.ByStatus[s])
	}
	row := summary.AddRow()
	addStrings(row, "total value")
	row.AddCell().SetFloat(stats.TotalValue)

	return f, nil
}

// WriteXLSX saves the workbook for cards to path.
func WriteXLSX(path string, cards []model.Card, stats view.Stats) error {
	f, err := Build(cards, stats)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// Write streams the workbook for cards to w.
func Write(w io.Writer, cards []model.Card, stats view.Stats) error {
	f, err := Build(cards, stats)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

func addStrings(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
