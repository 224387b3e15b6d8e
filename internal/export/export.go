// Package export writes inventory snapshots as CSV and JSON and reads the JSON
// form back for restoring.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/erazemk/inventar/internal/model"
)

// utf8BOM lets spreadsheet software detect the encoding of the CSV file.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{"ID", "InventoryNumber", "Name", "Condition", "Availability", "AssignedTo"}

// Labels are the words written to the Availability column.
type Labels struct {
	Yes string
	No  string
}

// Record is one exported item.
type Record struct {
	ID              int64  `json:"id"`
	InventoryNumber string `json:"inventory_number"`
	Name            string `json:"name"`
	Condition       string `json:"condition"`
	IsAvailable     bool   `json:"is_available"`
	AssignedTo      *int64 `json:"assigned_to"`
}

func toRecords(items []model.Item) []Record {
	records := make([]Record, 0, len(items))
	for _, it := range items {
		records = append(records, Record{
			ID:              it.ID,
			InventoryNumber: it.InventoryNumber,
			Name:            it.Name,
			Condition:       it.Condition,
			IsAvailable:     it.IsAvailable,
			AssignedTo:      it.AssignedTo,
		})
	}
	return records
}

// WriteCSV writes items as CSV, prefixed with a UTF-8 byte order mark.
func WriteCSV(w io.Writer, items []model.Item, labels Labels) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, it := range items {
		avail := labels.No
		if it.IsAvailable {
			avail = labels.Yes
		}
		assigned := ""
		if it.AssignedTo != nil {
			assigned = strconv.FormatInt(*it.AssignedTo, 10)
		}
		row := []string{
			strconv.FormatInt(it.ID, 10),
			it.InventoryNumber,
			it.Name,
			it.Condition,
			avail,
			assigned,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes items as an indented JSON array.
func WriteJSON(w io.Writer, items []model.Item) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toRecords(items)); err != nil {
		return fmt.Errorf("encoding JSON export: %w", err)
	}
	return nil
}

// ReadJSON parses a document produced by WriteJSON. IDs are dropped since the
// restoring database assigns its own.
func ReadJSON(r io.Reader) ([]model.Item, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding JSON export: %w", err)
	}

	items := make([]model.Item, 0, len(records))
	for _, rec := range records {
		items = append(items, model.Item{
			InventoryNumber: rec.InventoryNumber,
			Name:            rec.Name,
			Condition:       rec.Condition,
			IsAvailable:     rec.IsAvailable,
			AssignedTo:      rec.AssignedTo,
		})
	}
	return items, nil
}
