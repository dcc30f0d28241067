package testing

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"github.com/xuri/excelize/v2"
)

// Header rows of the two spreadsheet inputs
var (
	ClientSheetHeader = []string{"Terminal Id", "Physical TId", "Model", "Merchant Name", "City", "Group", "Branch"}
	FeedSheetHeader   = []string{"TerminalID", "LastSeen", "SalesCount", "SumofSales"}
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestClient inserts a client of group and branch with the given terminal ID
func (tf *TestFixtures) CreateTestClient(terminalID, group, branch string) (*models.Client, error) {
	client := NewClient(terminalID, group, branch)
	if err := tf.DB.DB.Create(client).Error; err != nil {
		return nil, fmt.Errorf("failed to create test client %s: %w", terminalID, err)
	}
	return client, nil
}

// CreateTestTransaction inserts one transaction for terminalID
func (tf *TestFixtures) CreateTestTransaction(terminalID string, date time.Time, volume int64, value float64) (*models.Transaction, error) {
	tx := &models.Transaction{TerminalID: terminalID, Date: date, Volume: volume, Value: value}
	if err := tf.DB.DB.Create(tx).Error; err != nil {
		return nil, fmt.Errorf("failed to create test transaction for %s: %w", terminalID, err)
	}
	return tx, nil
}

// NewClient builds an unsaved client with filler attributes
func NewClient(terminalID, group, branch string) *models.Client {
	return &models.Client{
		TerminalID:   terminalID,
		PhysicalTID:  "P" + terminalID,
		Model:        "Move5000",
		MerchantName: "Merchant " + terminalID,
		City:         "Harare",
		Group:        group,
		Branch:       branch,
	}
}

// ClientRow renders a client as an import sheet row
func ClientRow(c *models.Client) []any {
	return []any{c.TerminalID, c.PhysicalTID, c.Model, c.MerchantName, c.City, c.Group, c.Branch}
}

// FeedRow builds one transaction feed row
func FeedRow(terminalID, lastSeen string, salesCount any, sumOfSales any) []any {
	return []any{terminalID, lastSeen, salesCount, sumOfSales}
}

// Sheet is one worksheet of a fixture workbook
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// BuildWorkbook renders sheets into an .xlsx file
func BuildWorkbook(sheets ...Sheet) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	for i, sheet := range sheets {
		if i == 0 {
			if err := xl.SetSheetName(xl.GetSheetName(0), sheet.Name); err != nil {
				return nil, err
			}
		} else if _, err := xl.NewSheet(sheet.Name); err != nil {
			return nil, err
		}

		if sheet.Header != nil {
			header := make([]any, len(sheet.Header))
			for j, h := range sheet.Header {
				header[j] = h
			}
			if err := xl.SetSheetRow(sheet.Name, "A1", &header); err != nil {
				return nil, err
			}
		}
		for ri, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, ri+2)
			if err != nil {
				return nil, err
			}
			if err := xl.SetSheetRow(sheet.Name, cell, &row); err != nil {
				return nil, err
			}
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ClientWorkbook builds a single-sheet client import workbook
func ClientWorkbook(clients ...*models.Client) ([]byte, error) {
	rows := make([][]any, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, ClientRow(c))
	}
	return BuildWorkbook(Sheet{Name: "Sheet1", Header: ClientSheetHeader, Rows: rows})
}

// FeedWorkbook builds a transaction feed workbook with one sheet per entry
func FeedWorkbook(sheets ...[][]any) ([]byte, error) {
	out := make([]Sheet, 0, len(sheets))
	for i, rows := range sheets {
		out = append(out, Sheet{Name: fmt.Sprintf("Feed%d", i+1), Header: FeedSheetHeader, Rows: rows})
	}
	return BuildWorkbook(out...)
}

// ReadWorkbook returns every sheet of an .xlsx file as rows of cell strings
func ReadWorkbook(content []byte) (map[string][][]string, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer func() { _ = xl.Close() }()

	out := make(map[string][][]string)
	for _, name := range xl.GetSheetList() {
		rows, err := xl.GetRows(name)
		if err != nil {
			return nil, err
		}
		out[name] = rows
	}
	return out, nil
}
