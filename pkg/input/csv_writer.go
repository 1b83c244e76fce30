// pkg/input/csv_writer.go
package input

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/creditgate/creditgate/pkg/applicant"
)

// WriteCSV renders an applicant pool in the canonical column order.
// withBOM prepends the UTF-8 byte order mark so spreadsheet tools pick
// up the Chinese categorical values.
func WriteCSV(w io.Writer, records []applicant.Applicant, withBOM bool) error {
	if withBOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return err
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, a := range records {
		row := []string{
			a.ID,
			strconv.Itoa(a.Age),
			strconv.FormatFloat(a.Income, 'f', 2, 64),
			strconv.Itoa(a.CreditScore),
			strconv.FormatFloat(a.DebtToIncome, 'f', 4, 64),
			strconv.FormatFloat(a.LoanAmount, 'f', 2, 64),
			strconv.Itoa(a.LoanTerm),
			strconv.Itoa(a.EmploymentYears),
			strconv.Itoa(a.CreditLines),
			strconv.Itoa(a.LatePayments),
			strconv.Itoa(a.DefaultHistory),
			string(a.Industry),
			string(a.MaritalStatus),
			string(a.Education),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
