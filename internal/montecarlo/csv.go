package montecarlo

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"montecarlo-forecast/internal/model"
)

func WritePathsCSV(path string, result *model.SimulationResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodePathsCSV(f, result)
}

func EncodePathsCSV(out io.Writer, result *model.SimulationResult) error {
	w := csv.NewWriter(out)

	header := []string{
		"path",
		"step",
		"value",
		"cum_return",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range Rows(result) {
		row := []string{
			strconv.Itoa(r.Path),
			strconv.Itoa(r.Step),
			fmtFloat(r.Value),
			fmtFloat(r.CumReturn),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
