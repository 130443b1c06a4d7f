package qtop

import (
	"fmt"
	"io"

	"github.com/snsinfu/sge-qtop/gridengine"
	"github.com/snsinfu/sge-qtop/units"
)

// DefaultTop is the number of owners listed in a report.
const DefaultTop = 5

// A Report is the ranked summary of one qstat snapshot.
type Report struct {
	Format   gridengine.Format
	Owners   []OwnerSummary
	Accepted int
	Rejected int
}

// Top returns the first n owners of the ranking, or all of them if n is not
// positive.
func (rep *Report) Top(n int) []OwnerSummary {
	if n <= 0 || n > len(rep.Owners) {
		return rep.Owners
	}
	return rep.Owners[:n]
}

// WriteTable writes the top n owners as tab-separated rows under a header.
// Memory is shown in whole gigabytes, truncated.
func (rep *Report) WriteTable(w io.Writer, n int) error {
	if _, err := fmt.Fprintf(w, "User\tJobs\tCPU\tMem\n"); err != nil {
		return err
	}

	for _, sum := range rep.Top(n) {
		_, err := fmt.Fprintf(
			w,
			"%s\t%d\t%d\t%s\n",
			sum.Owner,
			sum.Jobs,
			sum.CPU,
			formatGigabytes(sum.Mem),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func formatGigabytes(bytes int64) string {
	return fmt.Sprintf("%dG", bytes/units.Giga)
}
