// Package ptop summarizes the CPU and memory share of processes per user from
// the batch output of top.
package ptop

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/snsinfu/sge-qtop/subprocess"
)

const (
	// headerLine is the zero-based line of the process table header.
	headerLine = 6

	columnUser = "USER"
	columnCPU  = "%CPU"
	columnMem  = "%MEM"
)

// DefaultTop is the number of users listed in each ranking.
const DefaultTop = 5

// UserUsage holds the summed CPU and memory percentages of one user.
type UserUsage struct {
	User string
	CPU  decimal.Decimal
	Mem  decimal.Decimal
}

// Query runs top once in batch mode and returns its output.
func Query(ctx context.Context, runner subprocess.Runner) ([]byte, error) {
	return runner.Run(ctx, "top", "-b", "-n", "1")
}

// Parse reads top batch output and sums the usage per user. Users are
// returned in order of first appearance.
func Parse(r io.Reader) ([]UserUsage, error) {
	sc := bufio.NewScanner(r)

	var columns map[string]int
	index := map[string]int{}
	usages := []UserUsage{}

	for line := 0; sc.Scan(); line++ {
		if line < headerLine {
			continue
		}

		fields := strings.Fields(sc.Text())

		if line == headerLine {
			cols, err := findColumns(fields)
			if err != nil {
				return nil, err
			}
			columns = cols
			continue
		}

		if len(fields) == 0 {
			continue
		}

		usage, err := parseRow(fields, columns)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line+1)
		}

		i, ok := index[usage.User]
		if !ok {
			i = len(usages)
			index[usage.User] = i
			usages = append(usages, UserUsage{User: usage.User})
		}
		usages[i].CPU = usages[i].CPU.Add(usage.CPU)
		usages[i].Mem = usages[i].Mem.Add(usage.Mem)
	}

	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading top output")
	}

	if columns == nil {
		return nil, errors.New("top output has no process table")
	}

	return usages, nil
}

func findColumns(header []string) (map[string]int, error) {
	cols := map[string]int{}

	for _, name := range []string{columnUser, columnCPU, columnMem} {
		pos := -1
		for i, field := range header {
			if field == name {
				pos = i
				break
			}
		}
		if pos == -1 {
			return nil, errors.Errorf("no %s column in top header", name)
		}
		cols[name] = pos
	}

	return cols, nil
}

func parseRow(fields []string, cols map[string]int) (UserUsage, error) {
	for _, pos := range cols {
		if pos >= len(fields) {
			return UserUsage{}, errors.Errorf("short row: %q", strings.Join(fields, " "))
		}
	}

	cpu, err := decimal.NewFromString(fields[cols[columnCPU]])
	if err != nil {
		return UserUsage{}, errors.Wrap(err, "bad %CPU")
	}

	mem, err := decimal.NewFromString(fields[cols[columnMem]])
	if err != nil {
		return UserUsage{}, errors.Wrap(err, "bad %MEM")
	}

	return UserUsage{User: fields[cols[columnUser]], CPU: cpu, Mem: mem}, nil
}

// SortByCPU orders usages by descending CPU, then by user name.
func SortByCPU(usages []UserUsage) {
	sort.SliceStable(usages, func(i, j int) bool {
		if c := usages[i].CPU.Cmp(usages[j].CPU); c != 0 {
			return c > 0
		}
		return usages[i].User < usages[j].User
	})
}

// SortByMem orders usages by descending memory, then by user name.
func SortByMem(usages []UserUsage) {
	sort.SliceStable(usages, func(i, j int) bool {
		if c := usages[i].Mem.Cmp(usages[j].Mem); c != 0 {
			return c > 0
		}
		return usages[i].User < usages[j].User
	})
}

// WriteTable writes a titled table of the first n usages.
func WriteTable(w io.Writer, title string, usages []UserUsage, n int) error {
	if n > 0 && n < len(usages) {
		usages = usages[:n]
	}

	if _, err := fmt.Fprintf(w, "--- %s ---\n", title); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%-10s %-10s %-10s\n", "User", "CPU", "Memory"); err != nil {
		return err
	}

	for _, usage := range usages {
		_, err := fmt.Fprintf(
			w,
			"%-10s %10s %10s\n",
			usage.User,
			usage.CPU.StringFixed(1),
			usage.Mem.StringFixed(1),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// WriteReport writes the rankings by CPU and by memory.
func WriteReport(w io.Writer, usages []UserUsage, n int) error {
	byCPU := append([]UserUsage(nil), usages...)
	SortByCPU(byCPU)

	if err := WriteTable(w, "BY CPU", byCPU, n); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	byMem := append([]UserUsage(nil), usages...)
	SortByMem(byMem)

	return WriteTable(w, "BY MEMORY", byMem, n)
}
