package qtop

import (
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/snsinfu/sge-qtop/gridengine"
)

// scoreEpsilon keeps the logarithm of a zero total finite.
const scoreEpsilon = 0x1p-52

// Usage holds the resource totals of one owner. Mem is in bytes.
type Usage struct {
	Jobs int64
	CPU  int64
	Mem  int64
}

// Add accumulates a job into the totals. The totals are left unchanged if
// any of them would exceed int64.
func (u *Usage) Add(job gridengine.Job) error {
	if u.CPU > math.MaxInt64-job.CPU.Value || u.Mem > math.MaxInt64-job.Mem.Value {
		return errors.Errorf("totals of %s overflow at job %s", job.Owner, job.ID)
	}

	u.Jobs++
	u.CPU += job.CPU.Value
	u.Mem += job.Mem.Value
	return nil
}

// Score combines the totals into a single load figure: the sum of the
// logarithms of the totals. Owners high in every dimension rank above those
// extreme in only one.
func (u Usage) Score() float64 {
	return math.Log(float64(u.Jobs)+scoreEpsilon) +
		math.Log(float64(u.CPU)+scoreEpsilon) +
		math.Log(float64(u.Mem)+scoreEpsilon)
}

// OwnerSummary is a row of the ranking.
type OwnerSummary struct {
	Owner string
	Usage
	Score float64
}

// Aggregate groups accepted jobs by owner.
func Aggregate(jobs []gridengine.Job) (map[string]*Usage, error) {
	usages := map[string]*Usage{}

	for _, job := range jobs {
		usage, ok := usages[job.Owner]
		if !ok {
			usage = &Usage{}
			usages[job.Owner] = usage
		}
		if err := usage.Add(job); err != nil {
			return nil, err
		}
	}

	return usages, nil
}

// Rank orders owners by descending score. Owners with equal scores are
// ordered by name.
func Rank(usages map[string]*Usage) []OwnerSummary {
	sums := []OwnerSummary{}

	for owner, usage := range usages {
		sums = append(sums, OwnerSummary{
			Owner: owner,
			Usage: *usage,
			Score: usage.Score(),
		})
	}

	sort.Slice(sums, func(i, j int) bool {
		return compareOwners(sums[i], sums[j]) < 0
	})

	return sums
}

func compareOwners(a, b OwnerSummary) int {
	if a.Score > b.Score {
		return -1
	}

	if a.Score < b.Score {
		return 1
	}

	return strings.Compare(a.Owner, b.Owner)
}
