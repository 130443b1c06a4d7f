package gridengine

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/snsinfu/sge-qtop/units"
)

func Test_Job_Resolve(t *testing.T) {
	testCases := []struct {
		job Job
		cpu Quantity
		mem Quantity
	}{
		{Job{CPURequest: slots("4"), MemRequest: hardRequest("2G")}, Some(4), Some(2 * units.Giga)},
		{Job{CPURequest: slots("0"), MemRequest: hardRequest("512")}, Some(0), Some(512 * units.Mega)},
		{Job{CPURequest: slots("1")}, Some(1), Quantity{}},
		{Job{}, Quantity{}, Quantity{}},
	}

	for _, testCase := range testCases {
		actual, err := testCase.job.Resolve()
		if err != nil {
			t.Errorf("unexpected error for %v: %s", testCase.job, err)
			continue
		}

		if actual.CPU != testCase.cpu || actual.Mem != testCase.mem {
			t.Errorf("unexpected result: got %v/%v, want %v/%v",
				actual.CPU, actual.Mem, testCase.cpu, testCase.mem)
		}
	}
}

func Test_Job_Resolve_RejectsRepeatedRequest(t *testing.T) {
	badCases := []struct {
		job   Job
		field string
	}{
		{Job{ID: "1", CPURequest: slots("1", "2")}, "slots"},
		{Job{ID: "2", MemRequest: hardRequest("1G", "2G")}, "hard_request"},
	}

	for _, badCase := range badCases {
		_, err := badCase.job.Resolve()

		var violation *SchemaViolationError
		if !errors.As(err, &violation) {
			t.Errorf("unexpected error for job %s: %v", badCase.job.ID, err)
			continue
		}

		if violation.Field != badCase.field || violation.Count != 2 || violation.Job != badCase.job.ID {
			t.Errorf("unexpected violation: got %+v", violation)
		}
	}
}

func Test_Job_Resolve_RejectsBadValues(t *testing.T) {
	badCases := []Job{
		{CPURequest: slots("many")},
		{CPURequest: slots("-1")},
		{CPURequest: slots("99999999999999999999")},
		{MemRequest: hardRequest("1K")},
		{MemRequest: hardRequest("99999999999999G")},
	}

	for _, badCase := range badCases {
		if actual, err := badCase.Resolve(); err == nil {
			t.Errorf("unexpected success: got %v/%v", actual.CPU, actual.Mem)
		}
	}

	_, err := Job{MemRequest: hardRequest("512K")}.Resolve()

	var unitErr *units.UnrecognizedUnitError
	if !errors.As(err, &unitErr) {
		t.Fatalf("unexpected error: %v", err)
	}

	if unitErr.Unit != "K" {
		t.Errorf("unexpected unit: got %q, want %q", unitErr.Unit, "K")
	}
}
