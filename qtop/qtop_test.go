package qtop

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/snsinfu/sge-qtop/gridengine"
)

const textHeader = "job-ID  prior   name       user         state submit/start at     queue          slots ja-task-ID\n" +
	"------------------------------------------------------------------------------------------------\n"

const textSnapshot = textHeader + `  101 0.55500 sim        alice        r     10/19/2026 10:00:00 all.q@node01   4
       Hard Resources:   mem_free=2G (0.000000)
       Requested PE:     threads 4
  102 0.50000 QLOGIN     bob          r     10/19/2026 10:05:00 all.q@node02   1
  103 0.50000 post       alice        qw    10/19/2026 10:06:00                2
       Hard Resources:   mem_free=1500M (0.000000)
       Requested PE:     threads 2
  104 0.50000 fit        carol        r     10/19/2026 10:07:00 all.q@node03   8
       Hard Resources:   mem_free=64G (0.000000)
       Requested PE:     threads 8
`

const xmlSnapshot = `<?xml version='1.0'?>
<job_info>
  <queue_info>
    <job_list state="running">
      <JB_job_number>101</JB_job_number>
      <JB_name>sim</JB_name>
      <JB_owner>alice</JB_owner>
      <state>r</state>
      <slots>4</slots>
      <hard_request name="mem_free" resource_contribution="0.000000">2G</hard_request>
    </job_list>
    <job_list state="running">
      <JB_job_number>102</JB_job_number>
      <JB_name>QLOGIN</JB_name>
      <JB_owner>bob</JB_owner>
      <state>r</state>
      <slots>1</slots>
      <hard_request name="mem_free" resource_contribution="0.000000">1G</hard_request>
    </job_list>
    <job_list state="running">
      <JB_job_number>104</JB_job_number>
      <JB_name>fit</JB_name>
      <JB_owner>carol</JB_owner>
      <state>r</state>
      <slots>8</slots>
      <hard_request name="mem_free" resource_contribution="0.000000">64G</hard_request>
    </job_list>
    <job_list state="running">
      <JB_job_number>105</JB_job_number>
      <JB_name>nomem</JB_name>
      <JB_owner>dave</JB_owner>
      <state>r</state>
      <slots>2</slots>
    </job_list>
  </queue_info>
  <job_info>
    <job_list state="pending">
      <JB_job_number>103</JB_job_number>
      <JB_name>post</JB_name>
      <JB_owner>alice</JB_owner>
      <state>qw</state>
      <slots>2</slots>
      <hard_request name="mem_free" resource_contribution="0.000000">1500</hard_request>
    </job_list>
  </job_info>
</job_info>
`

func summarizeTable(t *testing.T, input string, opts Options) (string, []Diagnostic) {
	rep, diags, err := Summarize(strings.NewReader(input), opts)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	var buf bytes.Buffer
	if err := rep.WriteTable(&buf, DefaultTop); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	return buf.String(), diags
}

func Test_Summarize_TextCountsEveryJob(t *testing.T) {
	actual, diags := summarizeTable(t, textSnapshot, DefaultConfig().Options)

	expected := "User\tJobs\tCPU\tMem\n" +
		"carol\t1\t8\t64G\n" +
		"alice\t2\t6\t3G\n" +
		"bob\t1\t0\t0G\n"

	if actual != expected {
		t.Errorf("unexpected result: got %q, want %q", actual, expected)
	}

	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
}

func Test_Summarize_TextStrict(t *testing.T) {
	opts := DefaultConfig().Options
	opts.Strict = true

	actual, diags := summarizeTable(t, textSnapshot, opts)

	expected := "User\tJobs\tCPU\tMem\n" +
		"carol\t1\t8\t64G\n" +
		"alice\t1\t4\t2G\n"

	if actual != expected {
		t.Errorf("unexpected result: got %q, want %q", actual, expected)
	}

	reasons := map[string]Reason{}
	for _, diag := range diags {
		reasons[diag.Job.ID] = diag.Reason
	}

	if reasons["102"] != ReasonLogin || reasons["103"] != ReasonNotRunning || len(reasons) != 2 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
}

func Test_Summarize_XMLIsStrict(t *testing.T) {
	actual, diags := summarizeTable(t, xmlSnapshot, DefaultConfig().Options)

	expected := "User\tJobs\tCPU\tMem\n" +
		"carol\t1\t8\t64G\n" +
		"alice\t1\t4\t2G\n"

	if actual != expected {
		t.Errorf("unexpected result: got %q, want %q", actual, expected)
	}

	var reasons []Reason
	for _, diag := range diags {
		reasons = append(reasons, diag.Reason)
	}

	expectedReasons := []Reason{ReasonLogin, ReasonMissingMemory, ReasonNotRunning}
	if len(reasons) != len(expectedReasons) {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	for i := range reasons {
		if reasons[i] != expectedReasons[i] {
			t.Errorf("unexpected reason %d: got %q, want %q", i, reasons[i], expectedReasons[i])
		}
	}
}

func Test_Summarize_ForcedFormat(t *testing.T) {
	opts := DefaultConfig().Options
	opts.Format = gridengine.FormatText

	rep, _, err := Summarize(strings.NewReader(textSnapshot), opts)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if rep.Format != gridengine.FormatText {
		t.Errorf("unexpected format: got %s", rep.Format)
	}

	opts.Format = gridengine.FormatXML
	if _, _, err := Summarize(strings.NewReader(textSnapshot), opts); err == nil {
		t.Error("unexpected success parsing text as XML")
	}
}

func Test_Summarize_IsDeterministic(t *testing.T) {
	first, _ := summarizeTable(t, xmlSnapshot, DefaultConfig().Options)
	second, _ := summarizeTable(t, xmlSnapshot, DefaultConfig().Options)

	if first != second {
		t.Errorf("output differs: %q vs %q", first, second)
	}
}

func Test_Summarize_FailsOnMalformedText(t *testing.T) {
	input := "header\n----\n   orphan detail line\n"

	_, _, err := Summarize(strings.NewReader(input), DefaultConfig().Options)

	var malformed *gridengine.MalformedStreamError
	if !errors.As(err, &malformed) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func Test_Summarize_FailsOnSchemaViolation(t *testing.T) {
	input := `<job_info><job_list><JB_name>a</JB_name><state>r</state></job_list></job_info>`

	_, _, err := Summarize(strings.NewReader(input), DefaultConfig().Options)

	var violation *gridengine.SchemaViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func Test_Summarize_XMLSkipsPendingJobWithUnknownUnit(t *testing.T) {
	input := `<?xml version='1.0'?>
<job_info>
  <queue_info>
    <job_list state="running">
      <JB_job_number>201</JB_job_number>
      <JB_name>sim</JB_name>
      <JB_owner>alice</JB_owner>
      <state>r</state>
      <slots>4</slots>
      <hard_request name="mem_free" resource_contribution="0.000000">2G</hard_request>
    </job_list>
  </queue_info>
  <job_info>
    <job_list state="pending">
      <JB_job_number>202</JB_job_number>
      <JB_name>wait</JB_name>
      <JB_owner>bob</JB_owner>
      <state>qw</state>
      <slots>1</slots>
      <hard_request name="mem_free" resource_contribution="0.000000">512K</hard_request>
    </job_list>
  </job_info>
</job_info>
`

	opts := DefaultConfig().Options
	opts.Format = gridengine.FormatXML

	actual, diags := summarizeTable(t, input, opts)

	expected := "User\tJobs\tCPU\tMem\n" +
		"alice\t1\t4\t2G\n"

	if actual != expected {
		t.Errorf("unexpected result: got %q, want %q", actual, expected)
	}

	if len(diags) != 1 || diags[0].Reason != ReasonNotRunning || diags[0].Job.ID != "202" {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
}

func Test_Summarize_StrictTextSkipsExcludedJobsWithBadRequests(t *testing.T) {
	input := textHeader +
		"  301 0.50000 sim        alice        r     10/19/2026 10:00:00 all.q@node01   4\n" +
		"       Hard Resources:   mem_free=2G (0.000000)\n" +
		"       Requested PE:     threads 4\n" +
		"  302 0.50000 QLOGIN     bob          r     10/19/2026 10:05:00 all.q@node02   1\n" +
		"       Hard Resources:   mem_free=1T (0.000000)\n" +
		"  303 0.50000 wait       carol        qw    10/19/2026 10:06:00                1\n" +
		"       Hard Resources:   mem_free=512K (0.000000)\n"

	opts := DefaultConfig().Options
	opts.Strict = true

	actual, diags := summarizeTable(t, input, opts)

	expected := "User\tJobs\tCPU\tMem\n" +
		"alice\t1\t4\t2G\n"

	if actual != expected {
		t.Errorf("unexpected result: got %q, want %q", actual, expected)
	}

	if len(diags) != 2 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}

	opts.Strict = false
	if _, _, err := Summarize(strings.NewReader(input), opts); err == nil {
		t.Error("unexpected lenient success with unknown units")
	}
}

func Test_Summarize_FailsOnBadRequestOfRunningJob(t *testing.T) {
	input := `<job_info><job_list><JB_owner>x</JB_owner><JB_name>a</JB_name><state>r</state>` +
		`<slots>1</slots><slots>2</slots></job_list></job_info>`

	_, _, err := Summarize(strings.NewReader(input), DefaultConfig().Options)

	var violation *gridengine.SchemaViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("unexpected error: %v", err)
	}

	if violation.Field != "slots" || violation.Count != 2 {
		t.Errorf("unexpected violation: got %s/%d", violation.Field, violation.Count)
	}
}
