package qtop

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ini "github.com/lars-t-hansen/ini"
	"github.com/pkg/errors"

	"github.com/snsinfu/sge-qtop/gridengine"
)

// DefaultConfigFile is read when no configuration file is given.
const DefaultConfigFile = "~/.qtoprc"

// Config holds the settings of the qtop command.
type Config struct {
	Command string
	Timeout time.Duration
	Options Options
	Top     int

	// Interval is the refresh interval of watch mode.
	Interval time.Duration

	// Listen is the address of the metrics endpoint.
	Listen string
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Command: gridengine.DefaultCommand,
		Timeout: 30 * time.Second,
		Options: Options{
			Format:         gridengine.FormatAuto,
			MemoryResource: gridengine.DefaultMemoryResource,
			RunningState:   DefaultRunningState,
			LoginName:      DefaultLoginName,
		},
		Top:      DefaultTop,
		Interval: 3 * time.Second,
		Listen:   ":9105",
	}
}

var (
	iniParser = ini.NewParser()

	qstatSection = iniParser.AddSection("qstat")
	qstatCommand = qstatSection.AddString("command")
	qstatFormat  = qstatSection.AddString("format")
	qstatTimeout = qstatSection.AddString("timeout")

	reportSection = iniParser.AddSection("report")
	reportTop     = reportSection.AddString("top")

	validateSection        = iniParser.AddSection("validate")
	validateStrict         = validateSection.AddString("strict")
	validateRunningState   = validateSection.AddString("running-state")
	validateLoginName      = validateSection.AddString("login-name")
	validateMemoryResource = validateSection.AddString("memory-resource")

	watchSection  = iniParser.AddSection("watch")
	watchInterval = watchSection.AddString("interval")

	serveSection = iniParser.AddSection("serve")
	serveListen  = serveSection.AddString("listen")
)

// LoadConfig returns the default settings overridden by the named ini file.
// An empty path means DefaultConfigFile, which may be missing. A file named
// explicitly must exist, even if it is DefaultConfigFile.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	mustExist := path != ""
	if !mustExist {
		path = DefaultConfigFile
	}

	err := config.ReadFile(path, mustExist)
	return config, err
}

// ReadFile applies the settings in the named ini file. A missing file is
// ignored unless mustExist is set.
func (c *Config) ReadFile(path string, mustExist bool) error {
	path, err := ExpandHome(path)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		if !mustExist && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()

	return errors.Wrapf(c.Read(file), "config %s", path)
}

// Read applies the settings in an ini document.
func (c *Config) Read(r io.Reader) error {
	store, err := iniParser.Parse(r)
	if err != nil {
		return err
	}

	str := func(f *ini.Field, dst *string) {
		if f.Present(store) {
			*dst = strings.TrimSpace(f.StringVal(store))
		}
	}

	dur := func(name string, f *ini.Field, dst *time.Duration) error {
		if !f.Present(store) {
			return nil
		}
		d, err := ParseDuration(f.StringVal(store))
		if err != nil {
			return errors.Wrapf(err, "bad %s", name)
		}
		*dst = d
		return nil
	}

	str(qstatCommand, &c.Command)
	str(validateRunningState, &c.Options.RunningState)
	str(validateLoginName, &c.Options.LoginName)
	str(validateMemoryResource, &c.Options.MemoryResource)
	str(serveListen, &c.Listen)

	if qstatFormat.Present(store) {
		f, err := gridengine.ParseFormat(strings.TrimSpace(qstatFormat.StringVal(store)))
		if err != nil {
			return err
		}
		c.Options.Format = f
	}

	if err := dur("timeout", qstatTimeout, &c.Timeout); err != nil {
		return err
	}

	if err := dur("interval", watchInterval, &c.Interval); err != nil {
		return err
	}

	if reportTop.Present(store) {
		n, err := strconv.Atoi(strings.TrimSpace(reportTop.StringVal(store)))
		if err != nil {
			return errors.Wrap(err, "bad top")
		}
		c.Top = n
	}

	if validateStrict.Present(store) {
		b, err := strconv.ParseBool(strings.TrimSpace(validateStrict.StringVal(store)))
		if err != nil {
			return errors.Wrap(err, "bad strict")
		}
		c.Options.Strict = b
	}

	return nil
}

// ParseDuration parses a positive duration like "30s" or "2m".
func ParseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.Errorf("duration must be positive: %s", s)
	}
	return d, nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[2:]), nil
}
