package main

import (
	"os"
	"runtime"
	"strings"

	"github.com/andrewchambers/cdecl/cpp"
	"github.com/andrewchambers/cdecl/decl"
	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

const (
	configEnv         = "CDECL_CONFIG"
	defaultConfigFile = "cdecl.ini"
)

// config holds the settings every command shares. Values come from the ini
// file first and command-line flags are applied on top.
type config struct {
	// source is the file the settings were read from, empty for defaults.
	source string

	includePaths []string
	// defines are NAME or NAME=VALUE, as given to -D.
	defines  []string
	typedefs []string
	maxDepth int
	jobs     int
	logLevel string
}

func defaultConfig() *config {
	return &config{
		maxDepth: decl.DefaultMaxDepth,
		jobs:     runtime.NumCPU(),
		logLevel: "warning",
	}
}

// findConfig returns the config file to load: explicit, then $CDECL_CONFIG,
// then ./cdecl.ini if it exists. An empty result means no file.
func findConfig(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(configEnv); env != "" {
		return env
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

func loadConfig(path string) (*config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading config %s", path)
	}
	if err := c.read(f); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	c.source = path
	return c, nil
}

func (c *config) read(f *ini.File) error {
	sec := f.Section("preprocessor")
	if sec.HasKey("INCLUDE_PATHS") {
		c.includePaths = append(c.includePaths, cpp.SplitIncludePath(sec.Key("INCLUDE_PATHS").String())...)
	}
	if sec.HasKey("CPPFLAGS") {
		args, err := shellquote.Split(sec.Key("CPPFLAGS").String())
		if err != nil {
			return errors.Wrap(err, "CPPFLAGS")
		}
		defines, includes, err := parseCPPFlags(args)
		if err != nil {
			return err
		}
		c.defines = append(c.defines, defines...)
		c.includePaths = append(c.includePaths, includes...)
	}

	c.typedefs = append(c.typedefs, f.Section("parser").Key("TYPEDEFS").Strings(",")...)

	var err error
	sec = f.Section("explain")
	if c.maxDepth, err = intKey(sec, "MAX_DEPTH", c.maxDepth); err != nil {
		return err
	}
	if c.jobs, err = intKey(sec, "JOBS", c.jobs); err != nil {
		return err
	}

	sec = f.Section("log")
	if sec.HasKey("LEVEL") {
		c.logLevel = sec.Key("LEVEL").String()
	}
	return nil
}

func intKey(sec *ini.Section, name string, def int) (int, error) {
	if !sec.HasKey(name) {
		return def, nil
	}
	v, err := sec.Key(name).Int()
	if err != nil {
		return 0, errors.Errorf("[%s] %s: %q is not an integer", sec.Name(), name, sec.Key(name).String())
	}
	return v, nil
}

// parseCPPFlags understands the -D and -I forms of a compiler command line,
// both joined (-DFOO=1) and separate (-D FOO=1).
func parseCPPFlags(args []string) (defines, includes []string, err error) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		var flag string
		switch {
		case strings.HasPrefix(arg, "-D"):
			flag = "-D"
		case strings.HasPrefix(arg, "-I"):
			flag = "-I"
		default:
			return nil, nil, errors.Errorf("unsupported CPPFLAGS argument %q", arg)
		}
		val := arg[2:]
		if val == "" {
			i++
			if i == len(args) {
				return nil, nil, errors.Errorf("%s without a value in CPPFLAGS", flag)
			}
			val = args[i]
		}
		if flag == "-D" {
			defines = append(defines, val)
		} else {
			includes = append(includes, val)
		}
	}
	return defines, includes, nil
}

// splitDefine splits NAME=VALUE. A bare NAME is defined to 1.
func splitDefine(d string) (string, string) {
	if name, value, ok := strings.Cut(d, "="); ok {
		return name, value
	}
	return d, "1"
}
