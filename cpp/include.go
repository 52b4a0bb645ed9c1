package cpp

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type IncludeSearcher interface {
	//IncludeQuote is invoked when the preprocessor
	//encounters an include of the form #include "foo.h".
	//returns the full path of the file, a reader of the contents or an error.
	IncludeQuote(requestingFile, headerPath string) (string, io.Reader, error)
	//IncludeAngled is invoked when the preprocessor
	//encounters an include of the form #include <foo.h>.
	//returns the full path of the file, a reader of the contents or an error.
	IncludeAngled(requestingFile, headerPath string) (string, io.Reader, error)
}

type StandardIncludeSearcher struct {
	//Priority order list of paths to search for headers
	systemHeadersPath []string
}

func readIfExists(path string) ([]byte, bool, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.WithStack(err)
	}
	return b, true, nil
}

func (is *StandardIncludeSearcher) IncludeQuote(requestingFile, headerPath string) (string, io.Reader, error) {
	path := filepath.Join(filepath.Dir(requestingFile), headerPath)
	b, exists, err := readIfExists(path)
	if err != nil {
		return "", nil, err
	}
	if !exists {
		return is.IncludeAngled(requestingFile, headerPath)
	}
	return path, bytes.NewReader(b), nil
}

func (is *StandardIncludeSearcher) IncludeAngled(requestingFile, headerPath string) (string, io.Reader, error) {
	for _, dir := range is.systemHeadersPath {
		path := filepath.Join(dir, headerPath)
		b, exists, err := readIfExists(path)
		if err != nil {
			return "", nil, err
		}
		if exists {
			return path, bytes.NewReader(b), nil
		}
	}
	return "", nil, errors.Errorf("header %s not found", headerPath)
}

// Dirs returns the search path in priority order.
func (is *StandardIncludeSearcher) Dirs() []string {
	return is.systemHeadersPath
}

// NewStandardIncludeSearcher searches dirs in order. Empty entries are ignored.
func NewStandardIncludeSearcher(dirs []string) *StandardIncludeSearcher {
	ret := &StandardIncludeSearcher{}
	for _, d := range dirs {
		if d = strings.TrimSpace(d); d != "" {
			ret.systemHeadersPath = append(ret.systemHeadersPath, d)
		}
	}
	return ret
}

// SplitIncludePath splits a ; separated list of directories.
func SplitIncludePath(s string) []string {
	return strings.Split(s, ";")
}
