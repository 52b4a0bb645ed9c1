package main

import (
	"bytes"
	"io"
	"os"

	"github.com/andrewchambers/cdecl/cpp"
	"github.com/andrewchambers/cdecl/parse"
	"github.com/andrewchambers/cdecl/treeio"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	stdinArg  = "-"
	stdinName = "<stdin>"
)

// sources keeps the contents of each input so errors can quote the
// offending line, even for stdin.
type sources struct {
	stdin io.Reader
	files map[string][]byte
}

func newSources(stdin io.Reader) *sources {
	return &sources{stdin: stdin, files: make(map[string][]byte)}
}

// read returns the name positions in path are reported under and its
// contents. It must not be called concurrently; inputs are all read before
// any work starts.
func (s *sources) read(path string) (string, []byte, error) {
	name := path
	if path == stdinArg {
		name = stdinName
	}
	if b, ok := s.files[name]; ok {
		return name, b, nil
	}
	var b []byte
	var err error
	if path == stdinArg {
		b, err = io.ReadAll(s.stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to read %s", path)
	}
	s.files[name] = b
	return name, b, nil
}

// line returns line n (1 based) of path without its newline. Header files
// the preprocessor pulled in are read on demand.
func (s *sources) line(path string, n int) (string, bool) {
	b, ok := s.files[path]
	if !ok {
		var err error
		if b, err = os.ReadFile(path); err != nil {
			return "", false
		}
	}
	for i := 1; ; i++ {
		end := bytes.IndexByte(b, '\n')
		if i == n {
			if end < 0 {
				return string(b), len(b) != 0
			}
			return string(bytes.TrimSuffix(b[:end], []byte("\r"))), true
		}
		if end < 0 {
			return "", false
		}
		b = b[end+1:]
	}
}

// loggingSearcher reports header resolution at debug level.
type loggingSearcher struct {
	cpp.IncludeSearcher
	log logrus.FieldLogger
}

func (s *loggingSearcher) IncludeQuote(requestingFile, headerPath string) (string, io.Reader, error) {
	path, r, err := s.IncludeSearcher.IncludeQuote(requestingFile, headerPath)
	s.logResult(requestingFile, "\""+headerPath+"\"", path, err)
	return path, r, err
}

func (s *loggingSearcher) IncludeAngled(requestingFile, headerPath string) (string, io.Reader, error) {
	path, r, err := s.IncludeSearcher.IncludeAngled(requestingFile, headerPath)
	s.logResult(requestingFile, "<"+headerPath+">", path, err)
	return path, r, err
}

func (s *loggingSearcher) logResult(requestingFile, header, path string, err error) {
	l := s.log.WithField("file", requestingFile)
	if err != nil {
		l.Debugf("include %s: %s", header, err)
		return
	}
	l.Debugf("include %s resolved to %s", header, path)
}

// preprocessor builds the preprocessor for one input with the configured
// include path and macros.
func (c *config) preprocessor(name string, src []byte, log logrus.FieldLogger) (*cpp.Preprocessor, error) {
	is := &loggingSearcher{
		IncludeSearcher: cpp.NewStandardIncludeSearcher(c.includePaths),
		log:             log,
	}
	pp := cpp.New(cpp.Lex(name, bytes.NewReader(src)), is)
	pp.SetWarningHandler(func(pos cpp.FilePos, msg string) {
		log.WithField("pos", pos.String()).Warn(msg)
	})
	for _, d := range c.defines {
		macro, value := splitDefine(d)
		if err := pp.Define(macro, value); err != nil {
			return nil, errors.Wrapf(err, "-D%s", d)
		}
	}
	return pp, nil
}

// toplevels produces the declarations of one input, either by parsing C or
// by decoding a tree file.
func (c *config) toplevels(name string, src []byte, tree bool, log logrus.FieldLogger) ([]*parse.TopLevel, error) {
	if tree {
		return treeio.DecodeTopLevels(name, bytes.NewReader(src))
	}
	pp, err := c.preprocessor(name, src, log)
	if err != nil {
		return nil, err
	}
	return parse.Parse(pp, parse.WithTypedefs(c.typedefs...))
}
