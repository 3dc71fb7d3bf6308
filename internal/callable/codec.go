// Package callable converts verb and function properties to and from the
// source files they are stored in.
//
// A verb file starts with a descriptor comment naming its invocation pattern
// and argument roles:
//
//	// verb: look; none; none; none
//	return 'A small kitchen.';
//
// Any file whose first line is not a descriptor is a function.
package callable

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aidanlsb/moodb/internal/model"
	"github.com/aidanlsb/moodb/internal/report"
)

// InvalidSourceBody replaces the body of a callable whose source could not
// be parsed.
const InvalidSourceBody = "function invalid() { return 'invalid source'; }"

// parseSource is swapped out in tests to exercise the recovery path.
var parseSource = parse

var verbDescriptor = regexp.MustCompile(`^\s*//\s*verb\s*:\s*(.*?)\s*;\s*(.*?)\s*;\s*(.*?)\s*;\s*(.*?)\s*$`)

// Codec parses and serializes callables. The zero value drops parse
// failures; use New to report them.
type Codec struct {
	sink report.Sink
}

// New returns a codec that reports parse failures to sink.
func New(sink report.Sink) *Codec {
	return &Codec{sink: sink}
}

// Parse turns the contents of file into a Verb or a Function. It never
// fails: a source that cannot be parsed becomes a Function with
// InvalidSourceBody and the failure goes to the sink.
func (c *Codec) Parse(file, source string) (v model.PropertyValue) {
	defer func() {
		if r := recover(); r != nil {
			c.report(report.Failure{
				Op:   "parse",
				File: file,
				Err:  model.Parse("", file, fmt.Errorf("%v", r)),
			})
			v = &model.Function{Body: InvalidSourceBody, File: file}
		}
	}()
	return parseSource(file, source)
}

func parse(file, source string) model.PropertyValue {
	first, rest, _ := strings.Cut(source, "\n")
	m := verbDescriptor.FindStringSubmatch(first)
	if m == nil {
		return &model.Function{Body: source, File: file}
	}
	return &model.Verb{
		Pattern: m[1],
		DobjArg: m[2],
		PrepArg: m[3],
		IobjArg: m[4],
		Body:    rest,
		File:    file,
	}
}

// Serialize returns the file name and contents for the callable stored under
// key. The file name is the value's File, or <key>.js when unset.
func (c *Codec) Serialize(key string, value model.PropertyValue) (file, contents string, err error) {
	file, ok := model.CallableFile(key, value)
	if !ok {
		return "", "", model.InvalidCallable(key)
	}
	switch v := value.(type) {
	case *model.Function:
		return file, v.Body, nil
	case *model.Verb:
		return file, DescriptorLine(v) + "\n" + v.Body, nil
	}
	return "", "", model.InvalidCallable(key)
}

// DescriptorLine renders the first line of a verb file.
func DescriptorLine(v *model.Verb) string {
	return fmt.Sprintf("// verb: %s; %s; %s; %s", v.Pattern, v.DobjArg, v.PrepArg, v.IobjArg)
}

// IsDescriptorLine reports whether line is a verb descriptor comment.
func IsDescriptorLine(line string) bool {
	return verbDescriptor.MatchString(line)
}

func (c *Codec) report(f report.Failure) {
	if c == nil || c.sink == nil {
		return
	}
	c.sink.Report(f)
}
