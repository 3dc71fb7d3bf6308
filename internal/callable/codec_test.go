package callable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/moodb/internal/model"
	"github.com/aidanlsb/moodb/internal/report"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   model.PropertyValue
	}{
		{
			name:   "verb",
			source: "// verb: look; none; none; none\nreturn 'A small kitchen.';",
			want: &model.Verb{
				Pattern: "look", DobjArg: "none", PrepArg: "none", IobjArg: "none",
				Body: "return 'A small kitchen.';", File: "look.js",
			},
		},
		{
			name:   "verb with loose whitespace",
			source: "   //verb :  get take ;this;  none ;none   \nline1\nline2",
			want: &model.Verb{
				Pattern: "get take", DobjArg: "this", PrepArg: "none", IobjArg: "none",
				Body: "line1\nline2", File: "look.js",
			},
		},
		{
			name:   "verb with arbitrary fields",
			source: "// verb: put; any; in/inside; this; extra\nbody",
			want: &model.Verb{
				Pattern: "put", DobjArg: "any", PrepArg: "in/inside", IobjArg: "this; extra",
				Body: "body", File: "look.js",
			},
		},
		{
			name:   "verb without body",
			source: "// verb: look; none; none; none",
			want: &model.Verb{
				Pattern: "look", DobjArg: "none", PrepArg: "none", IobjArg: "none",
				File: "look.js",
			},
		},
		{
			name:   "function",
			source: "function f(){ return 1; }",
			want:   &model.Function{Body: "function f(){ return 1; }", File: "look.js"},
		},
		{
			name:   "descriptor not on first line",
			source: "\n// verb: look; none; none; none\nbody",
			want:   &model.Function{Body: "\n// verb: look; none; none; none\nbody", File: "look.js"},
		},
		{
			name:   "too few descriptor fields",
			source: "// verb: look; none; none\nbody",
			want:   &model.Function{Body: "// verb: look; none; none\nbody", File: "look.js"},
		},
		{
			name:   "empty source",
			source: "",
			want:   &model.Function{Body: "", File: "look.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sink report.Recorder
			got := New(&sink).Parse("look.js", tt.source)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 0, sink.Len())
		})
	}
}

func TestParseRecoversFromPanic(t *testing.T) {
	orig := parseSource
	parseSource = func(string, string) model.PropertyValue { panic("boom") }
	t.Cleanup(func() { parseSource = orig })

	var sink report.Recorder
	got := New(&sink).Parse("broken.js", "whatever")

	assert.Equal(t, &model.Function{Body: InvalidSourceBody, File: "broken.js"}, got)
	failures := sink.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "parse", failures[0].Op)
	assert.Equal(t, "broken.js", failures[0].File)
	assert.True(t, model.IsParse(failures[0].Err))
}

func TestSerialize(t *testing.T) {
	c := New(report.Discard)

	t.Run("function uses default file name", func(t *testing.T) {
		file, contents, err := c.Serialize("describe", &model.Function{Body: "return 1;"})
		require.NoError(t, err)
		assert.Equal(t, "describe.js", file)
		assert.Equal(t, "return 1;", contents)
	})

	t.Run("verb keeps its file", func(t *testing.T) {
		file, contents, err := c.Serialize("look", &model.Verb{
			Pattern: "l*ook", DobjArg: "any", PrepArg: "none", IobjArg: "none",
			Body: "return 1;", File: "look-verb.js",
		})
		require.NoError(t, err)
		assert.Equal(t, "look-verb.js", file)
		assert.Equal(t, "// verb: l*ook; any; none; none\nreturn 1;", contents)
	})

	t.Run("literal is rejected", func(t *testing.T) {
		_, _, err := c.Serialize("color", model.Literal{Value: "red"})
		require.Error(t, err)
		assert.True(t, model.IsInvalidCallable(err))
	})

	t.Run("nil is rejected", func(t *testing.T) {
		_, _, err := c.Serialize("nothing", nil)
		assert.True(t, model.IsInvalidCallable(err))
	})
}

func TestRoundTrip(t *testing.T) {
	c := New(report.Discard)

	t.Run("well formed verb is reproduced exactly", func(t *testing.T) {
		src := "// verb: look; none; none; none\nreturn 'A small kitchen.';\n"
		_, out, err := c.Serialize("look", c.Parse("look.js", src))
		require.NoError(t, err)
		assert.Equal(t, src, out)
	})

	t.Run("descriptor whitespace is normalized", func(t *testing.T) {
		src := "//verb:look ;  none;none ;   none  \nbody"
		_, out, err := c.Serialize("look", c.Parse("look.js", src))
		require.NoError(t, err)
		assert.Equal(t, "// verb: look; none; none; none\nbody", out)

		_, again, err := c.Serialize("look", c.Parse("look.js", out))
		require.NoError(t, err)
		assert.Equal(t, out, again)
	})

	t.Run("function body is unchanged", func(t *testing.T) {
		src := "function f(){ return 1; }\n// trailing comment\n"
		_, out, err := c.Serialize("f", c.Parse("f.js", src))
		require.NoError(t, err)
		assert.Equal(t, src, out)
	})
}

func FuzzParseSerialize(f *testing.F) {
	f.Add("// verb: look; none; none; none\nreturn 1;")
	f.Add("//verb:a;b;c;d;e\n\n")
	f.Add("function f() {}")
	f.Add("")
	f.Add("// verb: ; ; ; \nx")

	c := New(report.Discard)
	f.Fuzz(func(t *testing.T, src string) {
		first := c.Parse("x.js", src)
		_, out, err := c.Serialize("x", first)
		if err != nil {
			t.Fatalf("serialize: %v", err)
		}
		if fn, ok := first.(*model.Function); ok {
			if out != src || fn.Body != src {
				t.Fatalf("function source changed: %q -> %q", src, out)
			}
			return
		}
		second := c.Parse("x.js", out)
		_, again, err := c.Serialize("x", second)
		if err != nil {
			t.Fatalf("serialize: %v", err)
		}
		if again != out {
			t.Fatalf("not idempotent: %q -> %q", out, again)
		}
	})
}
