package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	froms := []From{MustParseFrom("/a/"), MustParseFrom("/")}
	tos := []To{MustParseTo("status://404"), MustParseTo("http://localhost/")}

	rs, err := New(froms, tos)
	require.NoError(t, err)
	require.Equal(t, 2, rs.Len())

	all := rs.All()
	assert.Equal(t, Rule{From: froms[0], To: tos[0]}, all[0])
	assert.Equal(t, Rule{From: froms[1], To: tos[1]}, all[1])

	// All hands out a copy.
	all[0] = Rule{}
	assert.Equal(t, froms[0], rs.All()[0].From)

	_, err = New(froms, tos[:1])
	require.ErrorIs(t, err, ErrUnequalFromTo)

	_, err = New(froms[:1], tos)
	require.ErrorIs(t, err, ErrUnequalFromTo)

	empty, err := New(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestParse(t *testing.T) {
	rs, err := Parse(
		[]string{"/api/", "/static/", "/"},
		[]string{"http://localhost:8080/", "file://./static/|./static/index.html", "status://404"},
	)
	require.NoError(t, err)

	want, err := New(
		[]From{MustParseFrom("/api/"), MustParseFrom("/static/"), MustParseFrom("/")},
		[]To{
			MustParseTo("http://localhost:8080/"),
			MustParseTo("file://./static/|./static/index.html"),
			MustParseTo("status://404"),
		},
	)
	require.NoError(t, err)
	assert.Equal(t, want, rs)

	// Same pairs in another order are a different rule set.
	reordered, err := Parse(
		[]string{"/", "/api/", "/static/"},
		[]string{"status://404", "http://localhost:8080/", "file://./static/|./static/index.html"},
	)
	require.NoError(t, err)
	assert.NotEqual(t, rs, reordered)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]string{"/a/", "/b/"}, []string{"status://404"})
	require.ErrorIs(t, err, ErrUnequalFromTo)
	assert.Equal(t, "unequal number of `from` and `to` addresses", err.Error())

	_, err = Parse([]string{"/a/", "/b"}, []string{"status://404", "status://200"})
	require.ErrorIs(t, err, ErrMissingTrailingSlash)
	var pairErr *PairError
	require.ErrorAs(t, err, &pairErr)
	assert.Equal(t, "/b", pairErr.From)
	assert.Equal(t, "status://200", pairErr.To)
	assert.Equal(t, "/b -> status://200: path must end with '/'", err.Error())

	_, err = Parse([]string{"/a/"}, []string{"http://localhost/|/index.html"})
	require.ErrorIs(t, err, ErrFallbackNotAllowed)
	assert.Contains(t, err.Error(), "/a/ -> http://localhost/|/index.html")
}

func TestRuleString(t *testing.T) {
	r := Rule{From: MustParseFrom("/api/"), To: MustParseTo("http://localhost:8080")}
	assert.Equal(t, "/api/ -> http://localhost:8080/", r.String())
}
