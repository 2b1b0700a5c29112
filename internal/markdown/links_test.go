package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func destinations(links []Link, kind LinkKind) []string {
	var out []string
	for _, l := range links {
		if l.Kind == kind {
			out = append(out, l.Destination)
		}
	}
	return out
}

func TestExtractLinks_InlineAndImage(t *testing.T) {
	body := []byte("See [values](../language/values) and ![diagram](diagram.png).\n")

	links, err := ExtractLinks(body)
	require.NoError(t, err)

	require.Equal(t, []string{"../language/values"}, destinations(links, LinkKindInline))
	require.Equal(t, []string{"diagram.png"}, destinations(links, LinkKindImage))
}

func TestExtractLinks_AutoLink(t *testing.T) {
	body := []byte("Visit <https://ard.dev> for more.\n")

	links, err := ExtractLinks(body)
	require.NoError(t, err)
	require.Equal(t, []string{"https://ard.dev"}, destinations(links, LinkKindAuto))
}

func TestExtractLinks_ReferenceDefinitions(t *testing.T) {
	body := []byte("See the [language reference][ref].\n\n[ref]: https://ard.dev/reference\n")

	links, err := ExtractLinks(body)
	require.NoError(t, err)
	// The resolved reference link and its definition are both reported.
	require.Equal(t, []string{"https://ard.dev/reference"}, destinations(links, LinkKindInline))
	require.Equal(t, []string{"https://ard.dev/reference"}, destinations(links, LinkKindReferenceDefinition))
}

func TestExtractLinks_CodeSpansIgnored(t *testing.T) {
	body := []byte("Run `ard build [target]` and see\n\n```\n[not](a-link)\n```\n")

	links, err := ExtractLinks(body)
	require.NoError(t, err)
	require.Empty(t, links)
}
