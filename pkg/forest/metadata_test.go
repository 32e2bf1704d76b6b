package forest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataWithTagAddsOnce(t *testing.T) {
	md := Metadata{}

	md = md.WithTag(TagUnread)
	md = md.WithTag(TagUnread)

	require.Equal(t, []string{TagUnread}, md.Tags)
	require.True(t, md.HasTag(TagUnread))
}

func TestMetadataWithoutTagRemoves(t *testing.T) {
	md := Metadata{Tags: []string{"inactive", TagUnread}}

	md = md.WithoutTag(TagUnread)

	require.Equal(t, []string{"inactive"}, md.Tags)
	require.False(t, md.HasTag(TagUnread))
}

func TestMetadataWithoutTagOnEmpty(t *testing.T) {
	md := Metadata{}

	require.Empty(t, md.WithoutTag(TagUnread).Tags)
}

func TestMetadataMutatorsCopy(t *testing.T) {
	md := Metadata{
		Tags:  []string{TagUnread},
		Extra: map[string]interface{}{"color": "green"},
	}

	_ = md.WithoutTag(TagUnread)
	_ = md.WithTag("inactive")

	require.Equal(t, []string{TagUnread}, md.Tags)
	require.Equal(t, "green", md.Extra["color"])
}
