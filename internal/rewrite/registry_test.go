package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinClassesAreOrdered(t *testing.T) {
	classes := List()
	require.GreaterOrEqual(t, len(classes), 3)
	assert.Equal(t, ClassStylesheet, classes[0].Key)
	assert.Equal(t, ClassScript, classes[1].Key)
	assert.Equal(t, ClassImage, classes[2].Key)

	image, ok := Resolve(" IMAGE ")
	require.True(t, ok)
	assert.True(t, image.Optional)
	assert.Equal(t, "src", image.Attr)
}

func TestRegistryRejectsInvalidClasses(t *testing.T) {
	reg := newRegistry()

	require.NoError(t, reg.register(ReferenceClass{Key: "Media", Selector: "video[src]", Attr: "src", Order: 40}))
	assert.Error(t, reg.register(ReferenceClass{Key: "media", Selector: "audio[src]", Attr: "src"}))
	assert.Error(t, reg.register(ReferenceClass{Key: "", Selector: "a", Attr: "href"}))
	assert.Error(t, reg.register(ReferenceClass{Key: "anchor", Attr: "href"}))
	assert.Error(t, reg.register(ReferenceClass{Key: "anchor", Selector: "a"}))

	class, ok := reg.resolve("MEDIA")
	require.True(t, ok)
	assert.Equal(t, "media", class.Key)

	_, ok = reg.resolve("")
	assert.False(t, ok)
}

func TestRegistryListSortsByOrderThenKey(t *testing.T) {
	reg := newRegistry()
	require.NoError(t, reg.register(ReferenceClass{Key: "b", Selector: "b", Attr: "x", Order: 5}))
	require.NoError(t, reg.register(ReferenceClass{Key: "a", Selector: "a", Attr: "x", Order: 5}))
	require.NoError(t, reg.register(ReferenceClass{Key: "z", Selector: "z", Attr: "x", Order: 1}))

	var keys []string
	for _, class := range reg.list() {
		keys = append(keys, class.Key)
	}
	assert.Equal(t, []string{"z", "a", "b"}, keys)
}
