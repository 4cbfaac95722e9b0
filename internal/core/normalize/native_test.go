package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/markdave123-py/Docura/internal/core"
)

func TestSplitBlocks(t *testing.T) {
	text := "First paragraph.\n\n  \n\nSecond paragraph.\n\n\tThird with tab.  "
	got := splitBlocks(text)
	assert.Equal(t, []string{"First paragraph.", "Second paragraph.", "Third with tab."}, got)
}

func TestSplitBlocksEmpty(t *testing.T) {
	assert.Nil(t, splitBlocks(""))
	assert.Nil(t, splitBlocks("  \n\n \n\n\t"))
}

func TestNativeNormalizerProvider(t *testing.T) {
	assert.Equal(t, core.ProviderNative, NewNativeNormalizer().Provider())
}
