package prompt

import (
	"strings"
	"testing"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	primary    = domain.ImageAsset{MimeType: "image/jpeg", Data: []byte("primary")}
	product    = domain.ImageAsset{MimeType: "image/jpeg", Data: []byte("product")}
	background = domain.ImageAsset{MimeType: "image/jpeg", Data: []byte("background")}
)

func TestRedesign_SketchOnly(t *testing.T) {
	comp, err := Redesign(RedesignInput{Primary: primary, Prompt: "add a red door", IsSketched: true})
	require.NoError(t, err)

	assert.Equal(t, 1, comp.ImageCount())
	assert.Contains(t, comp.Text, "SKETCH CONSTRAINT")
	assert.Contains(t, comp.Text, `Interpret "add a red door" strictly as what to do within the marked regions`)
	assert.NotContains(t, comp.Text, "PRODUCT INTEGRATION")
	assert.NotContains(t, comp.Text, "BACKGROUND REPLACEMENT")
}

func TestRedesign_ProductAndBackground(t *testing.T) {
	comp, err := Redesign(RedesignInput{
		Primary:    primary,
		Prompt:     "golden hour",
		Product:    product,
		Background: background,
	})
	require.NoError(t, err)

	require.Equal(t, 3, comp.ImageCount())
	assert.Equal(t, []domain.ImageAsset{primary, product, background}, comp.Images)
	assert.Contains(t, comp.Text, "The second image provided shows a specific product")
	assert.Contains(t, comp.Text, "The third image provided is the new environment")
	assert.NotContains(t, comp.Text, "SKETCH CONSTRAINT")

	// ブロックの順序: 基本 → 商品 → 背景 → 出力
	idxBase := strings.Index(comp.Text, "EDIT the first image")
	idxProduct := strings.Index(comp.Text, "PRODUCT INTEGRATION")
	idxBackground := strings.Index(comp.Text, "BACKGROUND REPLACEMENT")
	idxOutput := strings.Index(comp.Text, "OUTPUT:")
	assert.True(t, idxBase < idxProduct && idxProduct < idxBackground && idxBackground < idxOutput)
}

func TestRedesign_BackgroundWithoutProductIsSecondImage(t *testing.T) {
	comp, err := Redesign(RedesignInput{Primary: primary, Prompt: "snowy", Background: background})
	require.NoError(t, err)

	assert.Equal(t, 2, comp.ImageCount())
	assert.Contains(t, comp.Text, "The second image provided is the new environment")
	assert.NotContains(t, comp.Text, "third image")
}

func TestRedesign_PromptRequiredWithoutReferences(t *testing.T) {
	_, err := Redesign(RedesignInput{Primary: primary, Prompt: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyPrompt)

	comp, err := Redesign(RedesignInput{Primary: primary, Product: product})
	require.NoError(t, err)
	assert.NotContains(t, comp.Text, "Requested change")
}

func TestRedesign_SketchOnlyNeedsNoPrompt(t *testing.T) {
	comp, err := Redesign(RedesignInput{Primary: primary, IsSketched: true})
	require.NoError(t, err)

	assert.Equal(t, 1, comp.ImageCount())
	assert.Contains(t, comp.Text, "SKETCH CONSTRAINT")
	assert.NotContains(t, comp.Text, "Requested change")
	assert.NotContains(t, comp.Text, `Interpret ""`)
}

func TestRedesign_AlwaysEndsWithOutputBlock(t *testing.T) {
	comp, err := Redesign(RedesignInput{Primary: primary, Prompt: "paint it white"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(comp.Text, "watermarks, or logos."))
	assert.Contains(t, comp.Text, "Requested change: paint it white")
}

func TestRotate(t *testing.T) {
	comp, err := Rotate(RotateInput{Primary: primary, Direction: domain.DirectionLeft})
	require.NoError(t, err)

	assert.Equal(t, 1, comp.ImageCount())
	assert.Contains(t, comp.Text, "rotated exactly 45 degrees to the left")
	assert.Contains(t, comp.Text, "rotate a further 45 degrees")

	_, err = Rotate(RotateInput{Primary: primary, Direction: "up"})
	assert.ErrorIs(t, err, domain.ErrInvalidDirection)
}

func TestOrdinal(t *testing.T) {
	assert.Equal(t, "first", Ordinal(1))
	assert.Equal(t, "third", Ordinal(3))
	assert.Equal(t, "#9", Ordinal(9))
}
