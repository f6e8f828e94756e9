package sink

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/mediatest"
)

func glsinkbinChildren() *mediatest.Bin {
	return mediatest.NewBin("glsinkbin0",
		mediatest.NewElement("glcolorconvert", "convert"),
		mediatest.NewElement("glcolorbalance", "balance"),
		mediatest.NewElement("glupload", "upload"),
	)
}

func TestWalkBudget(t *testing.T) {
	tests := []struct {
		children int
		want     int
	}{
		{0, 2},
		{1, 2},
		{2, 3},
		{3, 4},
		{7, 8},
		{20, MaxWalks},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d children", tt.children), func(t *testing.T) {
			assert.Equal(t, tt.want, WalkBudget(tt.children))
		})
	}
}

func TestFindElement_NoFault(t *testing.T) {
	bin := glsinkbinChildren()

	d := FindElement(bin, "glupload")
	require.True(t, d.Found)
	assert.Equal(t, "upload", d.Element.Name())
	assert.Equal(t, 1, d.Walks)
	assert.Equal(t, 1, bin.Walks)
}

func TestFindElement_RecoversFromOneResync(t *testing.T) {
	bin := glsinkbinChildren()
	bin.ResyncFaults = 1

	d := FindElement(bin, "glupload")
	require.True(t, d.Found)
	assert.Equal(t, "upload", d.Element.Name())
	assert.Equal(t, 2, d.Walks)
	assert.LessOrEqual(t, bin.Walks, WalkBudget(3))
}

func TestFindElement_ResyncWithoutMatch(t *testing.T) {
	bin := mediatest.NewBin("sinkbin",
		mediatest.NewElement("glcolorconvert", "convert"),
		mediatest.NewElement("glimagesink", "sink"),
	)
	bin.ResyncFaults = 1

	d := FindElement(bin, "glupload")
	assert.False(t, d.Found)
	assert.False(t, d.Exhausted)
	assert.Nil(t, d.Element)
	assert.Equal(t, 2, d.Walks)
}

func TestFindElement_PersistentResyncTerminates(t *testing.T) {
	bin := glsinkbinChildren()
	bin.PersistentResync = true

	d := FindElement(bin, "glupload")
	assert.False(t, d.Found)
	assert.True(t, d.Exhausted)
	assert.Equal(t, WalkBudget(3), d.Walks)
	assert.Equal(t, WalkBudget(3), bin.Walks, "no walk beyond the budget")
}

func TestFindElement_EmptyBin(t *testing.T) {
	d := FindElement(mediatest.NewBin("empty"), "glupload")
	assert.False(t, d.Found)
	assert.Equal(t, 1, d.Walks)
}

func TestFindElement_InsideBuiltGLSinkBin(t *testing.T) {
	fw := mediatest.NewGLFramework()
	b, appsink, pipeline := newFixture(t, fw)

	inst, err := b.Build(PathGL, appsink, pipeline)
	require.NoError(t, err)

	bin, ok := inst.GLSinkBin.AsBin()
	require.True(t, ok)

	d := FindElement(bin, DefaultElements().Upload)
	require.True(t, d.Found)
	assert.Equal(t, "glupload", d.Element.FactoryName())
}
