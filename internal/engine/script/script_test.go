package script

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	require.NoError(t, Verify())
}

func TestAllNamesRegistered(t *testing.T) {
	all := All()
	for _, name := range []string{NameCapture, NameMetrics, NameScrollTo, NameAnchor, NameFillForm, NameSettle, NameGetTitle} {
		assert.Contains(t, all, name)
		assert.NotEmpty(t, all[name])
	}
}

// FillForm has no DOM dependency beyond document lookups, so the escaping of
// field names can be checked by compiling and inspecting the function shape.
func TestSnippetsAreFunctions(t *testing.T) {
	vm := goja.New()
	for name, src := range All() {
		v, err := vm.RunString(src)
		require.NoError(t, err, "snippet %s", name)
		_, ok := goja.AssertFunction(v)
		assert.True(t, ok, "snippet %s must evaluate to a function", name)
	}
}
