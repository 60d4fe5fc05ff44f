package reltype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternAssignsSequentialIds(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, 0, r.Intern("KNOWS"))
	require.Equal(t, 1, r.Intern("LIKES"))
	require.Equal(t, 0, r.Intern("KNOWS"), "re-interning an existing name must return its original id")
	require.Equal(t, 2, r.Intern("FOLLOWS"))
}
