package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipientFilter(t *testing.T) {
	prog, err := Compile(`Role in ["admin", "billing"] or Role == "client"`)
	require.NoError(t, err)

	assert.True(t, Run(prog, Env{UserId: "u1", Role: "billing"}))
	assert.True(t, Run(prog, Env{UserId: "u2", Role: "client"}))
	assert.False(t, Run(prog, Env{UserId: "u3", Role: "designer"}))
}

func TestFilterOnProjects(t *testing.T) {
	prog, err := Compile(`"p1" in ProjectIds and IsStaff`)
	require.NoError(t, err)

	assert.True(t, Run(prog, Env{Role: "admin", IsStaff: true, ProjectIds: []string{"p1", "p2"}}))
	assert.False(t, Run(prog, Env{Role: "client", IsStaff: false, ProjectIds: []string{"p1"}}))
	assert.False(t, Run(prog, Env{Role: "admin", IsStaff: true, ProjectIds: []string{"p2"}}))
}

func TestNilProgramPassesEveryone(t *testing.T) {
	assert.True(t, Run(nil, Env{}))
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(`Role ==`)
	assert.Error(t, err)

	// filters must evaluate to a boolean
	_, err = Compile(`Role`)
	assert.Error(t, err)

	_, err = Compile(`NoSuchField == 1`)
	assert.Error(t, err)
}
