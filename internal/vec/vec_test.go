package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec2_ChebyshevDistance(t *testing.T) {
	a := Vec2{X: 0, Y: 0}

	assert.Equal(t, 0, a.ChebyshevDistance(a))
	assert.Equal(t, 1, a.ChebyshevDistance(Vec2{X: 1, Y: 1}), "диагональ считается одним шагом")
	assert.Equal(t, 3, a.ChebyshevDistance(Vec2{X: -3, Y: 2}))
	assert.Equal(t, 4, Vec2{X: 2, Y: -2}.ChebyshevDistance(Vec2{X: 1, Y: 2}))
}

func TestVec2Float_Round(t *testing.T) {
	assert.Equal(t, Vec2{X: 3, Y: -2}, Vec2Float{X: 2.6, Y: -1.5}.Round())
	assert.Equal(t, Vec2{X: 0, Y: 0}, Vec2Float{X: 0.4, Y: -0.4}.Round())
	assert.Equal(t, Vec2Float{X: 4, Y: 5}, FromVec2(Vec2{X: 4, Y: 5}))
}
