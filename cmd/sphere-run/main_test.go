package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitKeys(t *testing.T) {
	assert.Nil(t, splitKeys(""))
	assert.Equal(t, []string{"fe_14MeV_jeff33"}, splitKeys("fe_14MeV_jeff33"))
	assert.Equal(t, []string{"a", "b"}, splitKeys(" a, ,b ,"))
}
