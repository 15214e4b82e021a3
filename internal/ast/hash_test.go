package ast

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashWithDomainNullSeparator(t *testing.T) {
	// "ab" + 0x00 + "c" must differ from "a" + 0x00 + "bc".
	assert.NotEqual(t, HashWithDomain("ab", []byte("c")), HashWithDomain("a", []byte("bc")))
}

func TestHashHexEncoding(t *testing.T) {
	h := HashWithDomain(DomainNode, []byte("x"))
	assert.Len(t, h, 64)
	_, err := hex.DecodeString(h)
	assert.NoError(t, err)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`{"type":"Identifier","name":"a"}`)
	assert.NotEqual(t, HashWithDomain(DomainNode, data), HashWithDomain(DomainSource, data))
}

func TestFingerprintStructural(t *testing.T) {
	a := &Member{Object: NewIdent("a"), Property: NewIdent("b")}
	b := &Member{Object: NewIdent("a"), Property: NewIdent("b")}
	c := &Member{Object: NewIdent("a"), Property: NewIdent("c")}

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	fc, err := Fingerprint(c)
	require.NoError(t, err)

	assert.Equal(t, fa, fb)
	assert.NotEqual(t, fa, fc)
}

func TestFingerprintDistinguishesForms(t *testing.T) {
	src, err := Fingerprint(NewIdent("x"))
	require.NoError(t, err)
	ref, err := Fingerprint(&Ref{Name: "x"})
	require.NoError(t, err)
	assert.NotEqual(t, src, ref)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(
		&Binary{Op: "+", Left: NewIdent("a"), Right: NewNumber("1")},
		&Binary{Op: "+", Left: NewIdent("a"), Right: NewNumber("1")},
	))
	assert.False(t, Equal(
		&Binary{Op: "+", Left: NewIdent("a"), Right: NewNumber("1")},
		&Binary{Op: "-", Left: NewIdent("a"), Right: NewNumber("1")},
	))
	assert.False(t, Equal(&Member{Object: NewIdent("a"), Property: NewIdent("b")}, &Member{Object: NewIdent("a"), Property: NewIdent("b"), Computed: true}))
}
