package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProvider(t *testing.T) {
	p, ok := ParseProvider(" numfree ")
	assert.True(t, ok)
	assert.Equal(t, ProviderFree, p)

	_, ok = ParseProvider("numMolotov")
	assert.False(t, ok)
}

func TestProviderValid(t *testing.T) {
	for _, p := range Providers {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, Provider("nomChaine").Valid())
	assert.False(t, Provider("numtnt").Valid(), "only the canonical spelling may reach SQL")
}
