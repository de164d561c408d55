package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapitalize(t *testing.T) {
	testCases := []struct {
		in     string
		expect string
	}{
		{in: "", expect: ""},
		{in: "иванов", expect: "Иванов"},
		{in: "ПЕТРОВ", expect: "Петров"},
		{in: "оглы АЛИ", expect: "Оглы али"},
		{in: "smith", expect: "Smith"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, Capitalize(test.in))
	}
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "статуспроверки", NormalizeName("  Статус \n проверки "))
}
