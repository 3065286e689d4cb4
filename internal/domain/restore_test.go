package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name     string
		supplied string
		force    bool
		want     bool
	}{
		{"matching token", ConfirmToken, false, true},
		{"wrong token", "restore", false, false},
		{"empty token", "", false, false},
		{"force overrides token", "", true, true},
		{"force with wrong token", "nope", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Confirm(ConfirmToken, tt.supplied, tt.force))
		})
	}
}
