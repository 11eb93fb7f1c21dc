package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			"separate value kept",
			[]string{"-a", ":8080", "-x", "junk"},
			[]string{"-a"},
			[]string{"-a", ":8080"},
		},
		{
			"equals form kept",
			[]string{"--config=conf.json", "-d", "dsn"},
			[]string{"--config"},
			[]string{"--config=conf.json"},
		},
		{
			"unknown flags dropped",
			[]string{"-z", "1", "-q"},
			[]string{"-a"},
			[]string{},
		},
		{
			"flag followed by another flag has no value",
			[]string{"-a", "-d", "dsn"},
			[]string{"-a", "-d"},
			[]string{"-a", "-d", "dsn"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}
