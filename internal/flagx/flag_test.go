package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	allowed := map[string]bool{"-c": true, "--config": true, "-l": false}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "short flag with separate value",
			args: []string{"-c", "conf.json", "-a", "localhost"},
			want: []string{"-c", "conf.json"},
		},
		{
			name: "long flag with equals",
			args: []string{"--config=alt.json", "-a", "localhost"},
			want: []string{"--config=alt.json"},
		},
		{
			name: "both forms present, order preserved",
			args: []string{"--config=first.json", "-c", "second.json", "-x", "1"},
			want: []string{"--config=first.json", "-c", "second.json"},
		},
		{
			name: "unknown flags ignored",
			args: []string{"-x", "1", "--y=2", "positional"},
			want: []string{},
		},
		{
			name: "value flag at end kept as-is",
			args: []string{"-c"},
			want: []string{"-c"},
		},
		{
			name: "value flag followed by another flag",
			args: []string{"-c", "-notvalue"},
			want: []string{"-c"},
		},
		{
			name: "bool flag never consumes the next argument",
			args: []string{"-l", "positional", "-c", "x.json"},
			want: []string{"-l", "-c", "x.json"},
		},
		{
			name: "bool flag with explicit value",
			args: []string{"-l=false"},
			want: []string{"-l=false"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, allowed))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	assert.Equal(t, "a.json", ConfigFileFlag([]string{"-c", "a.json", "-s", "secret"}))
	assert.Equal(t, "b.json", ConfigFileFlag([]string{"-config=b.json"}))
	assert.Equal(t, "", ConfigFileFlag([]string{"-s", "secret"}))
}
