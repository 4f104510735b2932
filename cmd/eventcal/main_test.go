package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectEventLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"eventcal"},
			want: []string{"eventcal"},
		},
		{
			name: "event id first token",
			in:   []string{"eventcal", "ev-abc123"},
			want: []string{"eventcal", "events", "show", "ev-abc123"},
		},
		{
			name: "event id after value flag",
			in:   []string{"eventcal", "--dir", "./tmp-data", "ev-abc123"},
			want: []string{"eventcal", "--dir", "./tmp-data", "events", "show", "ev-abc123"},
		},
		{
			name: "event id after equals flag",
			in:   []string{"eventcal", "--dir=./tmp-data", "ev-abc123"},
			want: []string{"eventcal", "--dir=./tmp-data", "events", "show", "ev-abc123"},
		},
		{
			name: "event id after bool flag",
			in:   []string{"eventcal", "--pretty", "ev-abc123"},
			want: []string{"eventcal", "--pretty", "events", "show", "ev-abc123"},
		},
		{
			name: "event id after log level",
			in:   []string{"eventcal", "--log-level", "debug", "ev-abc123"},
			want: []string{"eventcal", "--log-level", "debug", "events", "show", "ev-abc123"},
		},
		{
			name: "event id after double dash",
			in:   []string{"eventcal", "--dir", "./tmp-data", "--", "ev-abc123"},
			want: []string{"eventcal", "--dir", "./tmp-data", "--", "events", "show", "ev-abc123"},
		},
		{
			name: "bare prefix is not an id",
			in:   []string{"eventcal", "ev-"},
			want: []string{"eventcal", "ev-"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"eventcal", "events", "show", "ev-abc123"},
			want: []string{"eventcal", "events", "show", "ev-abc123"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"eventcal", "wat"},
			want: []string{"eventcal", "wat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectEventLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectEventLookupArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
