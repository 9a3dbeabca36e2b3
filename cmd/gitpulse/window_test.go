package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/gitpulse/internal/errors"
	"github.com/rohankatakam/gitpulse/internal/ingestion"
)

func TestWindowFlags(t *testing.T) {
	now := time.Date(2024, 3, 16, 15, 30, 0, 0, time.Local)

	tests := []struct {
		name     string
		flags    windowFlags
		wantFrom string
		wantTo   string
		wantKind string
		wantErr  bool
	}{
		{name: "default is today", wantFrom: "2024-03-16", wantTo: "2024-03-16", wantKind: ingestion.KindRecent},
		{name: "day", flags: windowFlags{day: "2024-03-15"}, wantFrom: "2024-03-15", wantTo: "2024-03-15", wantKind: ingestion.KindDay},
		{name: "range", flags: windowFlags{from: "2024-03-01", to: "2024-03-10"}, wantFrom: "2024-03-01", wantTo: "2024-03-10", wantKind: ingestion.KindRange},
		{name: "open range ends today", flags: windowFlags{from: "2024-03-10"}, wantFrom: "2024-03-10", wantTo: "2024-03-16", wantKind: ingestion.KindRange},
		{name: "recent days", flags: windowFlags{days: 7}, wantFrom: "2024-03-10", wantTo: "2024-03-16", wantKind: ingestion.KindRecent},
		{name: "to without from", flags: windowFlags{to: "2024-03-10"}, wantErr: true},
		{name: "negative days", flags: windowFlags{days: -1}, wantErr: true},
		{name: "conflicting flags", flags: windowFlags{day: "2024-03-15", days: 3}, wantErr: true},
		{name: "bad day", flags: windowFlags{day: "15/03/2024"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := tt.flags.window(now)
			if tt.wantErr {
				assert.True(t, errors.HasType(err, errors.ErrorTypeValidation), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, w.From.Format("2006-01-02"))
			assert.Equal(t, tt.wantTo, w.To.Format("2006-01-02"))
			assert.Equal(t, tt.wantKind, w.Kind)
		})
	}
}
