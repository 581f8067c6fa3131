package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func known() Layout {
	return Layout{
		{ID: "kpi", Label: "KPI Cards", Visible: true},
		{ID: "chart", Label: "Revenue Chart", Visible: true},
		{ID: "activity", Label: "Activity Feed", Visible: true},
	}
}

func TestLayoutIndexAndIDs(t *testing.T) {
	l := known()
	assert.Equal(t, []string{"kpi", "chart", "activity"}, l.IDs())
	assert.Equal(t, 1, l.Index("chart"))
	assert.Equal(t, -1, l.Index("nope"))
}

func TestLayoutCloneIsIndependent(t *testing.T) {
	l := known()
	c := l.Clone()
	c[0].Visible = false
	assert.True(t, l[0].Visible)
	assert.Nil(t, Layout(nil).Clone())
}

func TestLayoutEqual(t *testing.T) {
	a, b := known(), known()
	assert.True(t, a.Equal(b))
	b[2].Visible = false
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(b[:2]))
}

func TestLayoutValidate(t *testing.T) {
	k := known()
	require.NoError(t, Layout{k[2], k[0], k[1]}.Validate(k))

	tests := []struct {
		name string
		l    Layout
	}{
		{"missing", Layout{k[0], k[1]}},
		{"duplicate", Layout{k[0], k[0], k[1]}},
		{"foreign", Layout{k[0], k[1], {ID: "map"}}},
		{"extra", Layout{k[0], k[1], k[2], {ID: "map"}}},
		{"empty", Layout{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.l.Validate(k))
		})
	}
}
