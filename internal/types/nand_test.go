package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceTagValue(t *testing.T) {
	assert.Equal(t, uint32(0x4E414E44), DeviceTagValue)
	assert.Equal(t, "NAND", DeviceTag)
}

func TestTableLayout_Membership(t *testing.T) {
	layout := TableLayout{PrimaryStart: 10, BackupStart: 14, Sectors: 4}

	assert.True(t, layout.InPrimary(10))
	assert.True(t, layout.InPrimary(13))
	assert.False(t, layout.InPrimary(14))
	assert.True(t, layout.InBackup(14))
	assert.True(t, layout.InBackup(17))
	assert.False(t, layout.InBackup(18))

	assert.True(t, layout.Contains(11))
	assert.True(t, layout.Contains(16))
	assert.False(t, layout.Contains(9))
	assert.False(t, layout.Contains(18))
}

func TestTableLayout_Overlaps(t *testing.T) {
	layout := TableLayout{PrimaryStart: 10, BackupStart: 14, Sectors: 4}

	tests := []struct {
		name  string
		start uint64
		count uint32
		want  bool
	}{
		{"entirely before", 0, 10, false},
		{"touches first sector", 9, 2, true},
		{"inside", 11, 2, true},
		{"covers whole region", 8, 10, true},
		{"starts at last sector", 13, 1, true},
		{"starts past region", 14, 2, false},
		{"zero count", 10, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, layout.Overlaps(tt.start, tt.count))
		})
	}
}

func TestTableLayout_Valid(t *testing.T) {
	assert.True(t, TableLayout{PrimaryStart: 1, BackupStart: 33, Sectors: 32}.Valid())
	assert.True(t, TableLayout{PrimaryStart: 33, BackupStart: 1, Sectors: 32}.Valid())
	assert.False(t, TableLayout{PrimaryStart: 1, BackupStart: 16, Sectors: 32}.Valid())
	assert.False(t, TableLayout{PrimaryStart: 1, BackupStart: 33, Sectors: 0}.Valid())
}
