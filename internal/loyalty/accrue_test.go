package loyalty

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointsFor(t *testing.T) {
	cases := []struct {
		name      string
		total     string
		pointsPer int64
		want      int64
	}{
		{"exact multiple", "100000", 10_000, 10},
		{"rounds down", "149999.99", 10_000, 14},
		{"below threshold", "9999", 10_000, 0},
		{"zero total", "0", 10_000, 0},
		{"negative total", "-500", 10_000, 0},
		{"zero rate", "100000", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total := decimal.RequireFromString(tc.total)
			assert.Equal(t, tc.want, PointsFor(total, tc.pointsPer))
		})
	}
}

func TestNewAccrueTaskRoundTrip(t *testing.T) {
	payload := AccruePayload{
		SaleID:   uuid.New(),
		MemberID: uuid.New(),
		Total:    decimal.RequireFromString("250000"),
	}
	task, err := NewAccrueTask(payload)
	require.NoError(t, err)
	assert.Equal(t, TypeAccrue, task.Type())

	var decoded AccruePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, payload.SaleID, decoded.SaleID)
	assert.Equal(t, payload.MemberID, decoded.MemberID)
	assert.True(t, payload.Total.Equal(decoded.Total))
}
