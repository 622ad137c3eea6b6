package actorcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationSlot_StoreLoadRoundTrip(t *testing.T) {
	var slot migrationSlot
	params := MigrationParams{Target: 5, Mode: MigrationPull, Balance: 12}
	slot.Store(params)
	assert.Equal(t, params, slot.Load())
}

func TestMigrationSlot_LoadForPushResetsOnlyPush(t *testing.T) {
	var slot migrationSlot
	slot.Store(MigrationParams{Target: 2, Mode: MigrationPush, Balance: 9})

	got := slot.LoadForPush()
	assert.Equal(t, MigrationPush, got.Mode)
	assert.Equal(t, MigrationNone, slot.Load().Mode, "push slot must self-clear after one read")
}

func TestMigrationSlot_LoadForPushLeavesPullInPlace(t *testing.T) {
	var slot migrationSlot
	params := MigrationParams{Target: 3, Mode: MigrationPull, Balance: 4}
	slot.Store(params)

	first := slot.LoadForPush()
	second := slot.LoadForPush()
	assert.Equal(t, params, first)
	assert.Equal(t, params, second, "pull slot is re-evaluated every iteration, not consumed")
}

func TestPackUnpackMigration_RoundTripsFullRange(t *testing.T) {
	cases := []MigrationParams{
		{Target: 0, Mode: MigrationNone, Balance: 0},
		{Target: 127, Mode: MigrationPush, Balance: 1 << 20},
		{Target: 1, Mode: MigrationPull, Balance: 1},
	}
	for _, c := range cases {
		got := unpackMigration(packMigration(c))
		assert.Equal(t, c, got)
	}
}
