package actorcore

import "sync/atomic"

// MigrationMode is the balancer's directive for a worker's migration slot.
type MigrationMode uint8

const (
	MigrationNone MigrationMode = iota
	MigrationPush
	MigrationPull
)

// MigrationParams is the unpacked form of a worker's migration slot:
// a target worker and a balance threshold (spec.md §4.E).
type MigrationParams struct {
	Target  int
	Mode    MigrationMode
	Balance int
}

// migrationSlot packs {target:32, mode:2, balance:30} into one atomic
// 64-bit word for lock-free updates by the balancer (spec.md §4.E/F),
// grounded on original_source/src/migration.rs's bit layout.
type migrationSlot struct {
	packed atomic.Uint64
	_      cachePad
}

func packMigration(p MigrationParams) uint64 {
	target := uint64(p.Target) & 0xFFFF_FFFF
	mode := uint64(p.Mode) & 0b11
	balance := uint64(p.Balance) & 0x3FFF_FFFF
	return target | (mode << 32) | (balance << 34)
}

func unpackMigration(word uint64) MigrationParams {
	target := word & 0xFFFF_FFFF
	mode := MigrationMode((word >> 32) & 0b11)
	balance := (word >> 34) & 0x3FFF_FFFF
	return MigrationParams{Target: int(target), Mode: mode, Balance: int(balance)}
}

// Store overwrites the slot.
func (s *migrationSlot) Store(p MigrationParams) {
	s.packed.Store(packMigration(p))
}

// Load reads the slot without mutating it.
func (s *migrationSlot) Load() MigrationParams {
	return unpackMigration(s.packed.Load())
}

// LoadForPush reads the slot and, if it is currently Push, atomically
// resets it to None (a Pull slot is left in place and re-evaluated every
// worker iteration, per spec.md §4.E step 3).
func (s *migrationSlot) LoadForPush() MigrationParams {
	for {
		word := s.packed.Load()
		params := unpackMigration(word)

		newMode := params.Mode
		if newMode == MigrationPush {
			newMode = MigrationNone
		}
		if newMode == params.Mode {
			return params
		}

		newWord := packMigration(MigrationParams{Target: params.Target, Mode: newMode, Balance: params.Balance})
		if s.packed.CompareAndSwap(word, newWord) {
			return params
		}
	}
}
