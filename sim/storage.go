package sim

import (
	"reflect"

	"github.com/pkg/errors"
)

// shadowEntry records the pre-frame state of one storage slot so a later
// revert can restore it. A slot that did not exist when first written within
// a frame is recorded with existed == false; reverting such an entry removes
// the slot entirely.
type shadowEntry struct {
	value   any
	kind    reflect.Type
	existed bool
}

// storageKey computes the full storage key for a logical key: the address of
// the contract currently executing, concatenated with the key. Binding keys to
// the active callee (never the caller) is what isolates storage per contract.
func (s *Simulator) storageKey(key string) string {
	return s.Callee().Hex() + key
}

// PutStorage writes a value into the current contract's storage under the
// provided logical key, declaring the value's own runtime type. Must be called
// with an active frame.
func (s *Simulator) PutStorage(key string, value any) error {
	var kind reflect.Type
	if value != nil {
		kind = reflect.TypeOf(value)
	}
	return s.PutStorageTyped(key, value, kind)
}

// PutStorageTyped writes a value into the current contract's storage under the
// provided logical key with an explicitly declared type.
//
// The first write to a slot within the lifetime of the current frame snapshots
// the slot's pre-frame state (value, declared type, and whether it existed)
// into the frame's shadow bucket; subsequent writes within the same frame do
// not touch the snapshot, so a revert always restores the state as it was when
// the frame was entered. The live store is then overwritten unconditionally.
func (s *Simulator) PutStorageTyped(key string, value any, kind reflect.Type) error {
	frame := s.CurrentFrame()
	if frame.readonly {
		return errors.Wrapf(ErrReadOnlyFrame, "key %q", key)
	}
	fullKey := s.storageKey(key)

	// Keep the old value in case of a revert. Only the first write to a slot
	// in the current frame records a snapshot.
	shadow := s.frameShadow[frame.depth]
	if shadow == nil {
		shadow = make(map[string]shadowEntry)
		s.frameShadow[frame.depth] = shadow
	}
	if _, snapshotted := shadow[fullKey]; !snapshotted {
		prior, existed := s.storage[fullKey]
		shadow[fullKey] = shadowEntry{
			value:   prior,
			kind:    s.storageKinds[fullKey],
			existed: existed,
		}
	}

	s.writeStorage(fullKey, value, kind)
	return nil
}

// writeStorage performs the raw store update, bypassing shadow bookkeeping.
func (s *Simulator) writeStorage(fullKey string, value any, kind reflect.Type) {
	s.storage[fullKey] = value
	s.storageKinds[fullKey] = kind
}

// GetStorage reads the current contract's storage under the provided logical
// key. An absent key yields (nil, false) rather than an error. Must be called
// with an active frame.
func (s *Simulator) GetStorage(key string) (any, bool) {
	value, ok := s.storage[s.storageKey(key)]
	return value, ok
}

// GetStorageKind returns the declared type recorded for the current contract's
// storage slot, or nil if the slot is absent or was stored without a type.
func (s *Simulator) GetStorageKind(key string) reflect.Type {
	return s.storageKinds[s.storageKey(key)]
}

// RevertCurrentFrame restores every storage slot modified during the lifetime
// of the current frame to its pre-frame state, including the declared type
// recorded at snapshot time. Slots that did not exist when the frame was
// entered are removed. If the frame wrote nothing, this is a no-op.
//
// Reverting does not pop the frame and does not touch account balances;
// callers decide whether to pop afterward.
func (s *Simulator) RevertCurrentFrame() error {
	frame := s.CurrentFrame()
	shadow := s.frameShadow[frame.depth]
	if shadow == nil {
		// Nothing was written in the current frame.
		return nil
	}

	for fullKey, entry := range shadow {
		if entry.existed {
			// Write back the pre-frame value with the type recorded at
			// snapshot time, not the type of the last write.
			s.writeStorage(fullKey, entry.value, entry.kind)
		} else {
			delete(s.storage, fullKey)
			delete(s.storageKinds, fullKey)
		}
	}
	s.logger.Debug("reverted frame at depth ", frame.depth, ", slots restored: ", len(shadow))

	return s.Events.FrameReverted.Publish(FrameRevertedEvent{
		Simulator:     s,
		Depth:         frame.depth,
		SlotsRestored: len(shadow),
	})
}
