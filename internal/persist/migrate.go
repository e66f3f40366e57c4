package persist

// migration transforms an envelope of one version into the next. New rules
// are registered here when the stored format changes.
type migration func(envelope) (envelope, error)

var migrations = map[int]migration{}

// migrate brings an envelope of a different version to the current one.
// Versions without a registered rule pass through unchanged; the decoder's
// per-field defaults absorb the drift.
func migrate(env envelope) (envelope, error) {
	for env.Version != Version {
		step, ok := migrations[env.Version]
		if !ok {
			env.Version = Version
			return env, nil
		}
		next, err := step(env)
		if err != nil {
			return env, err
		}
		env = next
	}
	return env, nil
}
