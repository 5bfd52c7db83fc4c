// Package version implements spec §6 "Persisted layout": a `version` stamp
// file holding (major, minor, patch), and a sequenced list of in-place
// upgrade steps applied when an on-disk major version trails the running
// binary. Adapted directly from the teacher's migrations/migrations.go
// Migrator: an ordered, idempotent, applied-set-tracked list of steps,
// generalized from "apply once, ever" to "apply once per opened store,
// tracked by a name written back into the main database" — the teacher
// records applied migrations in its own `migrations` bucket; this keeps the
// same idea under internal/kv's `main` bucket.
package version

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/turbosearch/ftcore/internal/codec"
	"github.com/turbosearch/ftcore/internal/errs"
	"github.com/turbosearch/ftcore/internal/kv"
	"github.com/turbosearch/ftcore/internal/logging"
)

// Current is the version this binary writes for freshly created indexes.
var Current = Stamp{Major: 1, Minor: 0, Patch: 0}

// Stamp is the on-disk version marker.
type Stamp struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

func stampPath(dir string) string { return filepath.Join(dir, "version") }

// Read loads the version stamp from dir, or returns Current if the
// directory has no stamp yet (fresh index, spec §6 "Creating on an empty
// directory initializes an empty index").
func Read(dir string) (Stamp, error) {
	b, err := os.ReadFile(stampPath(dir))
	if os.IsNotExist(err) {
		return Current, nil
	}
	if err != nil {
		return Stamp{}, errs.Resource(errs.CodeIOFailure, fmt.Errorf("version: read stamp: %w", err))
	}
	var s Stamp
	if err := json.Unmarshal(b, &s); err != nil {
		return Stamp{}, errs.IndexState(errs.CodeVersionMismatch, fmt.Errorf("version: parse stamp: %w", err))
	}
	return s, nil
}

// Write persists s to dir.
func Write(dir string, s Stamp) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(stampPath(dir), b, 0o644); err != nil {
		return errs.Resource(errs.CodeIOFailure, fmt.Errorf("version: write stamp: %w", err))
	}
	return nil
}

// Step is one named, idempotent upgrade transformation, run inside the
// env's single write transaction.
type Step struct {
	Name string
	Up   func(tx kv.Tx) error
}

// steps apply sequentially in this order, skipping already-applied ones —
// mirrors the teacher's top-of-file comment in migrations.go nearly
// verbatim: "it allows - don't worry about merge conflicts and use switch
// branches".
var steps []Step

// Register appends a named upgrade step; called from init() in files that
// introduce a breaking on-disk format change, matching the teacher's
// practice of listing each migration by name in migrations.go.
func Register(s Step) { steps = append(steps, s) }

const appliedKeyPrefix = "applied-migration:"

// Upgrade checks the on-disk major version against Current. A higher
// on-disk major than the running binary is refused; a lower one runs
// Apply. The stamp is then rewritten to Current.
func Upgrade(env *kv.Env, dir string) error {
	log := logging.For("version")
	stamp, err := Read(dir)
	if err != nil {
		return err
	}
	if stamp.Major > Current.Major {
		return errs.IndexState(errs.CodeVersionMismatch,
			fmt.Errorf("version: on-disk major %d newer than binary major %d", stamp.Major, Current.Major))
	}
	if stamp.Major < Current.Major {
		log.Info().Int("from", stamp.Major).Int("to", Current.Major).Msg("applying upgrade steps")
		if err := Apply(env); err != nil {
			return errs.IndexState(errs.CodeDeadLetteredUpgrade, fmt.Errorf("version: upgrade: %w", err))
		}
	}
	return Write(dir, Current)
}

// Apply runs every registered Step not yet recorded as applied, inside one
// write transaction per step (spec §4.3 "any fatal error aborts the
// transaction; no partial writes are observable").
func Apply(env *kv.Env) error {
	applied := map[string]bool{}
	if err := env.View(func(tx kv.Tx) error {
		b := tx.Bucket(codec.BucketMain)
		for _, s := range steps {
			if b.Get([]byte(appliedKeyPrefix+s.Name)) != nil {
				applied[s.Name] = true
			}
		}
		return nil
	}); err != nil {
		return err
	}

	for _, s := range steps {
		if applied[s.Name] {
			continue
		}
		if err := env.Update(func(tx kv.Tx) error {
			if err := s.Up(tx); err != nil {
				return fmt.Errorf("version: step %q: %w", s.Name, err)
			}
			return tx.Bucket(codec.BucketMain).Put([]byte(appliedKeyPrefix+s.Name), []byte{1})
		}); err != nil {
			return err
		}
	}
	return nil
}
